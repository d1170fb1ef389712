package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file (PNG, JPEG, GIF, WebP or TGA)",
	}
}

func poseProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "number"},
		"minItems":    6,
		"maxItems":    6,
		"description": description,
	}
}

// fitProperties are the overrides accepted by every tool that may run a fit.
func fitProperties(props map[string]interface{}) map[string]interface{} {
	props["initial_pose"] = poseProperty("Optional starting pose [cx, cy, cz, rx, ry, rz]; angles in radians. Default [0, 0, 300, 0, 0, 0]")
	props["max_iterations"] = map[string]interface{}{
		"type":        "integer",
		"description": "Optional optimizer iteration cap. Default 1000",
	}
	props["strategy"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"area_edge", "full_image"},
		"description": "Scoring strategy. area_edge samples the face and rewards edge alignment; full_image ray casts every pixel. Default area_edge",
	}
	return props
}

func formatProperties(props map[string]interface{}) map[string]interface{} {
	props["format"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "jpeg", "webp"},
		"description": "Output encoding. Default png",
	}
	props["quality"] = map[string]interface{}{
		"type":        "integer",
		"description": "JPEG quality 1-100. Default 90",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and the working resolution a fit would use. The image stays cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Return the Canny edge map the target fit scores against, at working resolution, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Low hysteresis threshold (0-255). Default 50",
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "High hysteresis threshold (0-255). Default 150",
					},
					"raw": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the binary Canny output without softening. Default false",
					},
				},
				"required": []string{"path"},
			},
		},

		// Target location
		{
			Name:        "target_fit",
			Description: "Locate the concentric-ring target in a photo. Returns the 6-DoF pose, final cost, optimizer status and the projected face corners and centre in source image pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": fitProperties(map[string]interface{}{
					"path": pathProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "target_score",
			Description: "Evaluate the cost of a single target pose against a photo. Lower is better.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"pose": poseProperty("Pose to score [cx, cy, cz, rx, ry, rz]; angles in radians"),
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"area_edge", "full_image"},
						"description": "Scoring strategy. Default area_edge",
					},
				},
				"required": []string{"path", "pose"},
			},
		},
		{
			Name:        "target_overlay",
			Description: "Fit the target (or use the given pose) and return the photo with the face outline, ring boundaries and centre drawn on it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": formatProperties(fitProperties(map[string]interface{}{
					"path": pathProperty(),
					"pose": poseProperty("Optional pose to draw instead of fitting"),
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Optional caption. Default shows cost and status",
					},
				})),
				"required": []string{"path"},
			},
		},
		{
			Name:        "target_crop",
			Description: "Fit the target (or use the given pose) and return it cut out of the photo. Mode square crops the axis-aligned square around the face; rectify resamples the face as if seen head on.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": formatProperties(fitProperties(map[string]interface{}{
					"path": pathProperty(),
					"pose": poseProperty("Optional pose to crop instead of fitting"),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"square", "rectify"},
						"description": "Crop mode. Default square",
					},
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Output side in pixels. Square mode keeps the native size when 0; rectify defaults to 256",
					},
					"margin": map[string]interface{}{
						"type":        "number",
						"description": "Square mode only: extra border as a fraction of the face size. Default 0",
					},
				})),
				"required": []string{"path"},
			},
		},
	}
}
