package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/target-fit-mcp/internal/fit"
	"github.com/ironsheep/target-fit-mcp/internal/imaging"
	"github.com/ironsheep/target-fit-mcp/internal/target"
)

// Crop modes for target_crop.
const (
	cropModeSquare  = "square"
	cropModeRectify = "rectify"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "target_fit").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	case "target_fit":
		return s.handleTargetFit(ctx, args)
	case "target_score":
		return s.handleTargetScore(ctx, args)
	case "target_overlay":
		return s.handleTargetOverlay(ctx, args)
	case "target_crop":
		return s.handleTargetCrop(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadImage resolves the path argument through the cache.
func (s *Server) loadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	return s.cache.Load(path)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path, s.cfg.Preprocess.WorkingWidth)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	ThresholdLow  *int   `json:"threshold_low"`
	ThresholdHigh *int   `json:"threshold_high"`
	Raw           bool   `json:"raw"`
}

// handleImageEdgeDetect returns the edge map the cost function scores
// against, at working resolution. With raw set the Canny output is returned
// before softening.
func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := s.cfg.Preprocess
	if a.ThresholdLow != nil {
		opts.EdgeLow = *a.ThresholdLow
	}
	if a.ThresholdHigh != nil {
		opts.EdgeHigh = *a.ThresholdHigh
	}
	if a.Raw {
		opts.EdgeBlurRadius = 0
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	prep, err := imaging.Prepare(img, opts)
	if err != nil {
		return nil, err
	}
	return imaging.Encode(prep.Edges, imaging.FormatPNG, 0)
}

// === Target Handlers ===

// fitOverrides are the per-call adjustments every target tool accepts.
type fitOverrides struct {
	InitialPose   []float64 `json:"initial_pose"`
	MaxIterations *int      `json:"max_iterations"`
	Strategy      string    `json:"strategy"`
}

func (o fitOverrides) apply(cfg fit.Config) (fit.Config, error) {
	if o.InitialPose != nil {
		pose, err := target.PoseFromVector(o.InitialPose)
		if err != nil {
			return cfg, fmt.Errorf("initial_pose: %w", err)
		}
		cfg.InitialPose = pose
	}
	if o.MaxIterations != nil {
		cfg.MaxIterations = *o.MaxIterations
	}
	if o.Strategy != "" {
		cfg.Strategy = o.Strategy
	}
	return cfg, cfg.Validate()
}

// PointJSON is a pixel position in the source photo.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toPointJSON(p r2.Point) PointJSON { return PointJSON{X: p.X, Y: p.Y} }

// FitResponse is the target_fit result.
type FitResponse struct {
	Pose          target.Pose `json:"pose"`
	PoseVector    []float64   `json:"pose_vector"`
	Cost          float64     `json:"cost"`
	Iterations    int         `json:"iterations"`
	Status        string      `json:"status"`
	Converged     bool        `json:"converged"`
	Visible       bool        `json:"visible"`
	Corners       []PointJSON `json:"corners,omitempty"`
	Center        *PointJSON  `json:"center,omitempty"`
	WorkingWidth  int         `json:"working_width"`
	WorkingHeight int         `json:"working_height"`
	DurationMs    int64       `json:"duration_ms"`
}

func newFitResponse(res *fit.Result, elapsed time.Duration) *FitResponse {
	out := &FitResponse{
		Pose:          res.Pose,
		PoseVector:    res.Pose.Vector(),
		Cost:          res.Cost,
		Iterations:    res.Iterations,
		Status:        res.Status.String(),
		Converged:     res.Converged(),
		WorkingWidth:  res.WorkingWidth,
		WorkingHeight: res.WorkingHeight,
		DurationMs:    elapsed.Milliseconds(),
	}
	if outline, ok := res.Outline(); ok {
		out.Visible = true
		for _, c := range outline.Corners {
			out.Corners = append(out.Corners, toPointJSON(c))
		}
		center := toPointJSON(outline.Center)
		out.Center = &center
	}
	return out
}

type targetFitArgs struct {
	Path string `json:"path"`
	fitOverrides
}

func (s *Server) handleTargetFit(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a targetFitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.apply(s.cfg)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := fit.Fit(ctx, img, cfg)
	if err != nil {
		return nil, err
	}
	return newFitResponse(res, time.Since(started)), nil
}

type targetScoreArgs struct {
	Path     string    `json:"path"`
	Pose     []float64 `json:"pose"`
	Strategy string    `json:"strategy"`
}

// ScoreResponse is the target_score result.
type ScoreResponse struct {
	Pose     target.Pose `json:"pose"`
	Cost     float64     `json:"cost"`
	Strategy string      `json:"strategy"`
}

func (s *Server) handleTargetScore(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a targetScoreArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	pose, err := target.PoseFromVector(a.Pose)
	if err != nil {
		return nil, fmt.Errorf("pose: %w", err)
	}
	cfg, err := fitOverrides{Strategy: a.Strategy}.apply(s.cfg)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	c, err := fit.Score(ctx, img, pose, cfg)
	if err != nil {
		return nil, err
	}
	return &ScoreResponse{Pose: pose, Cost: c, Strategy: cfg.Strategy}, nil
}

// locate fits the target, or wraps a caller supplied pose without
// searching.
func (s *Server) locate(ctx context.Context, img image.Image, pose []float64, o fitOverrides) (*fit.Result, error) {
	cfg, err := o.apply(s.cfg)
	if err != nil {
		return nil, err
	}
	if pose == nil {
		return fit.Fit(ctx, img, cfg)
	}
	p, err := target.PoseFromVector(pose)
	if err != nil {
		return nil, fmt.Errorf("pose: %w", err)
	}
	return fit.ResultForPose(ctx, img, p, cfg)
}

type targetOverlayArgs struct {
	Path    string    `json:"path"`
	Pose    []float64 `json:"pose"`
	Format  string    `json:"format"`
	Quality int       `json:"quality"`
	Label   string    `json:"label"`
	fitOverrides
}

// OverlayResponse is the target_overlay result.
type OverlayResponse struct {
	*imaging.EncodedImage
	Fit *FitResponse `json:"fit"`
}

func (s *Server) handleTargetOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a targetOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	format, err := imaging.NormalizeFormat(a.Format)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := s.locate(ctx, img, a.Pose, a.fitOverrides)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)

	drawn, err := fit.Overlay(img, res, a.Label)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.Encode(drawn, format, a.Quality)
	if err != nil {
		return nil, err
	}
	return &OverlayResponse{EncodedImage: enc, Fit: newFitResponse(res, elapsed)}, nil
}

type targetCropArgs struct {
	Path    string    `json:"path"`
	Pose    []float64 `json:"pose"`
	Mode    string    `json:"mode"`
	Size    int       `json:"size"`
	Margin  float64   `json:"margin"`
	Format  string    `json:"format"`
	Quality int       `json:"quality"`
	fitOverrides
}

func (s *Server) handleTargetCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a targetCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Mode == "" {
		a.Mode = cropModeSquare
	}
	if a.Mode != cropModeSquare && a.Mode != cropModeRectify {
		return nil, fmt.Errorf("unknown crop mode: %s", a.Mode)
	}
	if a.Size < 0 || a.Margin < 0 {
		return nil, errors.New("size and margin must not be negative")
	}
	format, err := imaging.NormalizeFormat(a.Format)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := s.locate(ctx, img, a.Pose, a.fitOverrides)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)

	var out image.Image
	if a.Mode == cropModeRectify {
		out, err = fit.Rectify(img, res, a.Size)
	} else {
		out, err = fit.Crop(img, res, a.Margin, a.Size)
	}
	if err != nil {
		return nil, err
	}
	enc, err := imaging.Encode(out, format, a.Quality)
	if err != nil {
		return nil, err
	}
	return &OverlayResponse{EncodedImage: enc, Fit: newFitResponse(res, elapsed)}, nil
}
