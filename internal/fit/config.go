package fit

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/target-fit-mcp/internal/cost"
	"github.com/ironsheep/target-fit-mcp/internal/imaging"
	"github.com/ironsheep/target-fit-mcp/internal/optimize"
	"github.com/ironsheep/target-fit-mcp/internal/target"
)

// DefaultInitialDepth is how far in front of the camera the search starts.
const DefaultInitialDepth = 300.0

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid fit configuration")

// CameraConfig holds the intrinsic constants. The principal point is always
// the working image centre.
type CameraConfig struct {
	ObjectDistance float64 `yaml:"object_distance"`
	Scale          float64 `yaml:"scale"`
}

// PaletteConfig overrides the face colours. With no colours the standard
// palette is used with RingWidth applied.
type PaletteConfig struct {
	RingWidth float64  `yaml:"ring_width"`
	Colors    []string `yaml:"colors,omitempty"`
}

// Config tunes a fit. Start from DefaultConfig; zero values are not
// defaults.
type Config struct {
	InitialPose   target.Pose `yaml:"initial_pose"`
	StepSizes     []float64   `yaml:"step_sizes"`
	Tolerance     float64     `yaml:"tolerance"`
	MaxIterations int         `yaml:"max_iterations"`
	Base          float64     `yaml:"base"`

	Strategy    string  `yaml:"strategy"`
	EdgeWeight  float64 `yaml:"edge_weight"`
	AreaStep    float64 `yaml:"area_step"`
	EdgeStep    float64 `yaml:"edge_step"`
	Penalty     float64 `yaml:"penalty"`
	PixelStride int     `yaml:"pixel_stride"`

	Camera     CameraConfig           `yaml:"camera"`
	Palette    PaletteConfig          `yaml:"palette"`
	Preprocess imaging.PrepareOptions `yaml:"preprocess"`

	// Logger receives start and finish lines. Nil disables logging.
	Logger *log.Logger `yaml:"-"`
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	settings := optimize.DefaultSettings()
	opts := cost.DefaultOptions()
	return Config{
		InitialPose:   target.Pose{Center: r3.Vector{Z: DefaultInitialDepth}},
		StepSizes:     []float64{1, 1, 1, 0.01, 0.01, 0.01},
		Tolerance:     settings.Tolerance,
		MaxIterations: settings.MaxIterations,
		Base:          target.DefaultBase,
		Strategy:      cost.NameAreaEdge,
		EdgeWeight:    opts.EdgeWeight,
		AreaStep:      opts.AreaStep,
		EdgeStep:      opts.EdgeStep,
		Penalty:       opts.Penalty,
		PixelStride:   opts.PixelStride,
		Camera: CameraConfig{
			ObjectDistance: target.DefaultObjectDistance,
			Scale:          target.DefaultScale,
		},
		Palette:    PaletteConfig{RingWidth: target.DefaultRingWidth},
		Preprocess: imaging.DefaultPrepareOptions(),
	}
}

// LoadConfig reads a YAML file and overlays it on DefaultConfig. Keys that
// are absent keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if len(c.StepSizes) != target.PoseDims {
		return fmt.Errorf("%w: step_sizes needs %d values, got %d", ErrInvalidConfig, target.PoseDims, len(c.StepSizes))
	}
	for i, s := range c.StepSizes {
		if s == 0 {
			return fmt.Errorf("%w: step_sizes[%d] is zero", ErrInvalidConfig, i)
		}
	}
	if !(c.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance must be positive", ErrInvalidConfig)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be at least 1", ErrInvalidConfig)
	}
	if !(c.Base > 0) {
		return fmt.Errorf("%w: base must be positive", ErrInvalidConfig)
	}
	if !(c.Camera.ObjectDistance > 0) || !(c.Camera.Scale > 0) {
		return fmt.Errorf("%w: camera object_distance and scale must be positive", ErrInvalidConfig)
	}
	palette, err := c.TargetPalette()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := target.New(c.InitialPose, c.Base, palette); err != nil {
		return fmt.Errorf("%w: initial_pose: %v", ErrInvalidConfig, err)
	}
	if _, err := cost.StrategyByName(c.Strategy, c.CostOptions()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Preprocess.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CostOptions extracts the scoring options.
func (c Config) CostOptions() cost.Options {
	return cost.Options{
		AreaStep:    c.AreaStep,
		EdgeStep:    c.EdgeStep,
		Penalty:     c.Penalty,
		EdgeWeight:  c.EdgeWeight,
		PixelStride: c.PixelStride,
	}
}

// Settings extracts the optimizer limits.
func (c Config) Settings() optimize.Settings {
	return optimize.Settings{Tolerance: c.Tolerance, MaxIterations: c.MaxIterations}
}

// TargetPalette resolves the configured palette.
func (c Config) TargetPalette() (target.Palette, error) {
	if len(c.Palette.Colors) == 0 {
		p := target.DefaultPalette()
		p.RingWidth = c.Palette.RingWidth
		return p, p.Validate()
	}
	return target.ParsePalette(c.Palette.Colors, c.Palette.RingWidth)
}

// CameraFor returns the camera centred on a width×height image.
func (c Config) CameraFor(width, height int) target.Camera {
	return target.CenteredCamera(c.Camera.ObjectDistance, c.Camera.Scale, width, height)
}

func (c Config) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
