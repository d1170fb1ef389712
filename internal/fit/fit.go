package fit

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/target-fit-mcp/internal/cost"
	"github.com/ironsheep/target-fit-mcp/internal/imaging"
	"github.com/ironsheep/target-fit-mcp/internal/optimize"
	"github.com/ironsheep/target-fit-mcp/internal/target"
)

// ringSegments is the polyline resolution of projected ring outlines.
const ringSegments = 48

// ErrEmptyImage is returned for photos without pixels.
var ErrEmptyImage = errors.New("fit: empty image")

// Result is a located target.
type Result struct {
	Target     *target.Target
	Pose       target.Pose
	Cost       float64
	Iterations int
	Status     optimize.Status

	// Camera projects into the working image, ImageCamera into the source
	// photo.
	Camera      target.Camera
	ImageCamera target.Camera

	WorkingWidth  int
	WorkingHeight int
}

// Converged reports whether the optimizer met its tolerance.
func (r *Result) Converged() bool { return r.Status == optimize.StatusConverged }

// Projection returns the projection into the source photo.
func (r *Result) Projection() target.Projection {
	return target.Projection{Camera: r.ImageCamera, Target: r.Target}
}

// Outline projects the face square, its centre and the ring boundaries into
// source photo pixels. ok is false when the face is not in front of the
// camera.
func (r *Result) Outline() (imaging.Outline, bool) {
	proj := r.Projection()
	corners, ok := proj.Corners()
	if !ok {
		return imaging.Outline{}, false
	}
	center, ok := proj.Project(r2.Point{})
	if !ok {
		return imaging.Outline{}, false
	}
	out := imaging.Outline{Corners: corners, Center: center}
	for _, radius := range r.Target.Palette().Boundaries() {
		ring := make([]r2.Point, 0, ringSegments)
		for i := 0; i < ringSegments; i++ {
			a := 2 * math.Pi * float64(i) / ringSegments
			p, ok := proj.Project(r2.Point{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
			if !ok {
				break
			}
			ring = append(ring, p)
		}
		if len(ring) == ringSegments {
			out.Rings = append(out.Rings, ring)
		}
	}
	return out, true
}

// scene is the fixed data every objective evaluation reads.
type scene struct {
	prep     *imaging.Prepared
	ctx      *cost.Context
	strategy cost.Strategy
	palette  target.Palette
	base     float64
}

func newScene(img image.Image, cfg Config) (*scene, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	palette, err := cfg.TargetPalette()
	if err != nil {
		return nil, err
	}
	strategy, err := cost.StrategyByName(cfg.Strategy, cfg.CostOptions())
	if err != nil {
		return nil, err
	}
	prep, err := imaging.Prepare(img, cfg.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("preprocessing: %w", err)
	}
	wb := prep.Working.Bounds()
	return &scene{
		prep: prep,
		ctx: &cost.Context{
			Image:  cost.NewColorImage(prep.Blurred),
			Edges:  cost.NewEdgeMap(prep.Edges),
			Camera: cfg.CameraFor(wb.Dx(), wb.Dy()),
		},
		strategy: strategy,
		palette:  palette,
		base:     cfg.Base,
	}, nil
}

func (s *scene) cost(pose target.Pose) float64 {
	return cost.Evaluate(s.ctx, s.strategy, pose, s.base, s.palette)
}

// Fit searches for the target pose in img.
//
// When ctx is canceled mid-search Fit returns the best result found so far
// together with the context error.
func Fit(ctx context.Context, img image.Image, cfg Config) (*Result, error) {
	s, err := newScene(img, cfg)
	if err != nil {
		return nil, err
	}
	wb := s.prep.Working.Bounds()
	cfg.logf("fit: start source=%dx%d working=%dx%d strategy=%s",
		img.Bounds().Dx(), img.Bounds().Dy(), wb.Dx(), wb.Dy(), s.strategy.Name())
	started := time.Now()

	objective := func(x []float64) float64 {
		pose, err := target.PoseFromVector(x)
		if err != nil {
			return math.Inf(1)
		}
		return s.cost(pose)
	}

	opt, runErr := optimize.Minimize(ctx, objective, cfg.InitialPose.Vector(), cfg.StepSizes, cfg.Settings())
	if opt == nil {
		return nil, fmt.Errorf("optimizer: %w", runErr)
	}

	pose, err := target.PoseFromVector(opt.X)
	if err != nil {
		return nil, err
	}
	t, err := target.New(pose, s.base, s.palette)
	if err != nil {
		return nil, fmt.Errorf("fitted pose: %w", err)
	}

	res := &Result{
		Target:        t,
		Pose:          pose,
		Cost:          opt.F,
		Iterations:    opt.Iterations,
		Status:        opt.Status,
		Camera:        s.ctx.Camera,
		ImageCamera:   s.ctx.Camera.Scaled(s.prep.Scale),
		WorkingWidth:  wb.Dx(),
		WorkingHeight: wb.Dy(),
	}
	cfg.logf("fit: %s after %d iterations in %s cost=%.4f center=(%.1f, %.1f, %.1f)",
		res.Status, res.Iterations, time.Since(started).Round(time.Millisecond), res.Cost,
		pose.Center.X, pose.Center.Y, pose.Center.Z)

	if runErr != nil {
		return res, runErr
	}
	return res, nil
}

// Score evaluates a single pose against img with the same preprocessing
// and strategy Fit would use.
func Score(ctx context.Context, img image.Image, pose target.Pose, cfg Config) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s, err := newScene(img, cfg)
	if err != nil {
		return 0, err
	}
	return s.cost(pose), nil
}

// ResultForPose wraps a known pose as a Result for img so it can be
// overlaid or cropped without searching. Cost is evaluated once; Iterations
// is zero and Status is StatusConverged.
func ResultForPose(ctx context.Context, img image.Image, pose target.Pose, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := newScene(img, cfg)
	if err != nil {
		return nil, err
	}
	t, err := target.New(pose, s.base, s.palette)
	if err != nil {
		return nil, err
	}
	wb := s.prep.Working.Bounds()
	return &Result{
		Target:        t,
		Pose:          pose,
		Cost:          s.cost(pose),
		Status:        optimize.StatusConverged,
		Camera:        s.ctx.Camera,
		ImageCamera:   s.ctx.Camera.Scaled(s.prep.Scale),
		WorkingWidth:  wb.Dx(),
		WorkingHeight: wb.Dy(),
	}, nil
}
