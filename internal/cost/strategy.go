package cost

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/target-fit-mcp/internal/target"
)

// Strategy names accepted by StrategyByName.
const (
	NameAreaEdge  = "area_edge"
	NameFullImage = "full_image"
)

// DefaultEdgeWeight balances edge alignment against area error.
const DefaultEdgeWeight = 1.0

// DefaultPixelStride is the pixel step of the FullImage scan.
const DefaultPixelStride = 2

var (
	// ErrUnknownStrategy is returned by StrategyByName for unrecognized names.
	ErrUnknownStrategy = errors.New("unknown scoring strategy")

	// ErrInvalidOptions is returned for non-positive steps or penalties.
	ErrInvalidOptions = errors.New("invalid scoring options")
)

// Context is the read-only data a fit scores against.
type Context struct {
	Image  *ColorImage
	Edges  *EdgeMap
	Camera target.Camera
}

// Strategy scores a projected target against a Context. Lower is better.
type Strategy interface {
	Name() string
	Cost(ctx *Context, proj target.Projection) float64
	// InvalidCost is charged for poses that do not yield a target.
	InvalidCost() float64
}

// AreaEdge combines the area and edge samplers: area − EdgeWeight·edge.
type AreaEdge struct {
	Area       AreaSampler
	Edge       EdgeSampler
	EdgeWeight float64
}

// Name implements Strategy.
func (s AreaEdge) Name() string { return NameAreaEdge }

// Cost implements Strategy. The edge term is skipped when the context has
// no edge map.
func (s AreaEdge) Cost(ctx *Context, proj target.Projection) float64 {
	c := s.Area.Score(ctx.Image, proj)
	if ctx.Edges != nil && s.EdgeWeight != 0 {
		c -= s.EdgeWeight * s.Edge.Score(ctx.Edges, proj)
	}
	return c
}

// InvalidCost implements Strategy.
func (s AreaEdge) InvalidCost() float64 { return s.Area.Penalty }

// FullImage scans the photo with a pixel stride and casts a ray through
// each sampled pixel. Pixels whose ray misses the face cost Penalty.
type FullImage struct {
	Stride  int
	Penalty float64
}

// Name implements Strategy.
func (s FullImage) Name() string { return NameFullImage }

// Cost implements Strategy.
func (s FullImage) Cost(ctx *Context, proj target.Projection) float64 {
	stride := s.Stride
	if stride < 1 {
		stride = 1
	}
	img := ctx.Image
	var total float64
	count := 0
	for y := 0; y < img.Height; y += stride {
		for x := 0; x < img.Width; x += stride {
			count++
			origin, dir := proj.Camera.Ray(r2.Point{X: float64(x), Y: float64(y)})
			want, ok := proj.Target.CastRayColor(origin, dir)
			if !ok {
				total += s.Penalty
				continue
			}
			total += squaredDistance(img.At(x, y), want)
		}
	}
	if count == 0 {
		return s.Penalty
	}
	return total / float64(count)
}

// InvalidCost implements Strategy.
func (s FullImage) InvalidCost() float64 { return s.Penalty }

// Options tunes the strategies. Zero values are not defaults; start from
// DefaultOptions.
type Options struct {
	AreaStep    float64
	EdgeStep    float64
	Penalty     float64
	EdgeWeight  float64
	PixelStride int
}

// DefaultOptions returns the sampling defaults.
func DefaultOptions() Options {
	return Options{
		AreaStep:    DefaultAreaStep,
		EdgeStep:    DefaultEdgeStep,
		Penalty:     DefaultPenalty,
		EdgeWeight:  DefaultEdgeWeight,
		PixelStride: DefaultPixelStride,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if !(o.AreaStep > 0 && o.AreaStep <= 2) {
		return fmt.Errorf("%w: area step %v", ErrInvalidOptions, o.AreaStep)
	}
	if !(o.EdgeStep > 0 && o.EdgeStep <= 2) {
		return fmt.Errorf("%w: edge step %v", ErrInvalidOptions, o.EdgeStep)
	}
	if !(o.Penalty >= 0) {
		return fmt.Errorf("%w: penalty %v", ErrInvalidOptions, o.Penalty)
	}
	if o.PixelStride < 1 {
		return fmt.Errorf("%w: pixel stride %d", ErrInvalidOptions, o.PixelStride)
	}
	return nil
}

// StrategyByName builds a strategy. An empty name selects AreaEdge.
func StrategyByName(name string, o Options) (Strategy, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case "", NameAreaEdge:
		return AreaEdge{
			Area:       AreaSampler{Step: o.AreaStep, Penalty: o.Penalty},
			Edge:       EdgeSampler{Step: o.EdgeStep},
			EdgeWeight: o.EdgeWeight,
		}, nil
	case NameFullImage:
		return FullImage{Stride: o.PixelStride, Penalty: o.Penalty}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Evaluate scores a pose. Poses that cannot form a target cost
// s.InvalidCost().
func Evaluate(ctx *Context, s Strategy, pose target.Pose, base float64, palette target.Palette) float64 {
	t, err := target.New(pose, base, palette)
	if err != nil {
		return s.InvalidCost()
	}
	return s.Cost(ctx, target.Projection{Camera: ctx.Camera, Target: t})
}
