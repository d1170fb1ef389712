package cost

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/target-fit-mcp/internal/target"
)

var background = colorful.Color{R: 0.1, G: 0.4, B: 0.1}

// renderScene renders the target at pose and derives a one pixel wide
// boundary map from color changes between neighbors.
func renderScene(t *testing.T, pose target.Pose, cam target.Camera, w, h int) *Context {
	t.Helper()
	tg, err := target.New(pose, target.DefaultBase, target.DefaultPalette())
	require.NoError(t, err)
	img := target.Render(tg, cam, w, h, background)
	return &Context{
		Image:  NewColorImage(img),
		Edges:  NewEdgeMap(boundaryMap(img)),
		Camera: cam,
	}
}

func boundaryMap(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			for _, d := range []image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				n := image.Pt(x+d.X, y+d.Y)
				if n.In(b) && img.NRGBAAt(n.X, n.Y) != c {
					out.SetGray(x, y, color.Gray{Y: 255})
					break
				}
			}
		}
	}
	return out
}

func mustTarget(t *testing.T, pose target.Pose) *target.Target {
	t.Helper()
	tg, err := target.New(pose, target.DefaultBase, target.DefaultPalette())
	require.NoError(t, err)
	return tg
}

func TestColorImage_Sample(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(2, 1, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	ci := NewColorImage(img)

	c, ok := ci.Sample(r2.Point{X: 2.4, Y: 0.6})
	require.True(t, ok)
	assert.InDelta(t, 1.0, c.R, 1e-9)
	assert.InDelta(t, 0.2, c.B, 1e-9)

	for _, p := range []r2.Point{{X: -0.6, Y: 0}, {X: 3.5, Y: 0}, {X: 0, Y: 2.5}, {X: math.NaN(), Y: 0}} {
		_, ok := ci.Sample(p)
		assert.False(t, ok, "point %v", p)
	}
}

func TestEdgeMap_Sample(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	img.SetGray(1, 1, color.Gray{Y: 255})
	em := NewEdgeMap(img)

	e, ok := em.Sample(r2.Point{X: 1.2, Y: 0.9})
	require.True(t, ok)
	assert.InDelta(t, 1.0, e, 1e-9)

	e, ok = em.Sample(r2.Point{X: 0, Y: 0})
	require.True(t, ok)
	assert.Zero(t, e)
}

func TestAreaSampler_TruePoseIsNearZero(t *testing.T) {
	cam := target.CenteredCamera(target.DefaultObjectDistance, target.DefaultScale, 200, 200)
	pose := target.Pose{Center: r3.Vector{Z: 450}}
	ctx := renderScene(t, pose, cam, 200, 200)

	s := AreaSampler{Step: DefaultAreaStep, Penalty: DefaultPenalty}
	got := s.Score(ctx.Image, target.Projection{Camera: cam, Target: mustTarget(t, pose)})
	assert.Less(t, got, 0.05)
}

func TestAreaSampler_OutOfFrameIsPenalized(t *testing.T) {
	cam := target.CenteredCamera(target.DefaultObjectDistance, target.DefaultScale, 200, 200)
	ctx := renderScene(t, target.Pose{Center: r3.Vector{Z: 450}}, cam, 200, 200)

	far := mustTarget(t, target.Pose{Center: r3.Vector{X: 1e5, Z: 450}})
	proj := target.Projection{Camera: cam, Target: far}

	s := AreaSampler{Step: 0.05, Penalty: DefaultPenalty}
	assert.InDelta(t, DefaultPenalty, s.Score(ctx.Image, proj), 1e-9)

	behind := mustTarget(t, target.Pose{Center: r3.Vector{Z: -450}})
	assert.InDelta(t, DefaultPenalty, s.Score(ctx.Image, target.Projection{Camera: cam, Target: behind}), 1e-9)

	e := EdgeSampler{Step: DefaultEdgeStep}
	assert.Zero(t, e.Score(ctx.Edges, proj))
}

func TestEdgeSampler_PrefersAlignedBoundaries(t *testing.T) {
	cam := target.CenteredCamera(target.DefaultObjectDistance, target.DefaultScale, 200, 200)
	pose := target.Pose{Center: r3.Vector{Z: 450}}
	ctx := renderScene(t, pose, cam, 200, 200)
	e := EdgeSampler{Step: DefaultEdgeStep}

	aligned := e.Score(ctx.Edges, target.Projection{Camera: cam, Target: mustTarget(t, pose)})
	shifted := e.Score(ctx.Edges, target.Projection{Camera: cam, Target: mustTarget(t, target.Pose{Center: r3.Vector{X: 12, Y: 7, Z: 450}})})

	assert.Greater(t, aligned, 0.5)
	assert.Greater(t, aligned, shifted)
}

func TestAreaEdge_TruePoseBeatsPerturbations(t *testing.T) {
	cam := target.CenteredCamera(target.DefaultObjectDistance, target.DefaultScale, 200, 200)
	truth := target.Pose{Center: r3.Vector{X: 6, Y: -4, Z: 450}, Angles: r3.Vector{X: 0.05, Y: -0.05}}
	ctx := renderScene(t, truth, cam, 200, 200)

	strategy, err := StrategyByName(NameAreaEdge, DefaultOptions())
	require.NoError(t, err)
	base := Evaluate(ctx, strategy, truth, target.DefaultBase, target.DefaultPalette())

	perturb := func(dc, da r3.Vector) target.Pose {
		return target.Pose{Center: truth.Center.Add(dc), Angles: truth.Angles.Add(da)}
	}
	tests := []struct {
		name string
		pose target.Pose
	}{
		{"center x", perturb(r3.Vector{X: 5}, r3.Vector{})},
		{"center -x", perturb(r3.Vector{X: -5}, r3.Vector{})},
		{"center y", perturb(r3.Vector{Y: 5}, r3.Vector{})},
		{"center -y", perturb(r3.Vector{Y: -5}, r3.Vector{})},
		{"center z", perturb(r3.Vector{Z: 5}, r3.Vector{})},
		{"center -z", perturb(r3.Vector{Z: -5}, r3.Vector{})},
		{"rotate x", perturb(r3.Vector{}, r3.Vector{X: 0.1})},
		{"rotate y", perturb(r3.Vector{}, r3.Vector{Y: -0.1})},
		{"rotate z", perturb(r3.Vector{}, r3.Vector{Z: 0.1})},
		{"rotate -z", perturb(r3.Vector{}, r3.Vector{Z: -0.1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(ctx, strategy, tt.pose, target.DefaultBase, target.DefaultPalette())
			assert.Less(t, base, got)
		})
	}
}

func TestAreaEdge_WithoutEdgeMap(t *testing.T) {
	cam := target.CenteredCamera(target.DefaultObjectDistance, target.DefaultScale, 200, 200)
	pose := target.Pose{Center: r3.Vector{Z: 450}}
	ctx := renderScene(t, pose, cam, 200, 200)

	s := AreaEdge{
		Area:       AreaSampler{Step: 0.02, Penalty: DefaultPenalty},
		Edge:       EdgeSampler{Step: 0.02},
		EdgeWeight: 1,
	}
	proj := target.Projection{Camera: cam, Target: mustTarget(t, pose)}
	withEdges := s.Cost(ctx, proj)

	noEdges := *ctx
	noEdges.Edges = nil
	withoutEdges := s.Cost(&noEdges, proj)

	assert.InDelta(t, s.Area.Score(ctx.Image, proj), withoutEdges, 1e-12)
	assert.Less(t, withEdges, withoutEdges)
}

func TestFullImage_PrefersTruePose(t *testing.T) {
	cam := target.CenteredCamera(target.DefaultObjectDistance, target.DefaultScale, 100, 100)
	// Close enough that the face fills the whole frame.
	truth := target.Pose{Center: r3.Vector{Z: 150}}
	ctx := renderScene(t, truth, cam, 100, 100)

	strategy, err := StrategyByName(NameFullImage, DefaultOptions())
	require.NoError(t, err)

	base := Evaluate(ctx, strategy, truth, target.DefaultBase, target.DefaultPalette())
	shifted := Evaluate(ctx, strategy, target.Pose{Center: r3.Vector{X: 10, Z: 150}}, target.DefaultBase, target.DefaultPalette())
	assert.Less(t, base, 0.01)
	assert.Less(t, base, shifted)

	away := Evaluate(ctx, strategy, target.Pose{Center: r3.Vector{X: 1e5, Z: 150}}, target.DefaultBase, target.DefaultPalette())
	assert.InDelta(t, DefaultPenalty, away, 1e-9)
}

func TestEvaluate_InvalidPose(t *testing.T) {
	cam := target.CenteredCamera(target.DefaultObjectDistance, target.DefaultScale, 10, 10)
	ctx := &Context{Image: NewColorImage(image.NewNRGBA(image.Rect(0, 0, 10, 10))), Camera: cam}

	for _, name := range []string{NameAreaEdge, NameFullImage} {
		s, err := StrategyByName(name, DefaultOptions())
		require.NoError(t, err)
		got := Evaluate(ctx, s, target.Pose{Center: r3.Vector{X: math.Inf(1)}}, target.DefaultBase, target.DefaultPalette())
		assert.Equal(t, s.InvalidCost(), got, name)
	}
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, NameAreaEdge, s.Name())

	s, err = StrategyByName(NameFullImage, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, NameFullImage, s.Name())

	_, err = StrategyByName("hough", DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	bad := DefaultOptions()
	bad.AreaStep = 0
	_, err = StrategyByName(NameAreaEdge, bad)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	bad = DefaultOptions()
	bad.PixelStride = 0
	_, err = StrategyByName(NameFullImage, bad)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
