package cost

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/target-fit-mcp/internal/target"
)

// Default sampling parameters.
const (
	DefaultAreaStep = 0.01
	DefaultEdgeStep = 0.01
	DefaultPenalty  = 3.0
)

// AreaSampler compares the expected face color with the photo on a regular
// grid over the unit square. Samples with no face color, no projection or a
// projection outside the image cost Penalty, so poses that push the target
// out of frame are not free.
type AreaSampler struct {
	Step    float64
	Penalty float64
}

// Score returns the mean squared color error over all grid samples.
func (s AreaSampler) Score(img *ColorImage, proj target.Projection) float64 {
	n := gridCount(s.Step)
	cell := 2 / float64(n)
	var total float64
	for j := 0; j < n; j++ {
		y := -1 + (float64(j)+0.5)*cell
		for i := 0; i < n; i++ {
			p := r2.Point{X: -1 + (float64(i)+0.5)*cell, Y: y}
			want, ok := proj.Target.ColorAt(p)
			if !ok {
				total += s.Penalty
				continue
			}
			px, ok := proj.Project(p)
			if !ok {
				total += s.Penalty
				continue
			}
			got, ok := img.Sample(px)
			if !ok {
				total += s.Penalty
				continue
			}
			total += squaredDistance(got, want)
		}
	}
	return total / float64(n*n)
}

// EdgeSampler walks the outline of the face and every visible ring boundary
// and reads the edge map there. A pose whose boundaries sit on detected
// edges scores high. Unprojectable or out-of-image samples contribute zero.
type EdgeSampler struct {
	Step float64
}

// Score returns the mean squared edge strength along all boundary samples.
func (s EdgeSampler) Score(edges *EdgeMap, proj target.Projection) float64 {
	var total float64
	count := 0
	add := func(p r2.Point) {
		count++
		px, ok := proj.Project(p)
		if !ok {
			return
		}
		if e, ok := edges.Sample(px); ok {
			total += e * e
		}
	}

	n := gridCount(s.Step)
	for i := 0; i <= n; i++ {
		t := -1 + float64(i)*2/float64(n)
		add(r2.Point{X: t, Y: -1})
		add(r2.Point{X: t, Y: 1})
		add(r2.Point{X: -1, Y: t})
		add(r2.Point{X: 1, Y: t})
	}

	m := int(math.Round(1 / s.Step))
	if m < 8 {
		m = 8
	}
	for _, r := range proj.Target.Palette().Boundaries() {
		for k := 0; k < m; k++ {
			a := 2 * math.Pi * float64(k) / float64(m)
			add(r2.Point{X: r * math.Cos(a), Y: r * math.Sin(a)})
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// gridCount is the number of samples per axis on [-1, 1] for a step.
func gridCount(step float64) int {
	if !(step > 0) {
		return 1
	}
	n := int(math.Round(2 / step))
	if n < 1 {
		return 1
	}
	return n
}
