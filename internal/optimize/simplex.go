package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Defaults for Settings.
const (
	DefaultTolerance     = 0.1
	DefaultMaxIterations = 1000
)

// Simplex move coefficients relative to the centroid of the other vertices.
const (
	reflectCoeff  = -1.0
	expandCoeff   = -2.0
	contractCoeff = 0.5
)

// ErrInvalidInput is returned when the starting point, steps or settings
// cannot define a simplex.
var ErrInvalidInput = errors.New("invalid optimizer input")

// Objective maps a parameter vector to the value being minimized. It must
// not retain or modify x.
type Objective func(x []float64) float64

// Settings bounds a run.
type Settings struct {
	// Tolerance stops the run once the RMS distance of the vertices from
	// their centroid drops below it.
	Tolerance float64
	// MaxIterations caps the number of simplex updates.
	MaxIterations int
}

// DefaultSettings returns tolerance 0.1 and 1000 iterations.
func DefaultSettings() Settings {
	return Settings{Tolerance: DefaultTolerance, MaxIterations: DefaultMaxIterations}
}

// Status tells why a run stopped.
type Status int

const (
	// StatusConverged means the simplex shrank below the tolerance.
	StatusConverged Status = iota
	// StatusIterationLimit means MaxIterations were used up.
	StatusIterationLimit
	// StatusStalled means a shrink step produced no finite values.
	StatusStalled
	// StatusCanceled means the context was done.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusIterationLimit:
		return "iteration_limit"
	case StatusStalled:
		return "stalled"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the outcome of a run.
type Result struct {
	// X is the best vertex found.
	X []float64
	// F is the objective value at X.
	F float64
	// Iterations is the number of completed simplex updates.
	Iterations int
	// Size is the final simplex size.
	Size   float64
	Status Status
}

// Converged reports whether the run ended because the tolerance was met.
func (r *Result) Converged() bool { return r.Status == StatusConverged }

type simplex struct {
	f      Objective
	points [][]float64
	values []float64
	// scratch vectors
	centroid []float64
	trial    []float64
	trial2   []float64
}

// Minimize runs Nelder–Mead from x0. The initial simplex is x0 plus one
// vertex per dimension offset by step[i] along axis i.
//
// The context is checked once per iteration. When it is done the best
// vertex so far is returned with StatusCanceled together with ctx.Err().
// All other outcomes return a nil error.
func Minimize(ctx context.Context, f Objective, x0, step []float64, s Settings) (*Result, error) {
	n := len(x0)
	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: empty starting point", ErrInvalidInput)
	case len(step) != n:
		return nil, fmt.Errorf("%w: %d step sizes for %d parameters", ErrInvalidInput, len(step), n)
	case !(s.Tolerance > 0):
		return nil, fmt.Errorf("%w: tolerance %v", ErrInvalidInput, s.Tolerance)
	case s.MaxIterations < 1:
		return nil, fmt.Errorf("%w: max iterations %d", ErrInvalidInput, s.MaxIterations)
	case f == nil:
		return nil, fmt.Errorf("%w: nil objective", ErrInvalidInput)
	}
	for i, v := range step {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: step %d is %v", ErrInvalidInput, i, v)
		}
	}

	sp := newSimplex(f, x0, step)
	res := &Result{Status: StatusIterationLimit}

	for res.Iterations < s.MaxIterations {
		if err := ctx.Err(); err != nil {
			res.Status = StatusCanceled
			sp.fill(res)
			return res, err
		}
		if !sp.iterate() {
			res.Status = StatusStalled
			break
		}
		res.Iterations++
		if sp.size() < s.Tolerance {
			res.Status = StatusConverged
			break
		}
	}
	sp.fill(res)
	return res, nil
}

func newSimplex(f Objective, x0, step []float64) *simplex {
	n := len(x0)
	sp := &simplex{
		f:        f,
		points:   make([][]float64, n+1),
		values:   make([]float64, n+1),
		centroid: make([]float64, n),
		trial:    make([]float64, n),
		trial2:   make([]float64, n),
	}
	for i := range sp.points {
		p := make([]float64, n)
		copy(p, x0)
		if i > 0 {
			p[i-1] += step[i-1]
		}
		sp.points[i] = p
		sp.values[i] = sp.eval(p)
	}
	return sp
}

// eval calls the objective and maps NaN to +Inf so it always ranks worst.
func (sp *simplex) eval(x []float64) float64 {
	v := sp.f(x)
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

// rank returns the indices of the lowest, highest and second highest vertex.
// Ties keep the lowest index, which keeps runs reproducible.
func (sp *simplex) rank() (lo, hi, secondHi int) {
	lo, hi = 0, 0
	for i, v := range sp.values {
		if v < sp.values[lo] {
			lo = i
		}
		if v > sp.values[hi] {
			hi = i
		}
	}
	secondHi = lo
	for i, v := range sp.values {
		if i != hi && v > sp.values[secondHi] {
			secondHi = i
		}
	}
	return lo, hi, secondHi
}

// move writes centroid(others) + coeff·(points[corner] − centroid(others))
// into dst and returns the objective there.
func (sp *simplex) move(dst []float64, corner int, coeff float64) float64 {
	n := len(sp.centroid)
	for j := range sp.centroid {
		sp.centroid[j] = 0
	}
	for i, p := range sp.points {
		if i != corner {
			floats.Add(sp.centroid, p)
		}
	}
	floats.Scale(1/float64(n), sp.centroid)

	floats.SubTo(dst, sp.points[corner], sp.centroid)
	floats.Scale(coeff, dst)
	floats.Add(dst, sp.centroid)
	return sp.eval(dst)
}

func (sp *simplex) replace(i int, x []float64, v float64) {
	copy(sp.points[i], x)
	sp.values[i] = v
}

// iterate performs one reflect/expand/contract/shrink update. It returns
// false when a shrink leaves no finite vertex values.
func (sp *simplex) iterate() bool {
	lo, hi, secondHi := sp.rank()

	reflected := sp.move(sp.trial, hi, reflectCoeff)
	switch {
	case !math.IsInf(reflected, 0) && reflected < sp.values[lo]:
		expanded := sp.move(sp.trial2, hi, expandCoeff)
		if !math.IsInf(expanded, 0) && expanded < reflected {
			sp.replace(hi, sp.trial2, expanded)
		} else {
			sp.replace(hi, sp.trial, reflected)
		}
	case math.IsInf(reflected, 0) || reflected > sp.values[secondHi]:
		// The contraction is judged against the worst value before
		// any reflection was accepted.
		worst := sp.values[hi]
		if !math.IsInf(reflected, 0) && reflected <= worst {
			sp.replace(hi, sp.trial, reflected)
		}
		contracted := sp.move(sp.trial2, hi, contractCoeff)
		if !math.IsInf(contracted, 0) && contracted <= worst {
			sp.replace(hi, sp.trial2, contracted)
		} else {
			return sp.shrink(lo)
		}
	default:
		sp.replace(hi, sp.trial, reflected)
	}
	return true
}

// shrink pulls every vertex halfway toward the best one.
func (sp *simplex) shrink(best int) bool {
	anyFinite := !math.IsInf(sp.values[best], 0)
	for i, p := range sp.points {
		if i == best {
			continue
		}
		floats.Add(p, sp.points[best])
		floats.Scale(0.5, p)
		sp.values[i] = sp.eval(p)
		if !math.IsInf(sp.values[i], 0) {
			anyFinite = true
		}
	}
	return anyFinite
}

// size is the RMS distance of the vertices from their centroid.
func (sp *simplex) size() float64 {
	n := len(sp.centroid)
	for j := range sp.centroid {
		sp.centroid[j] = 0
	}
	for _, p := range sp.points {
		floats.Add(sp.centroid, p)
	}
	floats.Scale(1/float64(n+1), sp.centroid)

	var ss float64
	for _, p := range sp.points {
		d := floats.Distance(p, sp.centroid, 2)
		ss += d * d
	}
	return math.Sqrt(ss / float64(n+1))
}

func (sp *simplex) fill(res *Result) {
	lo, _, _ := sp.rank()
	res.X = append([]float64(nil), sp.points[lo]...)
	res.F = sp.values[lo]
	res.Size = sp.size()
}
