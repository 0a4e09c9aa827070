package orbit

import (
	"fmt"

	"github.com/gogpu/deepzoom/internal/buf"
)

const (
	// EscapeRadiusSquared is the squared escape threshold. It matches the
	// GPU shader's bailout exactly so CPU and GPU agree on escape
	// iterations; smooth coloring needs this much larger than the
	// conventional radius 2.
	EscapeRadiusSquared = 65536.0

	// DriftThreshold is the fraction of the view scale the requested
	// center may drift from an orbit's center before the orbit must be
	// recomputed. Below this, gesture jitter reuses the current orbit.
	DriftThreshold = 0.1

	// MaxIterationCap bounds orbit allocations. A request beyond this is
	// a configuration error, not a workload, and fails loudly.
	MaxIterationCap = 1 << 26
)

// Reference is a float64-precision reference orbit: the center it was
// iterated at, every recorded orbit point, and how the iteration ended.
//
// A Reference is frozen once computed. Recomputing produces a new value;
// callers holding the old one keep a consistent (if stale) snapshot.
type Reference struct {
	// Center is the point c the orbit was iterated at.
	Center complex128

	// Re and Im hold the orbit points z_0..z_{n-1} in SoA layout.
	// Re[i], Im[i] is the value at iteration i, recorded before the
	// z² + c update.
	Re, Im []float64

	// EscapeIteration is i+1 for an orbit that escaped at iteration i,
	// or maxIterations if it never escaped.
	EscapeIteration int

	// Escaped reports whether |z|² exceeded EscapeRadiusSquared.
	Escaped bool

	// Series is the Taylor coefficient set computed alongside the orbit,
	// or nil if the orbit was computed without one.
	Series *Series
}

// checkIterationBudget panics on absurd iteration requests. Allocation of
// the orbit arrays is the resource boundary; a request that cannot be
// satisfied is a caller bug and must not be absorbed silently.
func checkIterationBudget(maxIterations int) {
	if maxIterations <= 0 || maxIterations > MaxIterationCap {
		panic(fmt.Sprintf("orbit: maxIterations %d out of range (0, %d]", maxIterations, MaxIterationCap))
	}
}

// Compute iterates z_{n+1} = z_n² + c at the given center, recording every
// point until escape or maxIterations.
//
// Each point is recorded before the update, so Len() points cover
// iterations 0..Len()-1. On escape at iteration i the orbit is truncated
// to i+1 points and EscapeIteration is i+1; otherwise all maxIterations
// points are retained and EscapeIteration equals maxIterations.
func Compute(center complex128, maxIterations int) *Reference {
	checkIterationBudget(maxIterations)

	ref := &Reference{
		Center: center,
		Re:     make([]float64, 0, maxIterations),
		Im:     make([]float64, 0, maxIterations),
	}

	cr, ci := real(center), imag(center)
	var zr, zi float64
	for i := 0; i < maxIterations; i++ {
		ref.Re = append(ref.Re, zr)
		ref.Im = append(ref.Im, zi)

		if zr*zr+zi*zi > EscapeRadiusSquared {
			ref.EscapeIteration = i + 1
			ref.Escaped = true
			return ref
		}

		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
	}

	ref.EscapeIteration = maxIterations
	return ref
}

// ComputeWithSeries computes the orbit and then derives series-approximation
// coefficients from the completed point sequence. screenDeltaSquared is the
// squared magnitude of the largest per-pixel offset δc the series must stay
// valid for (typically the squared screen diagonal in plane units).
func ComputeWithSeries(center complex128, maxIterations int, screenDeltaSquared float64) *Reference {
	ref := Compute(center, maxIterations)
	ref.Series = ComputeSeries(ref, screenDeltaSquared)
	return ref
}

// Len returns the number of recorded orbit points.
func (r *Reference) Len() int { return len(r.Re) }

// At returns orbit point i.
func (r *Reference) At(i int) complex128 {
	return complex(r.Re[i], r.Im[i])
}

// Drifted reports whether the requested view center has moved far enough
// from the orbit's center that the orbit must be recomputed: farther than
// scale × DriftThreshold. This check is cheap and safe to run every frame.
func (r *Reference) Drifted(center complex128, scale float64) bool {
	dr := real(center) - real(r.Center)
	di := imag(center) - imag(r.Center)
	limit := scale * DriftThreshold
	return dr*dr+di*di > limit*limit
}

// PackPoints appends the orbit points to dst as interleaved (real, imag)
// float32 pairs, the layout the GPU kernel consumes. The escape-iteration
// truncation is already reflected in the point count.
func (r *Reference) PackPoints(dst []float32) []float32 {
	return buf.AppendComplexSoA(dst, r.Re, r.Im)
}
