package orbit

import "github.com/gogpu/deepzoom/dd"

// ReferenceDD is a double-double precision reference orbit. It is
// algorithmically identical to Reference but every iterate runs through
// package dd arithmetic, extending usable zoom depth to roughly 1e-28.
// Beyond that the double-double representation itself runs out of digits;
// behavior at deeper scales is a documented limit of this engine.
type ReferenceDD struct {
	// Center is the point c the orbit was iterated at.
	Center dd.Complex

	// Points holds the orbit values z_0..z_{n-1}, recorded before the
	// z² + c update.
	Points []dd.Complex

	// EscapeIteration is i+1 for an orbit that escaped at iteration i,
	// or maxIterations if it never escaped.
	EscapeIteration int

	// Escaped reports whether |z|² exceeded the escape threshold.
	Escaped bool
}

// ComputeDD iterates the reference orbit at double-double precision. The
// escape threshold is the same EscapeRadiusSquared as the float64 engine,
// compared in double-double.
func ComputeDD(center dd.Complex, maxIterations int) *ReferenceDD {
	checkIterationBudget(maxIterations)

	ref := &ReferenceDD{
		Center: center,
		Points: make([]dd.Complex, 0, maxIterations),
	}

	threshold := dd.FromFloat(EscapeRadiusSquared)
	var z dd.Complex
	for i := 0; i < maxIterations; i++ {
		ref.Points = append(ref.Points, z)

		if z.MagSquared().Greater(threshold) {
			ref.EscapeIteration = i + 1
			ref.Escaped = true
			return ref
		}

		z = z.Square().Add(center)
	}

	ref.EscapeIteration = maxIterations
	return ref
}

// Len returns the number of recorded orbit points.
func (r *ReferenceDD) Len() int { return len(r.Points) }

// Project converts the orbit down to float64 precision for downstream
// buffer packing. The projection keeps only the high components and is
// lossy; the double-double orbit remains the authoritative copy.
func (r *ReferenceDD) Project() *Reference {
	ref := &Reference{
		Center:          r.Center.Complex128(),
		Re:              make([]float64, len(r.Points)),
		Im:              make([]float64, len(r.Points)),
		EscapeIteration: r.EscapeIteration,
		Escaped:         r.Escaped,
	}
	for i, z := range r.Points {
		ref.Re[i] = z.Re.Hi
		ref.Im[i] = z.Im.Hi
	}
	return ref
}

// Drifted reports whether the requested center has moved beyond
// scale × DriftThreshold from the orbit's center. The comparison runs in
// double-double so that drift remains meaningful at scales where float64
// subtraction of the centers would cancel to zero.
func (r *ReferenceDD) Drifted(center dd.Complex, scale float64) bool {
	d := center.Sub(r.Center)
	limit := dd.FromFloat(scale * DriftThreshold)
	return d.MagSquared().Greater(limit.Sqr())
}
