package orbit

import "github.com/gogpu/deepzoom/internal/buf"

// seriesTolerance is the fraction of the first-order term the second-order
// term may reach before the series approximation is declared invalid at
// that iteration.
const seriesTolerance = 1e-6

// Series holds the Taylor coefficients of the perturbation delta in powers
// of δc, computed alongside a reference orbit:
//
//	δ_n ≈ A_n·δc + B_n·δc²
//
// With a valid series, a pixel seeds its delta from the coefficients at
// iteration skip-1 and enters the perturbation loop at iteration skip,
// bypassing the skipped iterations entirely.
//
// A and B always have the same length as the orbit they were derived from.
type Series struct {
	// A and B are the first- and second-order coefficient sequences.
	A, B []complex128

	// validIterations is the largest iteration count for which the
	// truncated series stays within tolerance, frozen at the first
	// breach. See ComputeSeries.
	validIterations int
}

// ComputeSeries derives series coefficients from a completed orbit.
// maxDeltaSquared is the squared magnitude of the largest δc the series
// must cover (the screen diagonal squared, in plane units).
//
// Recurrence: A_0 = 1, B_0 = 0, then
//
//	A_{n+1} = 2·z_n·A_n + 1
//	B_{n+1} = 2·z_n·B_n + A_n²
//
// Validity is checked before each advance: the first iteration where
// |B|²·maxDeltaSquared exceeds tolerance·|A|² freezes validIterations at
// that index. The freeze is deliberate first-breach behavior — if the bound
// would recover at higher iterations, that recovery is ignored. A breach at
// index 0 clamps validIterations to min(1, orbit length) so callers always
// have at least a first-order seed to apply.
func ComputeSeries(ref *Reference, maxDeltaSquared float64) *Series {
	n := ref.Len()
	s := &Series{
		A:               make([]complex128, 0, n),
		B:               make([]complex128, 0, n),
		validIterations: n,
	}
	if n == 0 {
		s.validIterations = 0
		return s
	}

	a := complex(1, 0)
	b := complex(0, 0)
	frozen := false

	for i := 0; i < n; i++ {
		s.A = append(s.A, a)
		s.B = append(s.B, b)

		if !frozen {
			magA2 := real(a)*real(a) + imag(a)*imag(a)
			magB2 := real(b)*real(b) + imag(b)*imag(b)
			if magB2*maxDeltaSquared > seriesTolerance*magA2 {
				s.validIterations = i
				frozen = true
			}
		}

		z := ref.At(i)
		a, b = 2*z*a+1, 2*z*b+a*a
	}

	if s.validIterations == 0 {
		s.validIterations = min(1, n)
	}
	return s
}

// SkipIterations returns how many iterations a pixel may skip using the
// series: the perturbation loop starts at this index, seeded from the
// coefficients at index SkipIterations-1. Always at least 1 for a non-empty
// orbit, and never more than the orbit length.
func (s *Series) SkipIterations() int { return s.validIterations }

// DeltaAt evaluates the series at iteration i for the pixel offset deltaC:
// A[i]·δc + B[i]·δc². This is the CPU-side reference for what the GPU
// kernel computes when seeding a skipped pixel.
func (s *Series) DeltaAt(i int, deltaC complex128) complex128 {
	return s.A[i]*deltaC + s.B[i]*deltaC*deltaC
}

// PackA appends the A coefficients to dst as interleaved (real, imag)
// float32 pairs.
func (s *Series) PackA(dst []float32) []float32 {
	return buf.AppendComplexes(dst, s.A)
}

// PackB appends the B coefficients to dst as interleaved (real, imag)
// float32 pairs.
func (s *Series) PackB(dst []float32) []float32 {
	return buf.AppendComplexes(dst, s.B)
}
