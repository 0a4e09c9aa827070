package orbit

import (
	"math/cmplx"
	"testing"
)

func TestSeriesRecurrence(t *testing.T) {
	// A_0 = 1, B_0 = 0, A_1 = 2·z_0·A_0 + 1 = 1 (z_0 = 0),
	// B_1 = 2·z_0·B_0 + A_0² = 1.
	ref := Compute(complex(0.25, 0), 5)
	s := ComputeSeries(ref, 1e-20)

	if len(s.A) != ref.Len() || len(s.B) != ref.Len() {
		t.Fatalf("coefficient lengths %d/%d, want %d", len(s.A), len(s.B), ref.Len())
	}
	if s.A[0] != 1 || s.B[0] != 0 {
		t.Errorf("A_0, B_0 = %v, %v, want 1, 0", s.A[0], s.B[0])
	}
	if s.A[1] != 1 || s.B[1] != 1 {
		t.Errorf("A_1, B_1 = %v, %v, want 1, 1", s.A[1], s.B[1])
	}
	// A_2 = 2·z_1·A_1 + 1 with z_1 = c = 0.25.
	if want := complex(1.5, 0); s.A[2] != want {
		t.Errorf("A_2 = %v, want %v", s.A[2], want)
	}
}

func TestSeriesValidIterationsBounds(t *testing.T) {
	tests := []struct {
		name       string
		center     complex128
		iterations int
		deltaSq    float64
	}{
		{"interior tiny delta", complex(-0.5, 0), 500, 1e-24},
		{"interior large delta", complex(-0.5, 0), 500, 1e-2},
		{"seahorse valley", complex(-0.75, 0.1), 300, 1e-12},
		{"escaping orbit", complex(0.3, 0.5), 200, 1e-10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := Compute(tt.center, tt.iterations)
			s := ComputeSeries(ref, tt.deltaSq)
			skip := s.SkipIterations()
			if skip > ref.Len() {
				t.Errorf("SkipIterations() = %d exceeds orbit length %d", skip, ref.Len())
			}
			if ref.Len() > 0 && skip < 1 {
				t.Errorf("SkipIterations() = %d, want >= 1 for non-empty orbit", skip)
			}
		})
	}
}

func TestSeriesNoBreachKeepsFullLength(t *testing.T) {
	// With a vanishingly small δc the second-order term can never reach
	// tolerance, so the series stays valid across the whole orbit.
	ref := Compute(complex(-0.5, 0), 100)
	s := ComputeSeries(ref, 0)
	if got := s.SkipIterations(); got != ref.Len() {
		t.Errorf("SkipIterations() = %d, want full orbit length %d", got, ref.Len())
	}
}

func TestSeriesBreachAtZeroClamps(t *testing.T) {
	// An enormous δc² breaches immediately. B_0 = 0 never breaches, so
	// force the earliest possible breach at index 1 onward; the clamp
	// guarantees at least a first-order skip of 1 regardless.
	ref := Compute(complex(-0.5, 0), 50)
	s := ComputeSeries(ref, 1e30)
	if got := s.SkipIterations(); got != 1 {
		t.Errorf("SkipIterations() = %d, want clamp to 1", got)
	}
}

func TestSeriesFirstBreachFreezes(t *testing.T) {
	// Manufacture an orbit whose coefficients grow then shrink: for an
	// escaping orbit |A_n| grows with |2·z_n|, so once breached it stays
	// breached in practice. The freeze is about policy, not growth: the
	// recorded value must equal the FIRST breach index even though later
	// indices would also breach.
	ref := Compute(complex(0.3, 0.5), 200)
	deltaSq := 1e-6
	s := ComputeSeries(ref, deltaSq)

	// Recompute the first breach index independently.
	a, b := complex(1, 0), complex(0, 0)
	want := ref.Len()
	for i := 0; i < ref.Len(); i++ {
		if cmplx.Abs(b)*cmplx.Abs(b)*deltaSq > seriesTolerance*cmplx.Abs(a)*cmplx.Abs(a) {
			want = i
			break
		}
		z := ref.At(i)
		a, b = 2*z*a+1, 2*z*b+a*a
	}
	if want == 0 {
		want = 1
	}
	if got := s.SkipIterations(); got != want {
		t.Errorf("SkipIterations() = %d, want first breach at %d", got, want)
	}
}

func TestSeriesDeltaAtMatchesPerturbation(t *testing.T) {
	// For a small δc, seeding from the series at iteration skip-1 must
	// agree with the directly iterated perturbation delta to within the
	// series tolerance.
	center := complex(-0.75, 0.05)
	deltaC := complex(1e-7, -1e-7)
	ref := ComputeWithSeries(center, 300, 4e-14)
	skip := ref.Series.SkipIterations()
	if skip < 2 {
		t.Skip("series froze immediately; nothing to compare")
	}

	// Direct delta recurrence: δ_{n+1} = 2·z_n·δ_n + δ_n² + δc, δ_0 = 0.
	// The coefficient at index i approximates δ_{i+1} (A_0 = 1 encodes
	// δ_1 = δc), so the seed at skip-1 corresponds to δ_skip.
	var delta complex128
	for i := 0; i < skip; i++ {
		z := ref.At(i)
		delta = 2*z*delta + delta*delta + deltaC
	}

	seeded := ref.Series.DeltaAt(skip-1, deltaC)
	diff := cmplx.Abs(seeded - delta)
	if ref := cmplx.Abs(delta); ref > 0 && diff/ref > 1e-3 {
		t.Errorf("series seed %v vs iterated delta %v (rel err %g)", seeded, delta, diff/ref)
	}
}

func TestComputeWithSeriesAttaches(t *testing.T) {
	ref := ComputeWithSeries(complex(-0.5, 0), 100, 1e-12)
	if ref.Series == nil {
		t.Fatal("Series not attached")
	}
	if len(ref.Series.A) != ref.Len() {
		t.Errorf("series length %d, want orbit length %d", len(ref.Series.A), ref.Len())
	}
}

func TestSeriesPack(t *testing.T) {
	ref := ComputeWithSeries(complex(0.25, 0), 4, 1e-12)
	a := ref.Series.PackA(nil)
	bcoef := ref.Series.PackB(nil)
	if len(a) != 2*ref.Len() || len(bcoef) != 2*ref.Len() {
		t.Fatalf("packed lengths %d/%d, want %d", len(a), len(bcoef), 2*ref.Len())
	}
	if a[0] != 1 || a[1] != 0 {
		t.Errorf("A_0 packed as (%g, %g), want (1, 0)", a[0], a[1])
	}
}
