package dd

import (
	"math"
	"testing"
)

func TestComplexRoundTrip(t *testing.T) {
	z := ComplexFromComplex128(complex(-0.75, 0.1))
	if got := z.Complex128(); got != complex(-0.75, 0.1) {
		t.Errorf("Complex128() = %v, want (-0.75+0.1i)", got)
	}
}

func TestComplexSquare(t *testing.T) {
	tests := []struct {
		name string
		z    complex128
	}{
		{"real axis", complex(2, 0)},
		{"imag axis", complex(0, 3)},
		{"mixed", complex(1.5, -0.5)},
		{"near cardioid", complex(-0.75, 0.01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := ComplexFromComplex128(tt.z)
			got := z.Square().Complex128()
			want := tt.z * tt.z
			if math.Abs(real(got)-real(want)) > 1e-15*math.Abs(real(want))+1e-18 ||
				math.Abs(imag(got)-imag(want)) > 1e-15*math.Abs(imag(want))+1e-18 {
				t.Errorf("Square() = %v, want %v", got, want)
			}
			mul := z.Mul(z).Complex128()
			if mul != got {
				t.Errorf("Mul(z,z) = %v disagrees with Square() = %v", mul, got)
			}
		})
	}
}

func TestComplexMagSquared(t *testing.T) {
	z := ComplexFromFloats(3, 4)
	if got := z.MagSquared(); got.Hi != 25 || got.Lo != 0 {
		t.Errorf("MagSquared() = %+v, want exactly 25", got)
	}
	if got := z.Magnitude(); got.Hi != 5 {
		t.Errorf("Magnitude() = %+v, want 5", got)
	}
}

func TestComplexSquarePrecision(t *testing.T) {
	// Squaring a point whose components straddle the float64 precision
	// boundary must keep the sub-ulp parts alive in the low components.
	z := Complex{
		Re: FromFloat(-1.5).AddFloat(1e-18),
		Im: FromFloat(1e-9),
	}
	sq := z.Square()
	// Re(z²) = re² - im² = 2.25 - 3e-18 - 1e-18 (to first order).
	// A plain complex128 square would collapse the 1e-18 terms.
	want := FromFloat(-1.5).AddFloat(1e-18).Sqr().Sub(FromFloat(1e-9).Sqr())
	if !sq.Re.Eq(want) {
		t.Errorf("Re(z²) = %+v, want %+v", sq.Re, want)
	}
	if sq.Re.Lo == 0 {
		t.Error("low component of Re(z²) is zero; extended precision lost")
	}
}

func TestComplexAddSub(t *testing.T) {
	a := ComplexFromFloats(1, 2)
	b := ComplexFromFloats(-0.5, 0.25)
	sum := a.Add(b)
	if got := sum.Complex128(); got != complex(0.5, 2.25) {
		t.Errorf("Add = %v, want (0.5+2.25i)", got)
	}
	if got := sum.Sub(b); got.Complex128() != a.Complex128() {
		t.Errorf("Sub did not invert Add: %v", got.Complex128())
	}
}

func BenchmarkComplexSquare(b *testing.B) {
	z := ComplexFromComplex128(complex(-0.7436438870371587, 0.13182590420531197))
	var r Complex
	for i := 0; i < b.N; i++ {
		r = z.Square()
	}
	_ = r
}
