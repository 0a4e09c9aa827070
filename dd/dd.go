package dd

import "math"

// DoubleDouble is an extended-precision value stored as the unevaluated sum
// Hi + Lo of two float64 components. The invariant |Lo| <= ulp(Hi)/2 is
// maintained by renormalizing after every operation.
//
// DoubleDouble is an immutable value type: operations return new values and
// never modify their receiver.
type DoubleDouble struct {
	Hi, Lo float64
}

// FromFloat returns the DoubleDouble exactly representing x.
func FromFloat(x float64) DoubleDouble {
	return DoubleDouble{Hi: x}
}

// New returns the DoubleDouble hi + lo. The components are renormalized, so
// callers may pass any pair whose sum is the intended value.
func New(hi, lo float64) DoubleDouble {
	s, e := quickTwoSum(hi, lo)
	return DoubleDouble{Hi: s, Lo: e}
}

// Float64 returns the closest float64 to the value, which is simply the
// high component.
func (a DoubleDouble) Float64() float64 { return a.Hi }

// twoSum computes s and e such that s = fl(a+b) and a+b = s+e exactly.
// This is the branch-free Knuth two-sum; it is valid for any ordering of
// the operand magnitudes.
func twoSum(a, b float64) (s, e float64) {
	s = a + b
	v := s - a
	e = (a - (s - v)) + (b - v)
	return s, e
}

// quickTwoSum is the Dekker fast two-sum. It requires |a| >= |b| (or a == 0)
// and is used for renormalization where that ordering is guaranteed.
func quickTwoSum(a, b float64) (s, e float64) {
	s = a + b
	e = b - (s - a)
	return s, e
}

// twoProd computes p and e such that p = fl(a*b) and a*b = p+e exactly.
// The error term falls out of a single fused multiply-add.
func twoProd(a, b float64) (p, e float64) {
	p = a * b
	e = math.FMA(a, b, -p)
	return p, e
}

// Add returns a + b.
func (a DoubleDouble) Add(b DoubleDouble) DoubleDouble {
	s1, e1 := twoSum(a.Hi, b.Hi)
	s2, e2 := twoSum(a.Lo, b.Lo)
	e1 += s2
	s1, e1 = quickTwoSum(s1, e1)
	e1 += e2
	s1, e1 = quickTwoSum(s1, e1)
	return DoubleDouble{Hi: s1, Lo: e1}
}

// AddFloat returns a + b for a float64 addend.
func (a DoubleDouble) AddFloat(b float64) DoubleDouble {
	s, e := twoSum(a.Hi, b)
	e += a.Lo
	s, e = quickTwoSum(s, e)
	return DoubleDouble{Hi: s, Lo: e}
}

// Sub returns a - b.
func (a DoubleDouble) Sub(b DoubleDouble) DoubleDouble {
	return a.Add(b.Neg())
}

// Neg returns -a.
func (a DoubleDouble) Neg() DoubleDouble {
	return DoubleDouble{Hi: -a.Hi, Lo: -a.Lo}
}

// Mul returns a * b. The product of the high components is computed exactly
// via twoProd; the cross terms a.Hi*b.Lo and a.Lo*b.Hi are folded into the
// error term before renormalization. The a.Lo*b.Lo term is below the target
// precision and is dropped.
func (a DoubleDouble) Mul(b DoubleDouble) DoubleDouble {
	p, e := twoProd(a.Hi, b.Hi)
	e += a.Hi*b.Lo + a.Lo*b.Hi
	p, e = quickTwoSum(p, e)
	return DoubleDouble{Hi: p, Lo: e}
}

// MulFloat returns a * b for a float64 factor.
func (a DoubleDouble) MulFloat(b float64) DoubleDouble {
	p, e := twoProd(a.Hi, b)
	e += a.Lo * b
	p, e = quickTwoSum(p, e)
	return DoubleDouble{Hi: p, Lo: e}
}

// Div returns a / b. The quotient is seeded by the float64 division
// a.Hi/b.Hi and corrected by a single Newton-Raphson step using the exact
// residual a - b*q. One step is enough to reach full double-double accuracy
// for well-scaled operands; this is the documented precision ceiling.
func (a DoubleDouble) Div(b DoubleDouble) DoubleDouble {
	q1 := a.Hi / b.Hi
	r := a.Sub(b.MulFloat(q1))
	q2 := r.Hi / b.Hi
	s, e := quickTwoSum(q1, q2)
	return DoubleDouble{Hi: s, Lo: e}
}

// Sqr returns a * a. Slightly cheaper than Mul because the cross terms
// coincide.
func (a DoubleDouble) Sqr() DoubleDouble {
	p, e := twoProd(a.Hi, a.Hi)
	e += 2 * a.Hi * a.Lo
	p, e = quickTwoSum(p, e)
	return DoubleDouble{Hi: p, Lo: e}
}

// Sqrt returns the square root of a, computed by Newton-Raphson iteration
// on x_{k+1} = (x_k + a/x_k)/2, seeded with the float64 square root of the
// high component and refined twice in double-double arithmetic.
//
// Sqrt of a negative value is unspecified, like the rest of the package's
// non-finite behavior. Sqrt(0) returns 0.
func (a DoubleDouble) Sqrt() DoubleDouble {
	if a.Hi == 0 && a.Lo == 0 {
		return DoubleDouble{}
	}
	x := FromFloat(math.Sqrt(a.Hi))
	x = x.Add(a.Div(x)).MulFloat(0.5)
	x = x.Add(a.Div(x)).MulFloat(0.5)
	return x
}

// Abs returns the absolute value of a.
func (a DoubleDouble) Abs() DoubleDouble {
	if a.Hi < 0 || (a.Hi == 0 && a.Lo < 0) {
		return a.Neg()
	}
	return a
}

// Cmp compares a and b, returning -1 if a < b, 0 if a == b, +1 if a > b.
func (a DoubleDouble) Cmp(b DoubleDouble) int {
	switch {
	case a.Hi < b.Hi:
		return -1
	case a.Hi > b.Hi:
		return 1
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	}
	return 0
}

// Less reports whether a < b.
func (a DoubleDouble) Less(b DoubleDouble) bool { return a.Cmp(b) < 0 }

// Greater reports whether a > b.
func (a DoubleDouble) Greater(b DoubleDouble) bool { return a.Cmp(b) > 0 }

// Eq reports whether a == b component-wise.
func (a DoubleDouble) Eq(b DoubleDouble) bool { return a.Hi == b.Hi && a.Lo == b.Lo }

// IsZero reports whether the value is exactly zero.
func (a DoubleDouble) IsZero() bool { return a.Hi == 0 && a.Lo == 0 }
