package dd

// Complex is a complex number whose real and imaginary parts are
// DoubleDouble values. It is the coordinate type for deep-zoom reference
// orbits beyond float64 precision.
//
// Like DoubleDouble, Complex is an immutable value type.
type Complex struct {
	Re, Im DoubleDouble
}

// ComplexFromFloats returns the Complex exactly representing re + im·i.
func ComplexFromFloats(re, im float64) Complex {
	return Complex{Re: FromFloat(re), Im: FromFloat(im)}
}

// ComplexFromComplex128 returns the Complex exactly representing c.
func ComplexFromComplex128(c complex128) Complex {
	return ComplexFromFloats(real(c), imag(c))
}

// Complex128 projects the value down to complex128, keeping only the high
// components. The projection is lossy.
func (z Complex) Complex128() complex128 {
	return complex(z.Re.Hi, z.Im.Hi)
}

// Add returns z + w.
func (z Complex) Add(w Complex) Complex {
	return Complex{Re: z.Re.Add(w.Re), Im: z.Im.Add(w.Im)}
}

// Sub returns z - w.
func (z Complex) Sub(w Complex) Complex {
	return Complex{Re: z.Re.Sub(w.Re), Im: z.Im.Sub(w.Im)}
}

// Mul returns z * w.
func (z Complex) Mul(w Complex) Complex {
	return Complex{
		Re: z.Re.Mul(w.Re).Sub(z.Im.Mul(w.Im)),
		Im: z.Re.Mul(w.Im).Add(z.Im.Mul(w.Re)),
	}
}

// Square returns z². Cheaper than Mul(z, z): the real part uses a
// difference of squares and the imaginary part a single doubled product.
func (z Complex) Square() Complex {
	return Complex{
		Re: z.Re.Sqr().Sub(z.Im.Sqr()),
		Im: z.Re.Mul(z.Im).MulFloat(2),
	}
}

// MagSquared returns |z|² = re² + im².
func (z Complex) MagSquared() DoubleDouble {
	return z.Re.Sqr().Add(z.Im.Sqr())
}

// Magnitude returns |z|, via the double-double Newton-Raphson square root.
func (z Complex) Magnitude() DoubleDouble {
	return z.MagSquared().Sqrt()
}

// Neg returns -z.
func (z Complex) Neg() Complex {
	return Complex{Re: z.Re.Neg(), Im: z.Im.Neg()}
}
