// Package buf implements the packing conventions shared with the GPU
// kernels: complex values as interleaved float32 (real, imag) pairs, and
// float64 view parameters split into (hi, lo) float32 pairs that
// reconstruct the original value to roughly 48 bits across the precision
// boundary.
package buf

// AppendComplex appends z as a (real, imag) float32 pair.
func AppendComplex(dst []float32, z complex128) []float32 {
	return append(dst, float32(real(z)), float32(imag(z)))
}

// AppendComplexes appends every element of zs as interleaved (real, imag)
// float32 pairs.
func AppendComplexes(dst []float32, zs []complex128) []float32 {
	for _, z := range zs {
		dst = append(dst, float32(real(z)), float32(imag(z)))
	}
	return dst
}

// AppendComplexSoA appends points given as separate real and imaginary
// slices, interleaving them into (real, imag) float32 pairs. The slices
// must have equal length.
func AppendComplexSoA(dst []float32, re, im []float64) []float32 {
	for i := range re {
		dst = append(dst, float32(re[i]), float32(im[i]))
	}
	return dst
}

// SplitDouble encodes a float64 as a double-float (hi, lo) pair: hi is the
// nearest float32 and lo the float32 remainder. hi + lo reconstructs v to
// float-pair precision. This is how double-precision view parameters cross
// into GPU-visible uniform data without losing the deep-zoom digits.
func SplitDouble(v float64) (hi, lo float32) {
	hi = float32(v)
	lo = float32(v - float64(hi))
	return hi, lo
}

// AppendSplitDouble appends the double-float encoding of v.
func AppendSplitDouble(dst []float32, v float64) []float32 {
	hi, lo := SplitDouble(v)
	return append(dst, hi, lo)
}

// AppendSplitComplex appends the double-float encodings of the real and
// imaginary parts of z, in that order: (reHi, reLo, imHi, imLo).
func AppendSplitComplex(dst []float32, z complex128) []float32 {
	dst = AppendSplitDouble(dst, real(z))
	return AppendSplitDouble(dst, imag(z))
}
