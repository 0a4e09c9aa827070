// Package dd implements double-double extended-precision arithmetic.
//
// A DoubleDouble represents a value as an unevaluated sum of two IEEE-754
// float64 values (hi + lo) with |lo| much smaller than |hi|, giving roughly
// 30 correct decimal digits. All operations use error-free transformations
// (two-sum, FMA-based two-product) so the rounding error of every float64
// operation is captured in the low component instead of being lost.
//
// This is the precision tier between plain float64 (~15 digits) and
// arbitrary precision. It is sufficient for Mandelbrot reference orbits
// down to scales around 1e-28.
//
// All operations are total over finite inputs. Behavior for NaN and Inf
// operands is unspecified; callers are responsible for keeping values finite.
package dd
