// Package orbit computes Mandelbrot reference orbits for perturbation
// rendering.
//
// A reference orbit is the sequence z_0 = 0, z_{n+1} = z_n² + c iterated at
// one fixed center point c. Per-pixel GPU iteration then tracks only the
// small delta from this shared orbit, so the per-pixel work stays in low
// precision while the orbit carries the accuracy.
//
// Orbits come in two precision tiers: Reference iterates in float64 and
// ReferenceDD in double-double (package dd), for zoom depths beyond what
// float64 can resolve. A Series (truncated Taylor expansion of the
// perturbation delta) can be computed alongside either tier to let pixels
// skip early iterations entirely.
//
// Orbit points are stored in a structure-of-arrays layout (separate real and
// imaginary slices) so downstream packing and vectorized consumers touch
// contiguous memory.
package orbit
