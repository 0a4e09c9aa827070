// Package glitch analyzes per-pixel numerical-instability flags produced by
// the GPU perturbation pass and proposes replacement reference centers.
//
// A glitch is a pixel whose perturbation delta grew too large relative to
// the reference orbit magnitude, invalidating the low-precision
// approximation. The GPU writes the iteration at which that happened (or
// zero) into a flag buffer; this package clusters the flagged pixels on a
// fixed grid, ranks the clusters by size, and maps each surviving cluster's
// centroid back to the complex plane as a candidate reference center for
// the next frame.
//
// Clusters are transient: every analysis pass recomputes them from scratch
// and nothing is persisted between frames.
package glitch
