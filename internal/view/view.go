// Package view holds the normalized-coordinate to complex-plane mapping
// shared by glitch clustering, multi-reference partitioning, and the GPU
// kernel's own pixel mapping. Keeping the mapping in one place guarantees a
// reference center proposed for a screen region actually lands inside that
// region on the plane.
package view

import "github.com/gogpu/deepzoom/dd"

// Plane maps a normalized screen coordinate (nx, ny in [0,1], origin
// top-left) to a complex-plane point for a view described by its center,
// vertical scale, and width/height aspect ratio. The horizontal extent is
// scale·aspect, the vertical extent is scale.
func Plane(center complex128, scale, aspect, nx, ny float64) complex128 {
	re := real(center) + (nx-0.5)*scale*aspect
	im := imag(center) + (ny-0.5)*scale
	return complex(re, im)
}

// PlaneDD is Plane at double-double precision. The normalized offset is a
// small exact float64; only the addition to the center must run in
// double-double, where float64 addition would cancel the offset entirely
// at deep scales.
func PlaneDD(center dd.Complex, scale, aspect, nx, ny float64) dd.Complex {
	return dd.Complex{
		Re: center.Re.AddFloat((nx - 0.5) * scale * aspect),
		Im: center.Im.AddFloat((ny - 0.5) * scale),
	}
}

// Normalized maps a pixel coordinate to normalized [0,1] space, sampling
// the pixel center.
func Normalized(x, y, width, height int) (nx, ny float64) {
	nx = (float64(x) + 0.5) / float64(width)
	ny = (float64(y) + 0.5) / float64(height)
	return nx, ny
}

// NormalizedPoint maps a fractional pixel coordinate (such as a cluster
// centroid) to normalized [0,1] space. The half-pixel shift matches
// Normalized: integer coordinate x corresponds to the pixel's center.
func NormalizedPoint(x, y float64, width, height int) (nx, ny float64) {
	nx = (x + 0.5) / float64(width)
	ny = (y + 0.5) / float64(height)
	return nx, ny
}

// DiagonalSquared returns the squared screen diagonal in plane units for
// the given scale and aspect: the largest |δc|² any pixel can have from
// the view center is a quarter of this, but series-validity bounds use the
// full diagonal as a conservative envelope.
func DiagonalSquared(scale, aspect float64) float64 {
	w := scale * aspect
	h := scale
	return w*w + h*h
}
