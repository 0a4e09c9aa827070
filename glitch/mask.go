package glitch

import (
	"image"

	"golang.org/x/image/draw"
)

// Mask is a boolean per-pixel view of a glitch-flag buffer, with support
// for morphological dilation. It is a diagnostic aid for visualizing which
// screen areas lost precision, not part of the rendering hot path.
type Mask struct {
	width, height int
	bits          []bool
}

// NewMask builds a mask from a glitch-flag buffer: every nonzero flag
// becomes a set pixel.
func NewMask(flags []uint32, width, height int) *Mask {
	m := &Mask{
		width:  width,
		height: height,
		bits:   make([]bool, width*height),
	}
	for i, f := range flags {
		if f != 0 {
			m.bits[i] = true
		}
	}
	return m
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// At reports whether the pixel at (x, y) is set. Out-of-bounds coordinates
// are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// Set marks the pixel at (x, y). Out-of-bounds coordinates are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.bits[y*m.width+x] = true
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Dilate returns a new mask expanded by the given radius: every pixel
// within Euclidean distance radius of a set pixel becomes set. The
// implementation is the naïve O(w·h·radius²) neighbor walk, which is fine
// for a diagnostic path.
func (m *Mask) Dilate(radius int) *Mask {
	out := &Mask{
		width:  m.width,
		height: m.height,
		bits:   make([]bool, len(m.bits)),
	}
	if radius <= 0 {
		copy(out.bits, m.bits)
		return out
	}

	r2 := radius * radius
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if !m.bits[y*m.width+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					if dx*dx+dy*dy > r2 {
						continue
					}
					out.Set(x+dx, y+dy)
				}
			}
		}
	}
	return out
}

// Image renders the mask as an 8-bit grayscale image: set pixels are white.
func (m *Mask) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for i, b := range m.bits {
		if b {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// ScaledImage renders the mask resized to the given dimensions, for
// overlaying on a rendered frame of a different resolution. Nearest
// neighbor keeps the mask's hard edges visible.
func (m *Mask) ScaledImage(width, height int) *image.Gray {
	src := m.Image()
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
