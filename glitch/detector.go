package glitch

import (
	"sort"

	"github.com/gogpu/deepzoom/internal/view"
)

const (
	// gridSize is the clustering grid: the screen is partitioned into
	// gridSize × gridSize cells regardless of resolution.
	gridSize = 4

	// MinClusterSize is the number of glitched pixels a cell needs to
	// become a cluster candidate. Smaller blobs are noise; re-referencing
	// for them costs more than the pixels are worth.
	MinClusterSize = 16

	// MaxNewReferences caps how many replacement centers one analysis
	// pass may propose.
	MaxNewReferences = 4
)

// Pixel is a single glitched pixel: its screen coordinate and the orbit
// iteration at which the perturbation delta first exceeded tolerance.
type Pixel struct {
	X, Y      int
	Iteration uint32
}

// Cluster is a group of glitched pixels sharing one grid cell, with its
// pixel-space centroid and the reference center assigned to it (set during
// selection).
type Cluster struct {
	Pixels    []Pixel
	CentroidX float64
	CentroidY float64
	Center    complex128
}

// Count returns the number of pixels in the cluster.
func (c *Cluster) Count() int { return len(c.Pixels) }

// AnalyzeAndSelectReferences clusters the glitch-flag buffer and returns up
// to MaxNewReferences complex-plane points to compute replacement reference
// orbits at. flags holds one uint32 per pixel in row-major order: the
// iteration at which the pixel glitched, or zero for a clean pixel.
//
// A buffer with no glitches returns nil without doing any clustering work;
// that is the common case and the fast path.
func AnalyzeAndSelectReferences(flags []uint32, viewCenter complex128, scale float64, width, height int) []complex128 {
	if !anyGlitched(flags) {
		return nil
	}

	clusters := clusterFlags(flags, width, height)
	if len(clusters) == 0 {
		return nil
	}

	// Largest clusters first; they cover the most broken pixels.
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Count() > clusters[j].Count()
	})
	if len(clusters) > MaxNewReferences {
		clusters = clusters[:MaxNewReferences]
	}

	aspect := float64(width) / float64(height)
	centers := make([]complex128, len(clusters))
	for i := range clusters {
		// The centroid keeps its sub-pixel position through the mapping.
		nx, ny := view.NormalizedPoint(clusters[i].CentroidX, clusters[i].CentroidY, width, height)
		clusters[i].Center = view.Plane(viewCenter, scale, aspect, nx, ny)
		centers[i] = clusters[i].Center
	}
	return centers
}

// anyGlitched scans for a nonzero flag. Early exit keeps the clean-frame
// cost at a single pass over the buffer.
func anyGlitched(flags []uint32) bool {
	for _, f := range flags {
		if f != 0 {
			return true
		}
	}
	return false
}

// clusterFlags buckets glitched pixels into the fixed grid and keeps cells
// with at least MinClusterSize pixels.
func clusterFlags(flags []uint32, width, height int) []Cluster {
	var cells [gridSize * gridSize]Cluster

	for y := 0; y < height; y++ {
		row := flags[y*width : (y+1)*width]
		cy := y * gridSize / height
		for x, f := range row {
			if f == 0 {
				continue
			}
			cx := x * gridSize / width
			cell := &cells[cy*gridSize+cx]
			cell.Pixels = append(cell.Pixels, Pixel{X: x, Y: y, Iteration: f})
		}
	}

	var clusters []Cluster
	for i := range cells {
		if cells[i].Count() < MinClusterSize {
			continue
		}
		var sx, sy float64
		for _, p := range cells[i].Pixels {
			sx += float64(p.X)
			sy += float64(p.Y)
		}
		n := float64(cells[i].Count())
		cells[i].CentroidX = sx / n
		cells[i].CentroidY = sy / n
		clusters = append(clusters, cells[i])
	}
	return clusters
}
