// Package multiref manages multiple reference orbits across one viewport.
//
// At extreme zoom a single reference orbit cannot keep the series
// approximation valid across the whole screen: the farthest pixels have
// too large a δc. Partitioning the screen into a grid and giving every
// cell its own reference shrinks the per-cell maximum δc, which keeps the
// series valid for more iterations and cuts glitch frequency — that is the
// entire point of multi-reference rendering.
//
// The manager owns all per-region state. Every Partition call discards the
// previous regions and orbits wholesale; nothing is reused across calls.
package multiref

import (
	"log/slog"

	"github.com/gogpu/deepzoom/dd"
	"github.com/gogpu/deepzoom/internal/view"
	"github.com/gogpu/deepzoom/orbit"
)

// DefaultGridSize is the per-axis region count used when no explicit grid
// size is configured.
const DefaultGridSize = 3

// Bounds is a normalized screen-space rectangle, origin top-left,
// [X0, X1) × [Y0, Y1).
type Bounds struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether the normalized point (nx, ny) lies inside the
// rectangle. The upper edges are exclusive except at 1.0, so a full-screen
// tiling covers the closed unit square with no point claimed twice.
func (b Bounds) Contains(nx, ny float64) bool {
	return nx >= b.X0 && ny >= b.Y0 &&
		(nx < b.X1 || (b.X1 == 1 && nx == 1)) &&
		(ny < b.Y1 || (b.Y1 == 1 && ny == 1))
}

// Region is one cell of the partition: its normalized bounds, the
// reference orbit computed at the cell's midpoint, and where that orbit's
// data landed in the combined GPU buffers.
type Region struct {
	Bounds Bounds

	// Center is the cell midpoint on the plane. At double-double depth
	// it is the lossy projection of CenterDD; Delta carries the exact
	// offset in that case.
	Center complex128

	// Delta is the cell center's offset from the view center the
	// partition was built for. It is computed in the partition's native
	// precision, so it stays exact even where Center and the view center
	// collapse to the same float64 value.
	Delta complex128

	// Orbit is the float64 orbit used for buffer packing. At
	// double-double depth it is the projection of OrbitDD.
	Orbit *orbit.Reference

	// CenterDD and OrbitDD are the authoritative double-double copies,
	// set only by PartitionDD.
	CenterDD dd.Complex
	OrbitDD  *orbit.ReferenceDD

	// Offset and Length locate this region's points in the combined
	// orbit buffer, counted in points (not floats).
	Offset, Length int

	// SkipIterations is the region's series skip count.
	SkipIterations int
}

// Manager partitions the viewport into an N×N grid and maintains one
// reference orbit (with series) per cell, plus the combined packed buffers
// the GPU kernel indexes by region.
type Manager struct {
	gridSize int
	logger   *slog.Logger

	regions []Region

	// Combined buffers: interleaved float32 pairs across all regions, in
	// region order.
	orbitData   []float32
	seriesAData []float32
	seriesBData []float32
}

// NewManager returns a manager with the given per-axis grid size; zero or
// negative means DefaultGridSize. The logger may be nil for silence.
func NewManager(gridSize int, logger *slog.Logger) *Manager {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{gridSize: gridSize, logger: logger}
}

// GridSize returns the per-axis region count.
func (m *Manager) GridSize() int { return m.gridSize }

// Partition rebuilds all regions for the given view. Prior regions,
// orbits, and combined buffers are discarded. For each grid cell the
// reference orbit is computed at the cell midpoint, and the series
// validity bound uses the per-cell diagonal (total screen diagonal² / N²)
// rather than the full-screen diagonal — the smaller bound is what lets
// the series stay valid longer than a single global reference could.
func (m *Manager) Partition(viewCenter complex128, scale, aspect float64, maxIterations int) []Region {
	m.reset()
	cellDeltaSq := m.cellDeltaSquared(scale, aspect)

	for _, b := range m.cellBounds() {
		center := view.Plane(viewCenter, scale, aspect, b.midX(), b.midY())
		ref := orbit.ComputeWithSeries(center, maxIterations, cellDeltaSq)
		m.appendRegion(Region{
			Bounds: b,
			Center: center,
			Delta:  center - viewCenter,
			Orbit:  ref,
		})
	}

	m.logPartition(cellDeltaSq, "double")
	return m.regions
}

// PartitionDD is Partition at double-double precision: cell centers are
// derived from the view center in double-double so adjacent cells stay
// distinct at scales where float64 midpoint math cancels, and every cell
// orbit is iterated with orbit.ComputeDD. The packed buffers hold the
// float64 projections; each region keeps the authoritative double-double
// center and orbit.
func (m *Manager) PartitionDD(viewCenter dd.Complex, scale, aspect float64, maxIterations int) []Region {
	m.reset()
	cellDeltaSq := m.cellDeltaSquared(scale, aspect)

	for _, b := range m.cellBounds() {
		centerDD := view.PlaneDD(viewCenter, scale, aspect, b.midX(), b.midY())
		refDD := orbit.ComputeDD(centerDD, maxIterations)
		ref := refDD.Project()
		ref.Series = orbit.ComputeSeries(ref, cellDeltaSq)
		m.appendRegion(Region{
			Bounds:   b,
			Center:   centerDD.Complex128(),
			Delta:    centerDD.Sub(viewCenter).Complex128(),
			Orbit:    ref,
			CenterDD: centerDD,
			OrbitDD:  refDD,
		})
	}

	m.logPartition(cellDeltaSq, "double-double")
	return m.regions
}

// reset discards all prior regions and combined buffers.
func (m *Manager) reset() {
	m.regions = make([]Region, 0, m.gridSize*m.gridSize)
	m.orbitData = m.orbitData[:0]
	m.seriesAData = m.seriesAData[:0]
	m.seriesBData = m.seriesBData[:0]
}

// cellDeltaSquared is the per-cell series validity bound: the full screen
// diagonal squared shrunk by the grid area.
func (m *Manager) cellDeltaSquared(scale, aspect float64) float64 {
	return view.DiagonalSquared(scale, aspect) / float64(m.gridSize*m.gridSize)
}

// cellBounds enumerates the grid cells in row-major order.
func (m *Manager) cellBounds() []Bounds {
	n := m.gridSize
	step := 1.0 / float64(n)
	bounds := make([]Bounds, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			bounds = append(bounds, Bounds{
				X0: float64(col) * step,
				Y0: float64(row) * step,
				X1: float64(col+1) * step,
				Y1: float64(row+1) * step,
			})
		}
	}
	return bounds
}

func (b Bounds) midX() float64 { return (b.X0 + b.X1) / 2 }
func (b Bounds) midY() float64 { return (b.Y0 + b.Y1) / 2 }

// appendRegion packs the region's orbit into the combined buffers and
// fills in its offset bookkeeping.
func (m *Manager) appendRegion(region Region) {
	offset := 0
	if len(m.regions) > 0 {
		prev := &m.regions[len(m.regions)-1]
		offset = prev.Offset + prev.Length
	}
	region.Offset = offset
	region.Length = region.Orbit.Len()
	region.SkipIterations = region.Orbit.Series.SkipIterations()

	m.orbitData = region.Orbit.PackPoints(m.orbitData)
	m.seriesAData = region.Orbit.Series.PackA(m.seriesAData)
	m.seriesBData = region.Orbit.Series.PackB(m.seriesBData)
	m.regions = append(m.regions, region)
}

func (m *Manager) logPartition(cellDeltaSq float64, precision string) {
	points := 0
	if len(m.regions) > 0 {
		last := &m.regions[len(m.regions)-1]
		points = last.Offset + last.Length
	}
	m.logger.Debug("multiref: partitioned viewport",
		"grid", m.gridSize,
		"regions", len(m.regions),
		"points", points,
		"precision", precision,
		"cellDeltaSq", cellDeltaSq)
}

// Regions returns the current partition. The slice is owned by the manager
// and valid until the next Partition call.
func (m *Manager) Regions() []Region { return m.regions }

// RegionIndex returns the index of the region containing the normalized
// point, or -1 if no partition exists. Linear scan: the region count is
// N² with small N, so anything cleverer would not pay for itself.
func (m *Manager) RegionIndex(nx, ny float64) int {
	for i := range m.regions {
		if m.regions[i].Bounds.Contains(nx, ny) {
			return i
		}
	}
	return -1
}

// OrbitData returns the combined orbit-point buffer: interleaved (real,
// imag) float32 pairs across all regions, indexed by each region's Offset
// and Length.
func (m *Manager) OrbitData() []float32 { return m.orbitData }

// SeriesAData returns the combined first-order coefficient buffer.
func (m *Manager) SeriesAData() []float32 { return m.seriesAData }

// SeriesBData returns the combined second-order coefficient buffer.
func (m *Manager) SeriesBData() []float32 { return m.seriesBData }
