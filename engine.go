package deepzoom

import (
	"log/slog"

	"github.com/gogpu/deepzoom/dd"
	"github.com/gogpu/deepzoom/glitch"
	"github.com/gogpu/deepzoom/internal/buf"
	"github.com/gogpu/deepzoom/internal/view"
	"github.com/gogpu/deepzoom/multiref"
	"github.com/gogpu/deepzoom/orbit"
)

// Engine coordinates reference orbits, series coefficients, glitch-driven
// re-referencing, and multi-reference partitioning across frames.
//
// Engine is NOT safe for concurrent use. The whole numerical core is a
// single-threaded, call-and-return design: orbit computation runs on the
// caller's thread with no internal parallelism, and all state is mutated
// only by the engine's own methods. Each recompute produces new immutable
// snapshots; a FrameState handed out earlier stays internally consistent
// even after later frames replace the engine's current orbit.
type Engine struct {
	thresholds    Thresholds
	maxIterations int
	width, height int
	logger        *slog.Logger

	mode    Mode
	hasMode bool

	// Current single-reference snapshots. ref is always populated in
	// perturbation mode; refDD additionally when the precision tier is
	// double-double (ref is then its lossy projection).
	ref   *orbit.Reference
	refDD *orbit.ReferenceDD

	multi *multiref.Manager

	// Glitch re-referencing: centers proposed by the last analysis, and
	// the auxiliary orbits computed for them.
	pendingCenters []complex128
	auxRefs        []*orbit.Reference

	lastCenter complex128
	lastScale  float64
}

// FrameState is the per-frame snapshot handed to the rendering layer. All
// referenced data is immutable; the engine never mutates a snapshot after
// returning it.
type FrameState struct {
	// Center and Scale echo the frame request.
	Center complex128
	Scale  float64

	// Mode is the selected rendering/precision decision.
	Mode Mode

	// MaxIterations is the engine's per-orbit iteration budget, echoed
	// so the rendering layer can bound its kernel loop identically.
	MaxIterations int

	// Recomputed reports whether this frame recomputed any orbit. False
	// means the state reuses earlier (possibly stale) snapshots, which
	// is the expected low-quality gesture path.
	Recomputed bool

	// Reference is the float64-precision orbit for single-reference
	// perturbation (the projection when the tier is double-double). Nil
	// in standard mode and in multi-reference mode.
	Reference *orbit.Reference

	// ReferenceDD is the double-double orbit when the precision tier
	// requires it, for callers that need the full-precision center.
	ReferenceDD *orbit.ReferenceDD

	// Regions is the multi-reference partition, when enabled.
	Regions []multiref.Region

	// AuxReferences are replacement orbits computed for glitch clusters
	// reported since the previous frame.
	AuxReferences []*orbit.Reference
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = Logger()
	}
	return &Engine{
		thresholds:    o.thresholds,
		maxIterations: o.maxIterations,
		width:         o.width,
		height:        o.height,
		logger:        logger,
		multi:         multiref.NewManager(o.gridSize, logger),
	}
}

// Mode returns the decision made for the most recent frame. Before the
// first frame it returns the zero Mode (standard rendering).
func (e *Engine) Mode() Mode { return e.mode }

// Aspect returns the viewport width/height ratio.
func (e *Engine) Aspect() float64 {
	return float64(e.width) / float64(e.height)
}

// Frame runs the per-frame decision and (re)computation pipeline for a
// view request. lowQuality is the gesture hint: when true the engine skips
// all recomputation and reuses the previous snapshots even though the view
// has drifted — perturbation against a stale orbit stays mathematically
// valid as an approximation, only glitch frequency rises. The one
// exception is a cold start in perturbation mode with no orbit at all,
// which computes regardless.
//
// A new recompute fully supersedes prior state: there is no partial-result
// merging between frames.
func (e *Engine) Frame(center complex128, scale float64, lowQuality bool) FrameState {
	mode := e.thresholds.Select(scale)
	modeChanged := !e.hasMode || mode != e.mode
	e.mode = mode
	e.hasMode = true

	state := FrameState{Center: center, Scale: scale, Mode: mode, MaxIterations: e.maxIterations}

	if mode.Rendering == RenderModeStandard {
		// Shallow zoom: the GPU iterates directly, no orbit needed.
		// Snapshots are kept so zooming back in reuses them if still
		// valid.
		e.lastScale = scale
		return state
	}

	if lowQuality && !modeChanged && e.haveOrbitFor(mode) {
		e.logger.Debug("deepzoom: low-quality frame, reusing stale orbit",
			"scale", scale)
		return e.populate(state)
	}

	if mode.Caps.MultiRef {
		if modeChanged || e.partitionDrifted(center, scale) {
			if mode.Precision == PrecisionDoubleDouble {
				e.multi.PartitionDD(dd.ComplexFromComplex128(center), scale, e.Aspect(), e.maxIterations)
			} else {
				e.multi.Partition(center, scale, e.Aspect(), e.maxIterations)
			}
			e.lastCenter = center
			e.lastScale = scale
			state.Recomputed = true
			e.logger.Info("deepzoom: repartitioned multi-reference grid",
				"scale", scale,
				"precision", mode.Precision.String(),
				"regions", len(e.multi.Regions()))
		}
	} else if modeChanged || e.singleRefDrifted(center, scale) {
		e.recomputeSingle(center, scale, mode)
		e.lastCenter = center
		e.lastScale = scale
		state.Recomputed = true
	}

	e.computeAuxOrbits(scale, mode)
	return e.populate(state)
}

// haveOrbitFor reports whether a usable snapshot exists for the mode's
// reference strategy.
func (e *Engine) haveOrbitFor(mode Mode) bool {
	if mode.Caps.MultiRef {
		return len(e.multi.Regions()) > 0
	}
	return e.ref != nil
}

// populate copies the current snapshots into the frame state.
func (e *Engine) populate(state FrameState) FrameState {
	if state.Mode.Caps.MultiRef {
		state.Regions = e.multi.Regions()
	} else {
		state.Reference = e.ref
		state.ReferenceDD = e.refDD
	}
	state.AuxReferences = e.auxRefs
	return state
}

// singleRefDrifted reports whether the current single reference must be
// recomputed for the requested view.
func (e *Engine) singleRefDrifted(center complex128, scale float64) bool {
	if e.ref == nil {
		return true
	}
	if scale != e.lastScale {
		return true
	}
	if e.refDD != nil {
		return e.refDD.Drifted(dd.ComplexFromComplex128(center), scale)
	}
	return e.ref.Drifted(center, scale)
}

// partitionDrifted is the drift check for multi-reference mode, applied to
// the view center the partition was built for.
func (e *Engine) partitionDrifted(center complex128, scale float64) bool {
	if len(e.multi.Regions()) == 0 {
		return true
	}
	if scale != e.lastScale {
		return true
	}
	dr := real(center) - real(e.lastCenter)
	di := imag(center) - imag(e.lastCenter)
	limit := scale * orbit.DriftThreshold
	return dr*dr+di*di > limit*limit
}

// recomputeSingle replaces the single-reference snapshot for the requested
// view, at the precision tier the mode demands.
func (e *Engine) recomputeSingle(center complex128, scale float64, mode Mode) {
	diagSq := view.DiagonalSquared(scale, e.Aspect())

	switch mode.Precision {
	case PrecisionDoubleDouble:
		refDD := orbit.ComputeDD(dd.ComplexFromComplex128(center), e.maxIterations)
		ref := refDD.Project()
		if mode.Caps.Series {
			ref.Series = orbit.ComputeSeries(ref, diagSq)
		}
		e.refDD = refDD
		e.ref = ref
	default:
		if mode.Caps.Series {
			e.ref = orbit.ComputeWithSeries(center, e.maxIterations, diagSq)
		} else {
			e.ref = orbit.Compute(center, e.maxIterations)
		}
		e.refDD = nil
	}

	attrs := []any{
		"center", center,
		"scale", scale,
		"precision", mode.Precision.String(),
		"points", e.ref.Len(),
		"escaped", e.ref.Escaped,
	}
	if e.ref.Series != nil {
		attrs = append(attrs, "skip", e.ref.Series.SkipIterations())
	}
	e.logger.Info("deepzoom: recomputed reference orbit", attrs...)
}

// ReportGlitches feeds back the GPU's per-pixel glitch-flag buffer
// (iteration-or-zero, row-major, viewport sized). When glitch detection is
// active, clusters of broken pixels yield replacement reference centers;
// the orbits for them are computed on the next Frame call. Reporting an
// all-clean buffer clears any pending re-referencing.
//
// The flags must correspond to the most recent frame's view; the engine
// uses that frame's center and scale for the pixel-to-plane mapping.
func (e *Engine) ReportGlitches(flags []uint32, center complex128, scale float64) int {
	if !e.mode.Caps.Glitch {
		return 0
	}
	e.pendingCenters = glitch.AnalyzeAndSelectReferences(flags, center, scale, e.width, e.height)
	if n := len(e.pendingCenters); n > 0 {
		e.logger.Info("deepzoom: glitch analysis proposed new references",
			"count", n, "scale", scale)
		return n
	}
	e.auxRefs = nil
	return 0
}

// computeAuxOrbits turns pending glitch-proposed centers into auxiliary
// reference orbits for the coming frame.
func (e *Engine) computeAuxOrbits(scale float64, mode Mode) {
	if len(e.pendingCenters) == 0 {
		return
	}
	diagSq := view.DiagonalSquared(scale, e.Aspect())
	refs := make([]*orbit.Reference, 0, len(e.pendingCenters))
	for _, c := range e.pendingCenters {
		if mode.Caps.Series {
			refs = append(refs, orbit.ComputeWithSeries(c, e.maxIterations, diagSq))
		} else {
			refs = append(refs, orbit.Compute(c, e.maxIterations))
		}
	}
	e.auxRefs = refs
	e.pendingCenters = nil
}

// PackViewUniform appends the view parameters in the GPU uniform layout:
// the center as two double-float (hi, lo) pairs, then the scale split the
// same way, then the aspect ratio as a single float32. The double-float
// split carries ~48 bits of each double across the precision boundary.
func (e *Engine) PackViewUniform(dst []float32, center complex128, scale float64) []float32 {
	dst = buf.AppendSplitComplex(dst, center)
	dst = buf.AppendSplitDouble(dst, scale)
	return append(dst, float32(e.Aspect()))
}
