package deepzoom

import (
	"testing"

	"github.com/gogpu/deepzoom/dd"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithViewport(64, 64),
		WithMaxIterations(500),
	}
	return NewEngine(append(base, opts...)...)
}

func TestFrameStandardModeComputesNothing(t *testing.T) {
	eng := newTestEngine(t)
	state := eng.Frame(complex(-0.5, 0), 2.0, false)

	if state.Mode.Rendering != RenderModeStandard {
		t.Fatalf("Rendering = %v, want Standard", state.Mode.Rendering)
	}
	if state.Recomputed {
		t.Error("standard mode recomputed an orbit")
	}
	if state.Reference != nil || len(state.Regions) != 0 {
		t.Error("standard mode carries orbit state")
	}
}

func TestFramePerturbationComputesReference(t *testing.T) {
	eng := newTestEngine(t)
	state := eng.Frame(complex(-0.5, 0), 1e-7, false)

	if state.Mode.Rendering != RenderModePerturbation {
		t.Fatalf("Rendering = %v, want Perturbation", state.Mode.Rendering)
	}
	if !state.Recomputed {
		t.Error("first perturbation frame did not recompute")
	}
	if state.Reference == nil {
		t.Fatal("no reference orbit")
	}
	if state.Reference.Center != complex(-0.5, 0) {
		t.Errorf("orbit center = %v, want view center", state.Reference.Center)
	}
	// At 1e-7 series is off (cutoff is exclusive).
	if state.Reference.Series != nil {
		t.Error("series computed below its threshold")
	}
}

func TestFrameSeriesAttachedBelowCutoff(t *testing.T) {
	eng := newTestEngine(t, WithThresholds(Thresholds{
		Perturbation: 1e-6,
		Series:       1e-7,
		// Multi-reference disabled so the single-reference path runs.
		MultiReference:  0,
		GlitchDetection: 1e-8,
	}))
	state := eng.Frame(complex(-0.5, 0), 1e-8, false)

	if state.Reference == nil || state.Reference.Series == nil {
		t.Fatal("series not attached below cutoff")
	}
	skip := state.Reference.Series.SkipIterations()
	if skip < 1 || skip > state.Reference.Len() {
		t.Errorf("SkipIterations = %d out of range", skip)
	}
}

func TestFrameReusesOrbitWithinDrift(t *testing.T) {
	eng := newTestEngine(t)
	center := complex(-0.5, 0)
	first := eng.Frame(center, 1e-7, false)

	// Jitter well inside scale × driftThreshold.
	second := eng.Frame(center+complex(1e-9, 0), 1e-7, false)
	if second.Recomputed {
		t.Error("jitter within drift threshold triggered recompute")
	}
	if second.Reference != first.Reference {
		t.Error("orbit snapshot replaced without recompute")
	}

	// Drift beyond the threshold forces a new snapshot.
	third := eng.Frame(center+complex(1e-7, 0), 1e-7, false)
	if !third.Recomputed {
		t.Error("drift beyond threshold did not recompute")
	}
	if third.Reference == first.Reference {
		t.Error("recompute did not produce a fresh snapshot")
	}
	if first.Reference.Center != center {
		t.Error("earlier snapshot mutated by recompute")
	}
}

func TestFrameLowQualitySkipsRecompute(t *testing.T) {
	eng := newTestEngine(t)
	center := complex(-0.5, 0)
	first := eng.Frame(center, 1e-7, false)

	// Large drift, but the gesture hint suppresses recomputation; the
	// stale orbit is served instead.
	moved := center + complex(5e-7, 5e-7)
	state := eng.Frame(moved, 1e-7, true)
	if state.Recomputed {
		t.Error("low-quality frame recomputed")
	}
	if state.Reference != first.Reference {
		t.Error("low-quality frame did not reuse the stale orbit")
	}

	// Cold start cannot be skipped: with no orbit at all, even a
	// low-quality frame must compute one.
	cold := newTestEngine(t)
	state = cold.Frame(center, 1e-7, true)
	if state.Reference == nil {
		t.Error("cold-start low-quality frame has no orbit")
	}
}

func TestFrameDoubleDoubleTier(t *testing.T) {
	eng := newTestEngine(t, WithThresholds(Thresholds{
		Perturbation: 1e-6,
		Series:       1e-7,
	}))
	state := eng.Frame(complex(-0.5, 1e-3), 1e-16, false)

	if state.Mode.Precision != PrecisionDoubleDouble {
		t.Fatalf("Precision = %v, want DoubleDouble", state.Mode.Precision)
	}
	if state.ReferenceDD == nil {
		t.Fatal("no double-double orbit at deep scale")
	}
	if state.Reference == nil {
		t.Fatal("no projected orbit for buffer packing")
	}
	if state.Reference.Len() != state.ReferenceDD.Len() {
		t.Errorf("projection length %d != orbit length %d",
			state.Reference.Len(), state.ReferenceDD.Len())
	}
	if state.Reference.Series == nil {
		t.Error("series missing on projected orbit")
	}
}

func TestFrameMultiReference(t *testing.T) {
	eng := newTestEngine(t, WithGridSize(3))
	state := eng.Frame(complex(-0.5, 0), 1e-9, false)

	if !state.Mode.Caps.MultiRef {
		t.Fatalf("MultiRef not enabled at 1e-9: %+v", state.Mode.Caps)
	}
	if len(state.Regions) != 9 {
		t.Fatalf("got %d regions, want 9", len(state.Regions))
	}
	if state.Reference != nil {
		t.Error("single reference set in multi-reference mode")
	}

	// Same view again: partition reused.
	again := eng.Frame(complex(-0.5, 0), 1e-9, false)
	if again.Recomputed {
		t.Error("unchanged view repartitioned")
	}
}

func TestFrameDoubleDoubleMultiReference(t *testing.T) {
	// Default thresholds: multi-reference is on below 1e-7 and the
	// precision tier switches to double-double well before 1e-18, so the
	// deep frame must partition with double-double cell centers.
	eng := newTestEngine(t, WithGridSize(3))
	center := complex(-0.5, 0.25)
	state := eng.Frame(center, 1e-18, false)

	if state.Mode.Precision != PrecisionDoubleDouble {
		t.Fatalf("Precision = %v, want DoubleDouble", state.Mode.Precision)
	}
	if !state.Mode.Caps.MultiRef {
		t.Fatalf("MultiRef not enabled at 1e-18: %+v", state.Mode.Caps)
	}
	if len(state.Regions) != 9 {
		t.Fatalf("got %d regions, want 9", len(state.Regions))
	}

	// Every cell carries its own double-double orbit, and the cell
	// centers stay distinct where float64 midpoint math would collapse
	// all nine onto the view center.
	distinct := make(map[dd.Complex]bool)
	for i := range state.Regions {
		r := &state.Regions[i]
		if r.OrbitDD == nil {
			t.Fatalf("region %d has no double-double orbit", i)
		}
		distinct[r.CenterDD] = true
	}
	if len(distinct) != 9 {
		t.Errorf("only %d distinct cell centers of 9", len(distinct))
	}

	// The center cell sits exactly on the view center; its neighbors
	// carry nonzero deltas for the kernel's region offset.
	if state.Regions[4].Delta != 0 {
		t.Errorf("center cell Delta = %v, want 0", state.Regions[4].Delta)
	}
	if state.Regions[0].Delta == 0 {
		t.Error("corner cell Delta is zero")
	}
}

func TestReportGlitchesDrivesAuxOrbits(t *testing.T) {
	eng := newTestEngine(t, WithThresholds(Thresholds{
		Perturbation:    1e-6,
		Series:          1e-7,
		GlitchDetection: 1e-8,
		// Single-reference path keeps the test focused on aux orbits.
		MultiReference: 0,
	}))
	center := complex(-0.5, 0)
	scale := 1e-9
	eng.Frame(center, scale, false)

	flags := make([]uint32, 64*64)
	for y := 4; y < 9; y++ {
		for x := 4; x < 9; x++ {
			flags[y*64+x] = 17
		}
	}
	if got := eng.ReportGlitches(flags, center, scale); got != 1 {
		t.Fatalf("ReportGlitches = %d proposals, want 1", got)
	}

	state := eng.Frame(center, scale, false)
	if len(state.AuxReferences) != 1 {
		t.Fatalf("got %d aux orbits, want 1", len(state.AuxReferences))
	}
	if state.AuxReferences[0].Series == nil {
		t.Error("aux orbit missing series below series cutoff")
	}

	// A clean buffer clears re-referencing.
	if got := eng.ReportGlitches(make([]uint32, 64*64), center, scale); got != 0 {
		t.Fatalf("ReportGlitches = %d for clean buffer, want 0", got)
	}
	state = eng.Frame(center, scale, false)
	if len(state.AuxReferences) != 0 {
		t.Errorf("aux orbits not cleared: %d", len(state.AuxReferences))
	}
}

func TestReportGlitchesIgnoredWhenDisabled(t *testing.T) {
	eng := newTestEngine(t)
	eng.Frame(complex(-0.5, 0), 1e-7, false) // glitch cap off at 1e-7

	flags := make([]uint32, 64*64)
	for i := range flags {
		flags[i] = 1
	}
	if got := eng.ReportGlitches(flags, complex(-0.5, 0), 1e-7); got != 0 {
		t.Errorf("ReportGlitches = %d with glitch detection off, want 0", got)
	}
}

func TestPackViewUniform(t *testing.T) {
	eng := newTestEngine(t, WithViewport(128, 64))
	center := complex(-0.743643887037158704, 0.131825904205311970)
	got := eng.PackViewUniform(nil, center, 1e-12)

	// Layout: reHi, reLo, imHi, imLo, scaleHi, scaleLo, aspect.
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	re := float64(got[0]) + float64(got[1])
	if diff := re - real(center); diff > 1e-14 || diff < -1e-14 {
		t.Errorf("reconstructed re = %.17g, want %.17g", re, real(center))
	}
	if got[6] != 2.0 {
		t.Errorf("aspect = %g, want 2", got[6])
	}
}

func TestEngineModeAccessor(t *testing.T) {
	eng := newTestEngine(t)
	if got := eng.Mode(); got.Rendering != RenderModeStandard {
		t.Errorf("zero Mode = %+v", got)
	}
	eng.Frame(complex(0, 0), 1e-9, false)
	if got := eng.Mode(); got.Rendering != RenderModePerturbation {
		t.Errorf("Mode() = %+v after perturbation frame", got)
	}
}
