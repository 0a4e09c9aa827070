package deepzoom

import (
	"fmt"
	"math"
)

// RenderMode selects how the GPU iterates pixels for the current scale.
type RenderMode int

const (
	// RenderModeStandard is direct per-pixel escape-time iteration in
	// float32/float64 on the GPU. Valid at shallow zoom only.
	RenderModeStandard RenderMode = iota

	// RenderModePerturbation iterates per-pixel deltas against a shared
	// CPU-computed reference orbit.
	RenderModePerturbation
)

// String returns the string representation of RenderMode.
func (m RenderMode) String() string {
	switch m {
	case RenderModeStandard:
		return "Standard"
	case RenderModePerturbation:
		return "Perturbation"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// PrecisionLevel is the arithmetic tier reference orbits are computed at.
type PrecisionLevel int

const (
	// PrecisionDouble is plain float64, good to ~15 decimal digits.
	PrecisionDouble PrecisionLevel = iota

	// PrecisionDoubleDouble is error-compensated (hi, lo) float64 pairs,
	// good to ~30 decimal digits (scale floor around 1e-28).
	PrecisionDoubleDouble
)

// String returns the string representation of PrecisionLevel.
func (p PrecisionLevel) String() string {
	switch p {
	case PrecisionDouble:
		return "Double"
	case PrecisionDoubleDouble:
		return "DoubleDouble"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// precisionDigitsMargin is added to the digits implied by the scale so the
// precision tier flips before accuracy actually runs out.
const precisionDigitsMargin = 3

// doubleDigitsLimit is the decimal-digit budget of float64; needing this
// many or more forces double-double.
const doubleDigitsLimit = 14

// RequiredPrecision returns the precision tier needed at a given view
// scale. It is a pure function of the scale: digits-needed is
// -log10(scale) + 3 (safety margin), and double-double is required from 14
// digits up.
func RequiredPrecision(scale float64) PrecisionLevel {
	digits := -math.Log10(scale) + precisionDigitsMargin
	if digits >= doubleDigitsLimit {
		return PrecisionDoubleDouble
	}
	return PrecisionDouble
}

// Capabilities are the optional perturbation components enabled for a
// frame. The GPU side consumes them as kernel feature flags; the engine
// consumes them to decide what to compute.
type Capabilities struct {
	// Series enables iteration skipping via series approximation.
	Series bool

	// Glitch enables per-pixel instability flagging and readback.
	Glitch bool

	// MultiRef enables per-region reference orbits.
	MultiRef bool
}

// Thresholds are the scale cutoffs driving mode selection. They are an
// explicit configuration record rather than hidden constants so tests (and
// tuning) can cross each boundary deterministically.
//
// Each field is the scale below which the feature turns on.
type Thresholds struct {
	Perturbation    float64
	Series          float64
	GlitchDetection float64
	MultiReference  float64
}

// DefaultThresholds returns the stock cutoffs: perturbation below 1e-6,
// series and multi-reference below 1e-7, glitch detection below 1e-8.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Perturbation:    1e-6,
		Series:          1e-7,
		GlitchDetection: 1e-8,
		MultiReference:  1e-7,
	}
}

// Mode is the full per-frame decision: how to render, at which precision,
// with which optional components.
type Mode struct {
	Rendering RenderMode
	Precision PrecisionLevel
	Caps      Capabilities
}

// Select maps a view scale to a Mode. It is a pure function of the scale
// and the receiver; it holds no hidden state and is safe to call every
// frame.
func (t Thresholds) Select(scale float64) Mode {
	m := Mode{
		Rendering: RenderModeStandard,
		Precision: RequiredPrecision(scale),
	}
	if scale < t.Perturbation {
		m.Rendering = RenderModePerturbation
		m.Caps = Capabilities{
			Series:   scale < t.Series,
			Glitch:   scale < t.GlitchDetection,
			MultiRef: scale < t.MultiReference,
		}
	}
	return m
}
