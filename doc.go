// Package deepzoom is the numerical core of a perturbation-based Mandelbrot
// deep-zoom renderer for the GoGPU ecosystem.
//
// # Overview
//
// Interactive deep zooming outruns float64 long before it outruns the GPU:
// past scale ~1e-6 per-pixel escape-time iteration loses precision, and far
// deeper even the view center does. deepzoom solves this with perturbation
// theory: a high-precision reference orbit is iterated once on the CPU
// (float64 or double-double, package dd), and the GPU iterates only each
// pixel's small delta from that shared orbit. Series approximation
// (truncated Taylor coefficients) lets pixels skip early iterations, glitch
// detection finds pixels where the approximation broke down and proposes
// replacement reference centers, and multi-reference partitioning gives
// each screen region its own orbit at extreme depth.
//
// # Quick Start
//
//	eng := deepzoom.NewEngine(
//	    deepzoom.WithViewport(1920, 1080),
//	    deepzoom.WithMaxIterations(50000),
//	)
//
//	// Each frame the UI supplies center, scale, and a quality hint:
//	state := eng.Frame(center, scale, false)
//
//	// state carries the orbit/series/region snapshots for the GPU; the
//	// render package dispatches the kernel and reads glitch flags back:
//	result, err := renderer.Render(state)
//	if err == nil {
//	    eng.ReportGlitches(result.GlitchFlags, center, scale)
//	}
//
// # Architecture
//
// The library is organized into:
//   - Root: Engine coordinator, mode/precision selection, configuration
//   - dd: double-double extended-precision arithmetic
//   - orbit: reference orbits (both precision tiers) and series coefficients
//   - glitch: glitch-flag clustering and reference re-selection
//   - multiref: viewport partitioning and combined buffer management
//   - render: wgpu/hal compute dispatch of the perturbation kernel
//
// All coordinator state is single-threaded by design: orbits are computed
// serially on the caller's thread and swapped in as immutable snapshots.
// The depth floor is double-double precision, roughly scale 1e-28; behavior
// beyond that is unspecified and out of scope.
package deepzoom
