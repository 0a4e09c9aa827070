package deepzoom

import "log/slog"

// Option configures an Engine during creation.
//
// Example:
//
//	eng := deepzoom.NewEngine(
//	    deepzoom.WithViewport(1280, 720),
//	    deepzoom.WithThresholds(deepzoom.Thresholds{Perturbation: 1e-5}),
//	)
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	thresholds    Thresholds
	maxIterations int
	gridSize      int
	width, height int
	logger        *slog.Logger
}

// defaultEngineOptions returns the stock engine configuration.
func defaultEngineOptions() engineOptions {
	return engineOptions{
		thresholds:    DefaultThresholds(),
		maxIterations: 10000,
		gridSize:      0, // multiref.DefaultGridSize
		width:         1920,
		height:        1080,
		logger:        nil, // Logger() at construction time
	}
}

// WithThresholds replaces the mode-selection scale cutoffs.
func WithThresholds(t Thresholds) Option {
	return func(o *engineOptions) {
		o.thresholds = t
	}
}

// WithMaxIterations sets the per-orbit iteration budget. This is the only
// cost bound the engine applies; there are no timeouts.
func WithMaxIterations(n int) Option {
	return func(o *engineOptions) {
		o.maxIterations = n
	}
}

// WithGridSize sets the per-axis multi-reference grid size. Zero keeps the
// multiref package default.
func WithGridSize(n int) Option {
	return func(o *engineOptions) {
		o.gridSize = n
	}
}

// WithViewport sets the viewport dimensions in pixels. The engine only
// uses the aspect ratio and the glitch-buffer geometry; actual surface
// allocation belongs to the rendering layer.
func WithViewport(width, height int) Option {
	return func(o *engineOptions) {
		o.width = width
		o.height = height
	}
}

// WithLogger overrides the package logger for this engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}
