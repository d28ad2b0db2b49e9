package engine

import (
	"github.com/Carmen-Shannon/oxy-pano/engine/config"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pano/engine/scheduler"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig replaces the default configuration. Options that depend on the config, such as the
// default page geometry, read it after all options are applied.
//
// Parameters:
//   - cfg: the validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithStages supplies the stage list directly instead of loading Config.StagesPath.
//
// Parameters:
//   - stages: the stages in display order
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStages(stages []loader.Stage) EngineBuilderOption {
	return func(e *engine) {
		e.stages = stages
		e.stagesSet = true
	}
}

// WithLoader sets the loader used to read Config.StagesPath.
//
// Parameters:
//   - l: the stage loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithRenderer sets the renderer every unit draws through.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r scheduler.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithPage sets the host page the units are laid out on.
//
// Parameters:
//   - p: the page acting as document and canvas
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPage(p host.Page) EngineBuilderOption {
	return func(e *engine) {
		e.page = p
	}
}

// WithFrameTimer sets the host frame timer that paces the clock.
//
// Parameters:
//   - timer: the frame timer, usually a host.Loop driven by the window's message loop
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameTimer(timer host.FrameTimer) EngineBuilderOption {
	return func(e *engine) {
		e.timer = timer
	}
}

// WithOpener sets the media opener used for backgrounds and videos. Overrides WithVideoOpener.
//
// Parameters:
//   - opener: the opener
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithOpener(opener media.Opener) EngineBuilderOption {
	return func(e *engine) {
		e.opener = opener
	}
}

// WithVideoOpener sets the video decoder used by the default opener.
//
// Parameters:
//   - open: the video opener, e.g. ffvideo.Open
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithVideoOpener(open media.VideoOpener) EngineBuilderOption {
	return func(e *engine) {
		e.videoOpener = open
	}
}

// WithProfiling enables or disables performance profiling output, overriding Config.Profiling.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		e.profilingSet = true
	}
}

// WithProfiler sets the profiler fed while profiling is enabled.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}
