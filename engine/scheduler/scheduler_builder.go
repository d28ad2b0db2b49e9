package scheduler

import (
	"image/color"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pano/engine/scene"
)

// SchedulerBuilderOption is a functional option for configuring a schedulerImpl.
type SchedulerBuilderOption func(*schedulerImpl)

// WithUnits sets the initial units in render order.
//
// Parameters:
//   - units: the units to draw
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithUnits(units ...scene.Unit) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		s.units = append([]scene.Unit(nil), units...)
	}
}

// WithClearColor sets the frame clear color. Defaults to #e0e0e0.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithClearColor(c color.RGBA) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		s.clearColor = c
	}
}

// WithScissorTest enables or disables the scissor test for every frame. Enabled by default.
//
// Parameters:
//   - enabled: whether draws are clipped to the unit's rectangle
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithScissorTest(enabled bool) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		s.scissorTest = enabled
	}
}

// WithMaxDelta caps the frame delta handed to unit updates, so a stalled frame does not jump the
// controllers. Non-positive values are ignored.
//
// Parameters:
//   - d: the largest delta
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithMaxDelta(d time.Duration) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if d > 0 {
			s.maxDelta = d
		}
	}
}

// WithProfiler records per-frame unit counts on p and ticks it after every frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		s.profiler = p
	}
}
