package clock

import "time"

// ClockBuilderOption is a functional option for configuring a Clock.
type ClockBuilderOption func(*clockImpl)

// WithMaxDelta caps the Delta reported in a Tick. Long gaps, such as a minimised window,
// are reported as max instead of their real length. Zero disables the cap.
//
// Parameters:
//   - max: the largest delta to report
//
// Returns:
//   - ClockBuilderOption: option function to apply
func WithMaxDelta(max time.Duration) ClockBuilderOption {
	return func(c *clockImpl) {
		c.maxDelta = max
	}
}
