package host

import "time"

// LoopBuilderOption is a functional option for configuring a Loop.
type LoopBuilderOption func(*loopImpl)

// WithTimeSource overrides the clock used to timestamp frames.
//
// Parameters:
//   - now: function returning the current time
//
// Returns:
//   - LoopBuilderOption: option function to apply
func WithTimeSource(now func() time.Time) LoopBuilderOption {
	return func(l *loopImpl) {
		if now != nil {
			l.now = now
		}
	}
}
