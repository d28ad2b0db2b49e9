package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyP     = 80  // P key (ASCII), toggles the profiler
	KeyR     = 82  // R key (ASCII), resets scene cameras
	KeySpace = 32  // Spacebar (ASCII), pauses/resumes the scheduler
	KeyEsc   = 256 // Escape key (GLFW)

	KeyPageDown = 267 // Page Down (GLFW)
	KeyPageUp   = 266 // Page Up (GLFW)
	KeyDown     = 264 // Down arrow (GLFW)
	KeyUp       = 265 // Up arrow (GLFW)

	Key0 = 48 // 0 key (ASCII)
	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
	Key4 = 52 // 4 key (ASCII)
	Key5 = 53 // 5 key (ASCII)
	Key6 = 54 // 6 key (ASCII)
	Key7 = 55 // 7 key (ASCII)
	Key8 = 56 // 8 key (ASCII)
	Key9 = 57 // 9 key (ASCII)
)

// DigitIndex maps the number-row keys 1..9 to scene indices 0..8.
//
// Parameters:
//   - keyCode: the virtual key code
//
// Returns:
//   - int: the zero-based scene index
//   - bool: false when keyCode is not one of Key1..Key9
func DigitIndex(keyCode uint32) (int, bool) {
	if keyCode < Key1 || keyCode > Key9 {
		return 0, false
	}
	return int(keyCode - Key1), true
}
