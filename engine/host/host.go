// Package host defines the collaborators the panorama engine consumes from its embedding environment:
// a per-frame callback timer, a document of layout elements, and the render canvas. A desktop
// implementation of each is provided by Loop and Page.
package host

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// FrameHandle identifies an outstanding frame request. The zero handle is never issued.
type FrameHandle uint64

// FrameCallback is invoked once when a requested frame fires.
type FrameCallback func(now time.Time)

// FrameTimer schedules callbacks for the next display frame.
type FrameTimer interface {
	// RequestFrame registers cb to run on the next frame.
	//
	// Parameters:
	//   - cb: the callback to run once
	//
	// Returns:
	//   - FrameHandle: a handle usable with CancelFrame
	RequestFrame(cb FrameCallback) FrameHandle

	// CancelFrame removes a pending request. Unknown or already fired handles are ignored.
	//
	// Parameters:
	//   - handle: the handle returned by RequestFrame
	CancelFrame(handle FrameHandle)
}

// Element is a layout region that a scene renders into.
type Element interface {
	// ID returns the element identifier used for lookups.
	ID() string

	// BoundingClientRect returns the element rectangle relative to the visible viewport
	// (page position minus scroll offset).
	//
	// Returns:
	//   - common.Rect: the rectangle in page pixels
	BoundingClientRect() common.Rect

	// Attached reports whether the element is still part of the document.
	Attached() bool
}

// Document resolves elements by id and exposes the visible viewport.
type Document interface {
	// Element looks up an attached element by id.
	//
	// Parameters:
	//   - id: the element identifier
	//
	// Returns:
	//   - Element: the element, or nil when absent
	//   - bool: true if the element exists and is attached
	Element(id string) (Element, bool)

	// ScrollY returns the current vertical scroll offset in page pixels.
	ScrollY() float32
}

// SlotCreator is implemented by documents that can create a scene slot on demand.
// The slot is a list item holding the scene element and a caption.
type SlotCreator interface {
	// AppendSlot creates and attaches a new scene element.
	//
	// Parameters:
	//   - id: identifier for the new element
	//   - label: caption shown with the slot
	//
	// Returns:
	//   - Element: the attached element
	AppendSlot(id, label string) Element
}

// Canvas is the shared drawing surface layered over the page.
type Canvas interface {
	// ClientSize returns the displayed size of the canvas in page pixels.
	ClientSize() common.Size

	// SetTranslateY offsets the canvas vertically so it stays pinned over the visible viewport.
	//
	// Parameters:
	//   - y: the offset in page pixels
	SetTranslateY(y float32)
}
