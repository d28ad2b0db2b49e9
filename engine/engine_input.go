package engine

import (
	"log"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/scene"
)

const (
	// lineScroll is the page scroll per arrow key press or wheel notch, in page pixels.
	lineScroll = 40
	// pageScrollFraction is the share of the viewport height scrolled by Page Up / Page Down.
	pageScrollFraction = 0.9
)

// InputSurface is the event source the engine listens on. window.Window satisfies it.
type InputSurface interface {
	SetResizeCallback(callback func(width, height int))
	SetScrollCallback(callback func(delta float32))
	SetKeyDownCallback(callback func(keyCode uint32))
	SetMouseDownCallback(callback func(x, y float32))
	SetMouseUpCallback(callback func(x, y float32))
	SetMouseMoveCallback(callback func(x, y float32))
}

func (e *engine) BindInput(surface InputSurface) {
	surface.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		e.page.Resize(width, height)
		e.OnResize()
	})
	surface.SetScrollCallback(e.HandleWheel)
	surface.SetKeyDownCallback(e.HandleKey)
	surface.SetMouseDownCallback(e.HandlePointerDown)
	surface.SetMouseUpCallback(e.HandlePointerUp)
	surface.SetMouseMoveCallback(e.HandlePointerMove)
}

func (e *engine) HandleKey(keyCode uint32) {
	if i, ok := common.DigitIndex(keyCode); ok {
		units := e.Units()
		if i >= len(units) {
			return
		}
		u := units[i]
		active := !u.Active()
		_ = e.SetActive(u.ID(), active)
		log.Printf("[Engine] scene %s active=%v", u.ID(), active)
		return
	}

	switch keyCode {
	case common.KeyP:
		e.SetProfiling(!e.Profiling())
	case common.KeyR:
		e.ResetCameras()
	case common.KeySpace:
		running := e.TogglePause()
		log.Printf("[Engine] rendering running=%v", running)
	case common.KeyPageDown:
		e.page.ScrollBy(float32(e.page.ClientSize().Height) * pageScrollFraction)
	case common.KeyPageUp:
		e.page.ScrollBy(-float32(e.page.ClientSize().Height) * pageScrollFraction)
	case common.KeyDown:
		e.page.ScrollBy(lineScroll)
	case common.KeyUp:
		e.page.ScrollBy(-lineScroll)
	}
}

func (e *engine) HandleWheel(delta float32) {
	e.mu.Lock()
	x, y := e.cursorX, e.cursorY
	e.mu.Unlock()

	if u := e.activeUnitAt(x, y); u != nil {
		u.Controller().Zoom(delta)
		return
	}
	e.page.ScrollBy(-delta * lineScroll)
}

func (e *engine) HandlePointerDown(x, y float32) {
	e.mu.Lock()
	e.cursorX, e.cursorY = x, y
	e.mu.Unlock()

	u := e.activeUnitAt(x, y)
	if u == nil || !u.Controller().PointerDown(x, y) {
		return
	}
	e.mu.Lock()
	e.dragging = u
	e.mu.Unlock()
}

func (e *engine) HandlePointerMove(x, y float32) {
	e.mu.Lock()
	e.cursorX, e.cursorY = x, y
	u := e.dragging
	e.mu.Unlock()

	if u != nil {
		u.Controller().PointerMove(x, y)
	}
}

func (e *engine) HandlePointerUp(x, y float32) {
	e.mu.Lock()
	e.cursorX, e.cursorY = x, y
	u := e.dragging
	e.dragging = nil
	e.mu.Unlock()

	if u != nil {
		u.Controller().PointerUp()
	}
}

// activeUnitAt returns the active unit whose element lies under the viewport point, or nil.
func (e *engine) activeUnitAt(x, y float32) scene.Unit {
	el, ok := e.page.ElementAt(x, y)
	if !ok {
		return nil
	}
	e.mu.Lock()
	u := e.byElement[el.ID()]
	e.mu.Unlock()
	if u == nil || !u.Active() {
		return nil
	}
	return u
}
