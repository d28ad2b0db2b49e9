// Package scene holds the scene unit: one independently toggleable panorama made of a camera,
// its orbit controller, a texture compositor, the shared sphere mesh and a page element binding.
package scene

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/compositor"
	"github.com/Carmen-Shannon/oxy-pano/engine/host"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ErrElementMissing is returned while a unit's page element cannot be found.
var ErrElementMissing = errors.New("scene element missing")

// DefaultSphereRadius is the radius of the panorama sphere when no mesh is supplied.
const DefaultSphereRadius = 5.0

// unitImpl is the implementation of the Unit interface.
type unitImpl struct {
	mu *sync.Mutex

	id    string
	stage loader.Stage

	camera     camera.Camera
	controller camera.CameraController
	compositor compositor.Compositor
	mesh       *model.Mesh
	aspect     float32

	opener     media.Opener
	videos     []media.VideoSource
	background <-chan error

	active bool
	closed bool

	doc           host.Document
	elementID     string
	element       host.Element
	missingLogged bool
}

// Unit is one panorama viewer. It implements model.Drawable so a renderer can draw its sphere
// through its camera with its compositor as the texture.
//
// A unit keeps its full state while inactive: camera, controller pose and videos are retained
// and videos are paused rather than closed.
type Unit interface {
	model.Drawable

	// Name returns the stage name, which may be empty.
	Name() string

	// Stage returns the descriptor the unit was built from.
	Stage() loader.Stage

	// Camera returns the unit's camera.
	Camera() camera.Camera

	// Controller returns the orbit controller attached to the camera.
	Controller() camera.CameraController

	// Compositor returns the unit's texture compositor.
	Compositor() compositor.Compositor

	// Videos returns the video sources bound to the compositor.
	Videos() []media.VideoSource

	// Background returns the channel reporting the background decode result, or nil when no
	// background was requested.
	Background() <-chan error

	// Active reports whether the unit takes part in the render pass.
	Active() bool

	// SetActive includes or excludes the unit from the render pass. Deactivating pauses every
	// video and activating resumes them. Repeated calls with the same value do nothing.
	//
	// Parameters:
	//   - active: the new state
	SetActive(active bool)

	// OnResize updates the camera projection. Applies whether or not the unit is active.
	// Non-positive aspects are ignored.
	//
	// Parameters:
	//   - aspect: width / height
	OnResize(aspect float32)

	// SyncAspect sets the camera aspect from the bound element, or from viewport when the
	// element is missing or has no area.
	//
	// Parameters:
	//   - viewport: the current host viewport size
	//
	// Returns:
	//   - float32: the aspect applied
	SyncAspect(viewport common.Size) float32

	// Update advances the orbit controller by the pending interaction delta and refreshes
	// the camera matrices.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous update
	//
	// Returns:
	//   - bool: true if the camera pose changed
	Update(dt float32) bool

	// Bind attaches the unit to the page element with the given id and resolves it.
	//
	// Parameters:
	//   - doc: the document to query
	//   - elementID: the element id
	//
	// Returns:
	//   - error: ErrElementMissing if the element is not present yet; the binding is kept
	//     and retried by Element
	Bind(doc host.Document, elementID string) error

	// ElementID returns the bound element id.
	ElementID() string

	// Element returns the bound element, resolving it again when it was missing or detached.
	// The first failure after a successful lookup is logged.
	//
	// Returns:
	//   - host.Element: the element
	//   - error: ErrElementMissing when unbound or absent
	Element() (host.Element, error)

	// Close pauses and releases every video source. Safe to call more than once.
	//
	// Returns:
	//   - error: the joined close errors
	Close() error
}

var _ Unit = &unitImpl{}

// NewUnit builds a unit for stage. Unless overridden by options the unit gets a 50 degree
// camera looking out from the center of a radius 5 inverted sphere and a 3840x1920
// compositor. When an opener is configured the stage background is requested from it;
// videos passed with WithVideos are bound to the stage's regions by index.
//
// Parameters:
//   - stage: the stage descriptor
//   - options: functional options to configure the unit
//
// Returns:
//   - Unit: the newly created unit
func NewUnit(stage loader.Stage, options ...UnitBuilderOption) Unit {
	u := &unitImpl{
		mu:    &sync.Mutex{},
		id:    stage.Name,
		stage: stage,
	}
	for _, option := range options {
		option(u)
	}

	if u.id == "" {
		u.id = uuid.NewString()
	}
	if u.controller == nil {
		u.controller = camera.NewCameraController()
	}
	if u.camera == nil {
		u.camera = camera.NewCamera()
	}
	u.camera.SetController(u.controller)
	if u.aspect > 0 {
		u.camera.SetAspect(u.aspect)
	}
	if u.compositor == nil {
		u.compositor = compositor.NewCompositor()
	}
	if u.mesh == nil {
		u.mesh = model.NewSphere(model.WithRadius(DefaultSphereRadius))
	}

	u.bindBackground()
	u.bindVideos()
	return u
}

// bindBackground requests the stage image from the opener. Open failures are logged and
// leave the canvas blank.
func (u *unitImpl) bindBackground() {
	if u.opener == nil || u.stage.OuterImage == "" {
		return
	}
	src, err := u.opener.OpenImage(u.stage.OuterImage)
	if err != nil {
		log.Printf("[Scene] unit %s: background unavailable: %v", u.id, err)
		failed := make(chan error, 1)
		failed <- err
		close(failed)
		u.background = failed
		return
	}
	u.background = u.compositor.SetBackground(src)
}

// bindVideos registers each non-nil video with its stage region.
func (u *unitImpl) bindVideos() {
	bound := u.videos[:0]
	for i, v := range u.videos {
		if v == nil || i >= len(u.stage.Videos) {
			continue
		}
		u.compositor.BindVideoRegion(v, u.stage.Videos[i].Rect())
		bound = append(bound, v)
	}
	u.videos = bound
	if u.active {
		u.playAll()
	}
}

func (u *unitImpl) playAll() {
	for _, v := range u.videos {
		if err := v.Play(); err != nil {
			log.Printf("[Scene] unit %s: play %q: %v", u.id, v.URL(), err)
		}
	}
}

func (u *unitImpl) ID() string {
	return u.id
}

func (u *unitImpl) Name() string {
	return u.stage.Name
}

func (u *unitImpl) Stage() loader.Stage {
	return u.stage
}

func (u *unitImpl) Camera() camera.Camera {
	return u.camera
}

func (u *unitImpl) Controller() camera.CameraController {
	return u.controller
}

func (u *unitImpl) Compositor() compositor.Compositor {
	return u.compositor
}

func (u *unitImpl) Mesh() *model.Mesh {
	return u.mesh
}

func (u *unitImpl) ViewProjection() mgl32.Mat4 {
	return u.camera.ViewProjection()
}

func (u *unitImpl) Texture() model.Texture {
	return u.compositor
}

func (u *unitImpl) Videos() []media.VideoSource {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]media.VideoSource, len(u.videos))
	copy(out, u.videos)
	return out
}

func (u *unitImpl) Background() <-chan error {
	return u.background
}

func (u *unitImpl) Active() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active
}

func (u *unitImpl) SetActive(active bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active == active || u.closed {
		return
	}
	u.active = active
	if active {
		u.playAll()
		return
	}
	for _, v := range u.videos {
		v.Pause()
	}
	u.controller.PointerUp()
}

func (u *unitImpl) OnResize(aspect float32) {
	u.camera.SetAspect(aspect)
}

func (u *unitImpl) SyncAspect(viewport common.Size) float32 {
	aspect := viewport.Aspect()
	if el, err := u.Element(); err == nil {
		if rect := el.BoundingClientRect(); !rect.Empty() {
			aspect = rect.Aspect()
		}
	}
	u.OnResize(aspect)
	return aspect
}

func (u *unitImpl) Update(dt float32) bool {
	changed := u.controller.Update(dt)
	u.camera.Update()
	return changed
}

func (u *unitImpl) Bind(doc host.Document, elementID string) error {
	u.mu.Lock()
	u.doc = doc
	u.elementID = elementID
	u.element = nil
	u.missingLogged = false
	u.mu.Unlock()

	_, err := u.Element()
	return err
}

func (u *unitImpl) ElementID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.elementID
}

func (u *unitImpl) Element() (host.Element, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.element != nil && u.element.Attached() {
		return u.element, nil
	}
	if u.doc == nil {
		return nil, fmt.Errorf("unit %s: not bound: %w", u.id, ErrElementMissing)
	}

	el, ok := u.doc.Element(u.elementID)
	if !ok || el == nil || !el.Attached() {
		if u.element != nil {
			u.element = nil
			u.controller.BindSurface(nil)
		}
		if !u.missingLogged {
			u.missingLogged = true
			log.Printf("[Scene] unit %s: element %q missing", u.id, u.elementID)
		}
		return nil, fmt.Errorf("unit %s: element %q: %w", u.id, u.elementID, ErrElementMissing)
	}

	u.element = el
	u.missingLogged = false
	u.controller.BindSurface(el)
	return el, nil
}

func (u *unitImpl) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	u.active = false

	var errs []error
	for _, v := range u.videos {
		v.Pause()
		if err := v.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", v.URL(), err))
		}
	}
	return errors.Join(errs...)
}
