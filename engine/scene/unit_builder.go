package scene

import (
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/compositor"
	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
)

// UnitBuilderOption is a functional option for configuring a Unit via NewUnit.
type UnitBuilderOption func(*unitImpl)

// WithID overrides the unit id, which otherwise is the stage name or a generated UUID.
//
// Parameters:
//   - id: the unit id
//
// Returns:
//   - UnitBuilderOption: a function that sets the id
func WithID(id string) UnitBuilderOption {
	return func(u *unitImpl) {
		u.id = id
	}
}

// WithCamera sets the unit's camera. The unit's controller is attached to it.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - UnitBuilderOption: a function that sets the camera
func WithCamera(cam camera.Camera) UnitBuilderOption {
	return func(u *unitImpl) {
		u.camera = cam
	}
}

// WithController sets the orbit controller driving the camera.
//
// Parameters:
//   - ctrl: the controller
//
// Returns:
//   - UnitBuilderOption: a function that sets the controller
func WithController(ctrl camera.CameraController) UnitBuilderOption {
	return func(u *unitImpl) {
		u.controller = ctrl
	}
}

// WithCompositor sets the compositor used as the sphere texture.
//
// Parameters:
//   - c: the compositor
//
// Returns:
//   - UnitBuilderOption: a function that sets the compositor
func WithCompositor(c compositor.Compositor) UnitBuilderOption {
	return func(u *unitImpl) {
		u.compositor = c
	}
}

// WithMesh sets the sphere mesh. Units normally share one mesh.
//
// Parameters:
//   - mesh: the mesh
//
// Returns:
//   - UnitBuilderOption: a function that sets the mesh
func WithMesh(mesh *model.Mesh) UnitBuilderOption {
	return func(u *unitImpl) {
		u.mesh = mesh
	}
}

// WithOpener sets the opener used to request the stage background.
//
// Parameters:
//   - opener: the media opener
//
// Returns:
//   - UnitBuilderOption: a function that sets the opener
func WithOpener(opener media.Opener) UnitBuilderOption {
	return func(u *unitImpl) {
		u.opener = opener
	}
}

// WithVideos supplies opened videos, one per stage video region in the same order.
// Nil entries mark videos that failed to open and are skipped.
//
// Parameters:
//   - videos: the video sources
//
// Returns:
//   - UnitBuilderOption: a function that sets the videos
func WithVideos(videos []media.VideoSource) UnitBuilderOption {
	return func(u *unitImpl) {
		u.videos = append([]media.VideoSource(nil), videos...)
	}
}

// WithActive sets the initial active state. Videos start playing when true.
//
// Parameters:
//   - active: the initial state
//
// Returns:
//   - UnitBuilderOption: a function that sets the active state
func WithActive(active bool) UnitBuilderOption {
	return func(u *unitImpl) {
		u.active = active
	}
}

// WithAspect sets the initial camera aspect.
//
// Parameters:
//   - aspect: width / height
//
// Returns:
//   - UnitBuilderOption: a function that sets the aspect
func WithAspect(aspect float32) UnitBuilderOption {
	return func(u *unitImpl) {
		u.aspect = aspect
	}
}
