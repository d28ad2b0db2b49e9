// Package model holds panorama geometry and the contracts the renderer draws through.
// It is free of GPU API types so scene logic can be exercised without a device.
package model

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is indexed triangle geometry ready for upload.
type Mesh struct {
	// Name labels GPU buffers created for the mesh.
	Name string
	// Vertices holds positions and texture coordinates.
	Vertices []GPUVertex
	// Indices holds counter-clockwise triangle indices as seen by the viewer.
	Indices []uint32
}

// VertexBytes returns the vertex data as a byte view for GPU upload.
func (m *Mesh) VertexBytes() []byte {
	return common.SliceToBytes(m.Vertices)
}

// IndexBytes returns the index data as a byte view for GPU upload.
func (m *Mesh) IndexBytes() []byte {
	return common.SliceToBytes(m.Indices)
}

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

// Texture is a CPU-side RGBA image that the renderer mirrors on the GPU.
type Texture interface {
	// Size returns the texture dimensions in pixels.
	//
	// Returns:
	//   - width, height: dimensions in pixels
	Size() (width, height int)

	// Upload hands the current pixels to fn when the texture changed since the last upload,
	// then clears the changed flag. fn must not retain pix.
	//
	// Parameters:
	//   - fn: receives tightly packed RGBA rows
	//
	// Returns:
	//   - bool: true if fn was called
	Upload(fn func(pix []byte, width, height int)) bool
}

// Drawable is anything the renderer can draw into the current viewport.
type Drawable interface {
	// ID identifies per-drawable GPU resources across frames.
	ID() string

	// Mesh returns the geometry to draw. Meshes may be shared between drawables.
	Mesh() *Mesh

	// ViewProjection returns the combined clip transform for this frame.
	ViewProjection() mgl32.Mat4

	// Texture returns the texture sampled by the drawable.
	Texture() Texture
}
