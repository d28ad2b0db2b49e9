package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereCounts(t *testing.T) {
	m := NewSphere()
	assert.Len(t, m.Vertices, 33*33)
	assert.Equal(t, 6*32*31, m.IndexCount())
	assert.Len(t, m.VertexBytes(), 33*33*GPUVertexStride)
	assert.Len(t, m.IndexBytes(), 6*32*31*4)

	for _, idx := range m.Indices {
		require.Less(t, int(idx), len(m.Vertices))
	}
}

func TestSphereRadius(t *testing.T) {
	m := NewSphere(WithRadius(5), WithSegments(8, 6))
	for _, v := range m.Vertices {
		p := mgl32.Vec3(v.Position)
		assert.InDelta(t, 5.0, float64(p.Len()), 1e-4)
	}
}

func TestSphereMinimumSegments(t *testing.T) {
	m := NewSphere(WithSegments(1, 1))
	assert.Len(t, m.Vertices, 4*3)
}

// faceOrientation returns the sign of the triangle normal against the direction from the
// centre to the triangle: positive faces outward, negative faces inward.
func faceOrientation(m *Mesh, tri int) float32 {
	p0 := mgl32.Vec3(m.Vertices[m.Indices[tri*3]].Position)
	p1 := mgl32.Vec3(m.Vertices[m.Indices[tri*3+1]].Position)
	p2 := mgl32.Vec3(m.Vertices[m.Indices[tri*3+2]].Position)
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	centroid := p0.Add(p1).Add(p2).Mul(1.0 / 3)
	return n.Dot(centroid)
}

func TestSphereWinding(t *testing.T) {
	outward := NewSphere(WithInverted(false), WithSegments(16, 8))
	inward := NewSphere(WithSegments(16, 8))

	for tri := 0; tri < outward.IndexCount()/3; tri++ {
		assert.Greater(t, faceOrientation(outward, tri), float32(0))
		assert.Less(t, faceOrientation(inward, tri), float32(0))
	}
}

func TestSphereInversionMirrorsX(t *testing.T) {
	outward := NewSphere(WithInverted(false), WithSegments(4, 4))
	inward := NewSphere(WithSegments(4, 4))
	for i := range outward.Vertices {
		assert.Equal(t, -outward.Vertices[i].Position[0], inward.Vertices[i].Position[0])
		assert.Equal(t, outward.Vertices[i].TexCoord, inward.Vertices[i].TexCoord)
	}
}

func TestGPUVertexMarshal(t *testing.T) {
	v := GPUVertex{Position: [3]float32{1, 2, 3}, TexCoord: [2]float32{0.25, 0.75}}
	assert.Equal(t, GPUVertexStride, v.Size())
	buf := v.Marshal()
	assert.Len(t, buf, GPUVertexStride)

	m := &Mesh{Vertices: []GPUVertex{v}}
	assert.Equal(t, buf, m.VertexBytes())
}
