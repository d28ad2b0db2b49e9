package model

import (
	"math"
)

type sphereConfig struct {
	name           string
	radius         float32
	widthSegments  int
	heightSegments int
	inverted       bool
}

// NewSphere builds a UV sphere. Defaults to a unit sphere with 32x32 segments, inverted so
// the textured faces point toward a viewer at the centre.
//
// The vertex grid has (widthSegments+1) x (heightSegments+1) vertices so the texture seam and
// the poles get their own UVs. The pole rows emit a single triangle per segment.
//
// Parameters:
//   - options: functional options to configure the sphere
//
// Returns:
//   - *Mesh: the generated mesh
func NewSphere(options ...SphereBuilderOption) *Mesh {
	cfg := sphereConfig{
		name:           "panorama_sphere",
		radius:         1,
		widthSegments:  32,
		heightSegments: 32,
		inverted:       true,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.widthSegments < 3 {
		cfg.widthSegments = 3
	}
	if cfg.heightSegments < 2 {
		cfg.heightSegments = 2
	}

	w, h := cfg.widthSegments, cfg.heightSegments
	mesh := &Mesh{
		Name:     cfg.name,
		Vertices: make([]GPUVertex, 0, (w+1)*(h+1)),
		Indices:  make([]uint32, 0, 6*w*(h-1)),
	}

	// Mirroring x flips the handedness of every triangle, so the unchanged index order
	// becomes counter-clockwise for a viewer inside the sphere and the texture reads unmirrored.
	xSign := float32(1)
	if cfg.inverted {
		xSign = -1
	}

	for iy := 0; iy <= h; iy++ {
		v := float64(iy) / float64(h)
		theta := v * math.Pi
		for ix := 0; ix <= w; ix++ {
			u := float64(ix) / float64(w)
			phi := u * 2 * math.Pi
			x := -cfg.radius * float32(math.Cos(phi)*math.Sin(theta))
			y := cfg.radius * float32(math.Cos(theta))
			z := cfg.radius * float32(math.Sin(phi)*math.Sin(theta))
			mesh.Vertices = append(mesh.Vertices, GPUVertex{
				Position: [3]float32{x * xSign, y, z},
				TexCoord: [2]float32{float32(u), float32(v)},
			})
		}
	}

	row := uint32(w + 1)
	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			a := uint32(iy)*row + uint32(ix) + 1
			b := uint32(iy)*row + uint32(ix)
			c := uint32(iy+1)*row + uint32(ix)
			d := uint32(iy+1)*row + uint32(ix) + 1
			if iy != 0 {
				mesh.Indices = append(mesh.Indices, a, b, d)
			}
			if iy != h-1 {
				mesh.Indices = append(mesh.Indices, b, c, d)
			}
		}
	}
	return mesh
}
