package model

// SphereBuilderOption is a functional option for configuring NewSphere.
type SphereBuilderOption func(*sphereConfig)

// WithName sets the mesh name used for GPU buffer labels.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - SphereBuilderOption: option function to apply
func WithName(name string) SphereBuilderOption {
	return func(c *sphereConfig) {
		c.name = name
	}
}

// WithRadius sets the sphere radius.
//
// Parameters:
//   - radius: radius in world units
//
// Returns:
//   - SphereBuilderOption: option function to apply
func WithRadius(radius float32) SphereBuilderOption {
	return func(c *sphereConfig) {
		c.radius = radius
	}
}

// WithSegments sets the horizontal and vertical tessellation.
//
// Parameters:
//   - width: segments around the equator (minimum 3)
//   - height: segments from pole to pole (minimum 2)
//
// Returns:
//   - SphereBuilderOption: option function to apply
func WithSegments(width, height int) SphereBuilderOption {
	return func(c *sphereConfig) {
		c.widthSegments = width
		c.heightSegments = height
	}
}

// WithInverted controls whether faces point inward (panorama) or outward (globe).
//
// Parameters:
//   - inverted: true for a viewer inside the sphere
//
// Returns:
//   - SphereBuilderOption: option function to apply
func WithInverted(inverted bool) SphereBuilderOption {
	return func(c *sphereConfig) {
		c.inverted = inverted
	}
}
