package compositor

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"golang.org/x/image/draw"
)

// CompositorBuilderOption is a functional option for configuring a Compositor.
type CompositorBuilderOption func(*compositorImpl)

// WithSize sets the canvas resolution. Non-positive values keep the default.
//
// Parameters:
//   - width: canvas width in pixels
//   - height: canvas height in pixels
//
// Returns:
//   - CompositorBuilderOption: option function to apply
func WithSize(width, height int) CompositorBuilderOption {
	return func(c *compositorImpl) {
		if width > 0 && height > 0 {
			c.width = width
			c.height = height
		}
	}
}

// WithWorkerPool shares a decode pool between compositors.
//
// Parameters:
//   - pool: the worker pool that runs background decodes
//
// Returns:
//   - CompositorBuilderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) CompositorBuilderOption {
	return func(c *compositorImpl) {
		c.pool = pool
	}
}

// WithWorkers sets the size of the private decode pool created when no pool is shared.
//
// Parameters:
//   - n: maximum concurrent decodes (minimum 1)
//
// Returns:
//   - CompositorBuilderOption: option function to apply
func WithWorkers(n int) CompositorBuilderOption {
	return func(c *compositorImpl) {
		c.workers = max(n, 1)
	}
}

// WithScaler sets the resampler used for backgrounds and video frames.
//
// Parameters:
//   - s: the scaler, e.g. draw.NearestNeighbor or draw.CatmullRom
//
// Returns:
//   - CompositorBuilderOption: option function to apply
func WithScaler(s draw.Scaler) CompositorBuilderOption {
	return func(c *compositorImpl) {
		if s != nil {
			c.scaler = s
		}
	}
}
