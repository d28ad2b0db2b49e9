// Package compositor maintains the panorama texture canvas: a fixed-size RGBA image holding a
// scaled background with live video frames blitted into their bound regions.
package compositor

import (
	"errors"
	"image"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"golang.org/x/image/draw"
)

// ErrSuperseded is reported by SetBackground when a newer background was requested before
// this one finished decoding. The stale image is discarded.
var ErrSuperseded = errors.New("background superseded by a newer request")

// videoRegion binds a video source to a destination rectangle on the canvas.
type videoRegion struct {
	src  media.VideoSource
	rect image.Rectangle
}

// compositorImpl is the implementation of the Compositor interface.
type compositorImpl struct {
	mu *sync.Mutex

	width  int
	height int
	canvas *image.RGBA
	dirty  bool

	// generation increments on every SetBackground; only the newest decode may draw.
	generation uint64

	regions []videoRegion
	scaler  draw.Scaler

	pool     worker.DynamicWorkerPool
	poolOnce sync.Once
	workers  int
}

// Compositor owns a panorama canvas and tracks whether the GPU copy is stale.
//
// All drawing happens under the compositor's mutex so background decodes finishing on a
// worker never race the per-frame composite or upload.
type Compositor interface {
	model.Texture

	// SetBackground decodes src on a worker and draws it scaled over the whole canvas.
	// When called again before a decode completes, only the latest request draws.
	//
	// Parameters:
	//   - src: the image source to decode
	//
	// Returns:
	//   - <-chan error: receives nil once drawn, ErrSuperseded when discarded, or the
	//     decode error wrapping media.ErrAssetLoad; closed afterwards
	SetBackground(src media.ImageSource) <-chan error

	// BindVideoRegion registers a video source drawn into rect on each CompositeFrame.
	// Nothing is drawn until the next composite.
	//
	// Parameters:
	//   - src: the video source
	//   - rect: destination rectangle in canvas pixels
	BindVideoRegion(src media.VideoSource, rect image.Rectangle)

	// Regions returns the number of bound video regions.
	Regions() int

	// CompositeFrame draws the current frame of every playing video that has one into its
	// region and marks the canvas dirty when anything was drawn.
	//
	// Returns:
	//   - int: the number of regions drawn
	CompositeFrame() int

	// NeedsUpdate reports whether the canvas changed since the last Upload.
	NeedsUpdate() bool

	// Snapshot returns a copy of the canvas.
	Snapshot() *image.RGBA
}

var _ Compositor = &compositorImpl{}

// NewCompositor creates a transparent canvas, 3840x1920 unless configured otherwise.
//
// Parameters:
//   - options: functional options to configure the compositor
//
// Returns:
//   - Compositor: the newly created compositor
func NewCompositor(options ...CompositorBuilderOption) Compositor {
	c := &compositorImpl{
		mu:      &sync.Mutex{},
		width:   3840,
		height:  1920,
		scaler:  draw.ApproxBiLinear,
		workers: max(runtime.NumCPU()/2, 1),
	}
	for _, opt := range options {
		opt(c)
	}
	c.canvas = image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	return c
}

func (c *compositorImpl) Size() (int, int) {
	return c.width, c.height
}

func (c *compositorImpl) SetBackground(src media.ImageSource) <-chan error {
	done := make(chan error, 1)

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	c.workerPool().SubmitTask(worker.Task{
		ID: int(gen),
		Do: func() (any, error) {
			defer close(done)
			img, err := src.Decode()
			if err != nil {
				log.Printf("[Compositor] background %q failed: %v", src.URL(), err)
				done <- err
				return nil, nil
			}
			done <- c.drawBackground(gen, img)
			return nil, nil
		},
	})
	return done
}

func (c *compositorImpl) BindVideoRegion(src media.VideoSource, rect image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regions = append(c.regions, videoRegion{src: src, rect: rect.Canon()})
}

func (c *compositorImpl) Regions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.regions)
}

func (c *compositorImpl) CompositeFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	drawn := 0
	for _, r := range c.regions {
		if r.rect.Empty() || !r.src.Playing() {
			continue
		}
		frame := r.src.Frame()
		if frame == nil {
			continue
		}
		c.scaler.Scale(c.canvas, r.rect, frame, frame.Bounds(), draw.Src, nil)
		drawn++
	}
	if drawn > 0 {
		c.dirty = true
	}
	return drawn
}

func (c *compositorImpl) NeedsUpdate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

func (c *compositorImpl) Upload(fn func(pix []byte, width, height int)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return false
	}
	fn(c.canvas.Pix, c.width, c.height)
	c.dirty = false
	return true
}

func (c *compositorImpl) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := image.NewRGBA(c.canvas.Rect)
	copy(cp.Pix, c.canvas.Pix)
	return cp
}

// drawBackground scales img into a scratch canvas outside the lock and swaps it in if gen
// is still the newest request.
func (c *compositorImpl) drawBackground(gen uint64, img image.Image) error {
	scratch := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	c.scaler.Scale(scratch, scratch.Bounds(), img, img.Bounds(), draw.Src, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrSuperseded
	}
	c.canvas = scratch
	c.dirty = true
	return nil
}

// workerPool returns the configured pool, creating a private one on first use.
func (c *compositorImpl) workerPool() worker.DynamicWorkerPool {
	c.poolOnce.Do(func() {
		if c.pool == nil {
			c.pool = worker.NewDynamicWorkerPool(c.workers, 16, 1*time.Second)
		}
	})
	return c.pool
}
