package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pano/engine/viewport"
	"github.com/Carmen-Shannon/oxy-pano/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/panorama.wgsl
var panoramaSource string

// ErrNoFrame is returned by Render outside a BeginFrame / EndFrame pair.
var ErrNoFrame = errors.New("render called outside a frame")

// drawableResources tracks the GPU objects created for one drawable.
type drawableResources struct {
	provider bind_group_provider.BindGroupProvider
	width    int
	height   int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	size        common.Size
	pixelRatio  float32
	clearColor  color.RGBA
	scissorTest bool

	inFrame    bool
	target     viewport.Target
	hasTarget  bool
	scissor    [4]uint32
	hasScissor bool

	meshes    map[*model.Mesh]bind_group_provider.BindGroupProvider
	drawables map[string]*drawableResources

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer draws panorama drawables into rectangles of one shared surface.
//
// Sizes and rectangles passed in are page pixels; the renderer scales them by its pixel ratio.
// GPU resources are created lazily the first time a drawable or mesh is rendered: one vertex and
// index buffer pair per mesh and one uniform buffer, texture and bind group per drawable ID.
type Renderer interface {
	// Size returns the size passed to the last Resize.
	//
	// Returns:
	//   - common.Size: the size in page pixels
	Size() common.Size

	// Resize configures the underlying surface for a new size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width in page pixels
	//   - height: the new height in page pixels
	Resize(width, height int)

	// PixelRatio returns the number of surface pixels per page pixel.
	PixelRatio() float32

	// SetPixelRatio changes the pixel ratio. Takes effect at the next Resize.
	//
	// Parameters:
	//   - ratio: surface pixels per page pixel, ignored when not positive
	SetPixelRatio(ratio float32)

	// SetClearColor sets the color the frame is cleared to at BeginFrame.
	//
	// Parameters:
	//   - c: the clear color in sRGB
	SetClearColor(c color.RGBA)

	// SetScissorTest enables or disables clipping to the rectangle set with SetScissor. When
	// disabled draws are clipped only by the surface.
	//
	// Parameters:
	//   - enabled: whether the scissor rectangle applies
	SetScissorTest(enabled bool)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all Render invocations within a single frame.
	//
	// Returns:
	//   - error: ErrSurfaceUnavailable while the surface has no area, or an acquisition error
	BeginFrame() error

	// SetViewport sets the rectangle the next draws map into. Parts outside the surface are
	// clipped without distorting the image.
	//
	// Parameters:
	//   - v: the rectangle in page pixels with a bottom-left origin
	SetViewport(v common.Viewport)

	// SetScissor sets the rectangle the next draws are clipped to.
	//
	// Parameters:
	//   - v: the rectangle in page pixels with a bottom-left origin
	SetScissor(v common.Viewport)

	// Render draws d into the current viewport. Its texture is uploaded first when it changed.
	// Draws whose viewport or scissor lies entirely outside the surface are skipped.
	//
	// Parameters:
	//   - d: the drawable
	//
	// Returns:
	//   - error: ErrNoFrame outside a frame, or a resource creation error
	Render(d model.Drawable) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface; call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees the GPU resources created for a drawable ID.
	//
	// Parameters:
	//   - id: the drawable ID
	Release(id string)

	// Close releases every GPU resource and the device.
	Close()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer drawing into the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window providing the surface descriptor, initial size and pixel ratio
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: an error if the GPU device or pipeline could not be created
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		pixelRatio:  win.PixelRatio(),
		clearColor:  color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
		scissorTest: true,
		meshes:      make(map[*model.Mesh]bind_group_provider.BindGroupProvider),
		drawables:   make(map[string]*drawableResources),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if r.pixelRatio <= 0 {
		r.pixelRatio = 1
	}

	msaa := MSAAOff
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}
	if err != nil {
		return nil, fmt.Errorf("create renderer backend: %w", err)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	source, err := processPanoramaShader()
	if err != nil {
		r.backend.Release()
		return nil, err
	}

	r.Resize(win.Width(), win.Height())
	if err := r.backend.RegisterPanoramaPipeline(source); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("register panorama pipeline: %w", err)
	}
	return r, nil
}

func (r *renderer) Size() common.Size {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	r.size = common.Size{Width: width, Height: height}
	ratio := r.pixelRatio
	r.mu.Unlock()

	r.backend.ConfigureSurface(int(math.Round(float64(float32(width)*ratio))), int(math.Round(float64(float32(height)*ratio))))
}

func (r *renderer) PixelRatio() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pixelRatio
}

func (r *renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pixelRatio = ratio
}

func (r *renderer) SetClearColor(c color.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = c
}

func (r *renderer) SetScissorTest(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scissorTest = enabled
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	c := r.clearColor
	r.mu.Unlock()

	if err := r.backend.BeginFrame(clearValue(c, r.backend.SurfaceSRGB())); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFrame = true
	r.hasTarget = false
	r.hasScissor = false
	return nil
}

func (r *renderer) SetViewport(v common.Viewport) {
	w, h := r.backend.SurfaceSize()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target, r.hasTarget = viewport.Resolve(v, float32(w), float32(h), r.pixelRatio)
}

func (r *renderer) SetScissor(v common.Viewport) {
	w, h := r.backend.SurfaceSize()
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := viewport.Resolve(v, float32(w), float32(h), r.pixelRatio)
	r.hasScissor = ok
	if ok {
		x, y, sw, sh := t.Scissor()
		r.scissor = [4]uint32{x, y, sw, sh}
	}
}

func (r *renderer) Render(d model.Drawable) error {
	r.mu.Lock()
	if !r.inFrame {
		r.mu.Unlock()
		return ErrNoFrame
	}
	if !r.hasTarget {
		r.mu.Unlock()
		return nil
	}
	target := r.target
	scissor := r.scissor
	if !r.scissorTest {
		w, h := r.backend.SurfaceSize()
		scissor = [4]uint32{0, 0, w, h}
	} else if !r.hasScissor {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	meshProvider, err := r.meshProvider(d.Mesh())
	if err != nil {
		return err
	}
	res, err := r.drawableResources(d)
	if err != nil {
		return err
	}

	d.Texture().Upload(func(pix []byte, width, height int) {
		r.backend.WriteTexture(res.provider, pix, width, height)
	})

	uniform := camera.GPUCameraUniform{ViewProj: target.Correction.Mul4(d.ViewProjection())}
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: res.provider, Binding: UniformBinding, Data: uniform.Marshal()},
	})
	r.backend.DrawCall(meshProvider, res.provider, target, scissor)
	return nil
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	r.inFrame = false
	r.mu.Unlock()
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.drawables[id]; ok {
		res.provider.Release()
		delete(r.drawables, id)
	}
}

func (r *renderer) Close() {
	r.mu.Lock()
	for id, res := range r.drawables {
		res.provider.Release()
		delete(r.drawables, id)
	}
	for m, p := range r.meshes {
		p.Release()
		delete(r.meshes, m)
	}
	r.mu.Unlock()
	r.backend.Release()
}

// meshProvider returns the GPU buffers for mesh, uploading it on first use.
func (r *renderer) meshProvider(mesh *model.Mesh) (bind_group_provider.BindGroupProvider, error) {
	if mesh == nil {
		return nil, errors.New("drawable has no mesh")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.meshes[mesh]; ok {
		return p, nil
	}
	p := bind_group_provider.NewBindGroupProvider(mesh.Name, bind_group_provider.WithIndexCount(mesh.IndexCount()))
	if err := r.backend.InitMeshBuffers(p, mesh.VertexBytes(), mesh.IndexBytes(), mesh.IndexCount()); err != nil {
		p.Release()
		return nil, fmt.Errorf("upload mesh %s: %w", mesh.Name, err)
	}
	r.meshes[mesh] = p
	return p, nil
}

// drawableResources returns the bind group resources for d, recreating them when its texture
// size changed.
func (r *renderer) drawableResources(d model.Drawable) (*drawableResources, error) {
	w, h := d.Texture().Size()
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.drawables[d.ID()]; ok {
		if res.width == w && res.height == h {
			return res, nil
		}
		res.provider.Release()
		delete(r.drawables, d.ID())
	}

	p := bind_group_provider.NewBindGroupProvider(d.ID())
	if err := r.backend.InitDrawable(p, w, h); err != nil {
		p.Release()
		return nil, fmt.Errorf("init drawable %s: %w", d.ID(), err)
	}
	res := &drawableResources{provider: p, width: w, height: h}
	r.drawables[d.ID()] = res
	return res, nil
}

// processPanoramaShader expands the panorama shader annotations and checks that its bindings
// match the bind group layout the backend creates.
func processPanoramaShader() (string, error) {
	pp := shader.NewPreProcessor()
	source, err := pp.Process(panoramaSource)
	if err != nil {
		return "", fmt.Errorf("process panorama shader: %w", err)
	}
	want := map[shader.AnnotationArg]int{
		shader.AnnotationArgCamera:          UniformBinding,
		shader.AnnotationArgPanoramaTexture: TextureBinding,
		shader.AnnotationArgPanoramaSampler: SamplerBinding,
	}
	for key, binding := range want {
		g, b, ok := pp.Binding(key)
		if !ok || g != 0 || b != binding {
			return "", fmt.Errorf("panorama shader: %s must be declared at group 0 binding %d", key, binding)
		}
	}
	return source, nil
}

// clearValue converts an sRGB color to the render pass clear value. sRGB surfaces expect linear values.
func clearValue(c color.RGBA, srgb bool) wgpu.Color {
	channel := func(v uint8) float64 {
		f := float64(v) / 255
		if !srgb {
			return f
		}
		if f <= 0.04045 {
			return f / 12.92
		}
		return math.Pow((f+0.055)/1.055, 2.4)
	}
	return wgpu.Color{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: float64(c.A) / 255}
}
