// Package mediatest provides in-memory media sources for tests.
package mediatest

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/engine/media"
)

// Solid returns a w x h RGBA image filled with c.
func Solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// Image is an ImageSource that returns a fixed image or error. When Gate is non-nil,
// Decode blocks until a value is received from it.
type Image struct {
	Name  string
	Img   image.Image
	Err   error
	Gate  chan struct{}
	mu    sync.Mutex
	calls int
}

var _ media.ImageSource = &Image{}

func (i *Image) URL() string {
	return i.Name
}

func (i *Image) Decode() (image.Image, error) {
	if i.Gate != nil {
		<-i.Gate
	}
	i.mu.Lock()
	i.calls++
	i.mu.Unlock()
	if i.Err != nil {
		return nil, fmt.Errorf("decode %q: %v: %w", i.Name, i.Err, media.ErrAssetLoad)
	}
	return i.Img, nil
}

// Calls returns how many times Decode completed.
func (i *Image) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

// Video is a VideoSource whose frame is set by the test.
type Video struct {
	mu      sync.Mutex
	name    string
	frame   image.Image
	playing bool
	closed  bool
	plays   int
	pauses  int
}

var _ media.VideoSource = &Video{}

// NewVideo returns a paused video that will report frame once playing.
func NewVideo(name string, frame image.Image) *Video {
	return &Video{name: name, frame: frame}
}

func (v *Video) URL() string {
	return v.name
}

func (v *Video) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("video %q closed", v.name)
	}
	if !v.playing {
		v.playing = true
		v.plays++
	}
	return nil
}

func (v *Video) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing {
		v.playing = false
		v.pauses++
	}
}

func (v *Video) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *Video) Frame() image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

// SetFrame replaces the current frame.
func (v *Video) SetFrame(img image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frame = img
}

func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.playing = false
	return nil
}

// Closed reports whether Close was called.
func (v *Video) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Transitions returns how many times playback started and paused.
func (v *Video) Transitions() (plays, pauses int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.plays, v.pauses
}

// Opener serves sources from maps keyed by URL. Unknown URLs fail with media.ErrAssetLoad.
type Opener struct {
	mu     sync.Mutex
	Images map[string]*Image
	Videos map[string]*Video
}

var _ media.Opener = &Opener{}

func (o *Opener) OpenImage(url string) (media.ImageSource, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if img, ok := o.Images[url]; ok {
		return img, nil
	}
	return nil, fmt.Errorf("open image %q: %w", url, media.ErrAssetLoad)
}

func (o *Opener) OpenVideo(url string) (media.VideoSource, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v, ok := o.Videos[url]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("open video %q: %w", url, media.ErrAssetLoad)
}
