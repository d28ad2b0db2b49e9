package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// openerImpl is the implementation of the Opener interface.
type openerImpl struct {
	client      *http.Client
	baseDir     string
	videoOpener VideoOpener
}

var _ Opener = &openerImpl{}

// NewOpener creates an Opener for local and HTTP images. Videos are opened through the
// VideoOpener set with WithVideoOpener; without one OpenVideo always fails.
//
// Parameters:
//   - options: functional options to configure the opener
//
// Returns:
//   - Opener: the newly created opener
func NewOpener(options ...OpenerBuilderOption) Opener {
	o := &openerImpl{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *openerImpl) OpenImage(rawURL string) (ImageSource, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("open image: empty url: %w", ErrAssetLoad)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %v: %w", rawURL, err, ErrAssetLoad)
	}
	switch u.Scheme {
	case "http", "https":
		return &httpImage{url: rawURL, client: o.client}, nil
	case "file":
		return &fileImage{url: rawURL, path: u.Path}, nil
	case "":
		return &fileImage{url: rawURL, path: o.resolve(rawURL)}, nil
	default:
		return nil, fmt.Errorf("open image %q: unsupported scheme %q: %w", rawURL, u.Scheme, ErrAssetLoad)
	}
}

func (o *openerImpl) OpenVideo(rawURL string) (VideoSource, error) {
	if o.videoOpener == nil {
		return nil, fmt.Errorf("open video %q: no video decoder configured: %w", rawURL, ErrAssetLoad)
	}
	v, err := o.videoOpener(o.resolve(rawURL))
	if err != nil {
		return nil, fmt.Errorf("open video %q: %v: %w", rawURL, err, ErrAssetLoad)
	}
	return v, nil
}

// resolve joins relative paths onto the base directory.
func (o *openerImpl) resolve(p string) string {
	if o.baseDir == "" || strings.Contains(p, "://") || strings.HasPrefix(p, "/") {
		return p
	}
	return strings.TrimSuffix(o.baseDir, "/") + "/" + p
}

type fileImage struct {
	url  string
	path string
}

func (f *fileImage) URL() string {
	return f.url
}

func (f *fileImage) Decode() (image.Image, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %v: %w", f.url, err, ErrAssetLoad)
	}
	return decodeBytes(f.url, data)
}

type httpImage struct {
	url    string
	client *http.Client
}

func (h *httpImage) URL() string {
	return h.url
}

func (h *httpImage) Decode() (image.Image, error) {
	resp, err := h.client.Get(h.url)
	if err != nil {
		return nil, fmt.Errorf("fetch image %q: %v: %w", h.url, err, ErrAssetLoad)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image %q: status %d: %w", h.url, resp.StatusCode, ErrAssetLoad)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch image %q: %v: %w", h.url, err, ErrAssetLoad)
	}
	return decodeBytes(h.url, data)
}

// decodeBytes decodes any registered image format.
func decodeBytes(name string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %v: %w", name, err, ErrAssetLoad)
	}
	return img, nil
}
