// Package config loads the application configuration from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration fails validation or cannot be decoded.
var ErrInvalidConfig = errors.New("invalid config")

// Format identifies a configuration file encoding.
type Format int

const (
	// FormatYAML decodes with gopkg.in/yaml.v3.
	FormatYAML Format = iota
	// FormatTOML decodes with github.com/pelletier/go-toml/v2.
	FormatTOML
)

// CanvasConfig sizes every unit's compositor canvas.
type CanvasConfig struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

// CameraConfig holds the perspective settings shared by all units.
type CameraConfig struct {
	FovDegrees float32 `yaml:"fovDegrees" toml:"fovDegrees"`
	Near       float32 `yaml:"near" toml:"near"`
	Far        float32 `yaml:"far" toml:"far"`
}

// SphereConfig describes the panorama sphere mesh.
type SphereConfig struct {
	Radius         float32 `yaml:"radius" toml:"radius"`
	WidthSegments  int     `yaml:"widthSegments" toml:"widthSegments"`
	HeightSegments int     `yaml:"heightSegments" toml:"heightSegments"`
}

// ControlsConfig tunes the orbit controllers.
type ControlsConfig struct {
	RotateSpeed float32 `yaml:"rotateSpeed" toml:"rotateSpeed"`
	ZoomSpeed   float32 `yaml:"zoomSpeed" toml:"zoomSpeed"`
	Damping     float32 `yaml:"damping" toml:"damping"`
	AutoRotate  float32 `yaml:"autoRotate" toml:"autoRotate"`
}

// RendererConfig configures the GPU renderer.
type RendererConfig struct {
	ClearColor  string  `yaml:"clearColor" toml:"clearColor"`
	PresentMode string  `yaml:"presentMode" toml:"presentMode"`
	MSAA        int     `yaml:"msaa" toml:"msaa"`
	PixelRatio  float32 `yaml:"pixelRatio" toml:"pixelRatio"`
}

// PageConfig lays out the desktop page hosting the scene slots.
type PageConfig struct {
	Width         int     `yaml:"width" toml:"width"`
	Height        int     `yaml:"height" toml:"height"`
	ItemWidth     float32 `yaml:"itemWidth" toml:"itemWidth"`
	ItemHeight    float32 `yaml:"itemHeight" toml:"itemHeight"`
	CaptionHeight float32 `yaml:"captionHeight" toml:"captionHeight"`
	Gap           float32 `yaml:"gap" toml:"gap"`
}

// Config is the full application configuration.
type Config struct {
	Title        string         `yaml:"title" toml:"title"`
	StagesPath   string         `yaml:"stagesPath" toml:"stagesPath"`
	AssetDir     string         `yaml:"assetDir" toml:"assetDir"`
	ActiveScenes []int          `yaml:"activeScenes" toml:"activeScenes"`
	Profiling    bool           `yaml:"profiling" toml:"profiling"`
	MaxDeltaMs   int            `yaml:"maxDeltaMs" toml:"maxDeltaMs"`
	Workers      int            `yaml:"workers" toml:"workers"`
	VideoLimit   int            `yaml:"videoLimit" toml:"videoLimit"`
	Canvas       CanvasConfig   `yaml:"canvas" toml:"canvas"`
	Camera       CameraConfig   `yaml:"camera" toml:"camera"`
	Sphere       SphereConfig   `yaml:"sphere" toml:"sphere"`
	Controls     ControlsConfig `yaml:"controls" toml:"controls"`
	Renderer     RendererConfig `yaml:"renderer" toml:"renderer"`
	Page         PageConfig     `yaml:"page" toml:"page"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Title:        "oxy-pano",
		StagesPath:   "assets/json/data.json",
		ActiveScenes: []int{0},
		MaxDeltaMs:   100,
		VideoLimit:   4,
		Canvas:       CanvasConfig{Width: 3840, Height: 1920},
		Camera:       CameraConfig{FovDegrees: 50, Near: 1, Far: 10},
		Sphere:       SphereConfig{Radius: 5, WidthSegments: 32, HeightSegments: 32},
		Controls:     ControlsConfig{RotateSpeed: 1, ZoomSpeed: 0.05},
		Renderer:     RendererConfig{ClearColor: "#e0e0e0", PresentMode: "fifo", MSAA: 1, PixelRatio: 1},
		Page: PageConfig{
			Width: 1280, Height: 720,
			ItemWidth: 400, ItemHeight: 300, CaptionHeight: 24, Gap: 16,
		},
	}
}

// Load reads a configuration file over the defaults. The format is chosen by extension:
// .yaml/.yml or .toml.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the validated configuration
//   - error: a read error, or an error wrapping ErrInvalidConfig
func Load(path string) (Config, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return Config{}, fmt.Errorf("%s: unknown extension: %w", path, ErrInvalidConfig)
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a configuration document over the defaults. Unknown keys are rejected.
//
// Parameters:
//   - r: the document reader
//   - format: the document encoding
//
// Returns:
//   - Config: the validated configuration
//   - error: an error wrapping ErrInvalidConfig
func Decode(r io.Reader, format Format) (Config, error) {
	cfg := Default()
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		err = fmt.Errorf("format %d not supported", format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode: %v: %w", err, ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig, or nil
func (c Config) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("canvas size %dx%d: %w", c.Canvas.Width, c.Canvas.Height, ErrInvalidConfig)
	case c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180:
		return fmt.Errorf("camera fov %v: %w", c.Camera.FovDegrees, ErrInvalidConfig)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("camera near %v far %v: %w", c.Camera.Near, c.Camera.Far, ErrInvalidConfig)
	case c.Sphere.Radius <= 0:
		return fmt.Errorf("sphere radius %v: %w", c.Sphere.Radius, ErrInvalidConfig)
	case c.Sphere.WidthSegments < 3 || c.Sphere.HeightSegments < 2:
		return fmt.Errorf("sphere segments %dx%d: %w", c.Sphere.WidthSegments, c.Sphere.HeightSegments, ErrInvalidConfig)
	case c.Controls.Damping < 0 || c.Controls.Damping > 1:
		return fmt.Errorf("controls damping %v: %w", c.Controls.Damping, ErrInvalidConfig)
	case c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4:
		return fmt.Errorf("renderer msaa %d: %w", c.Renderer.MSAA, ErrInvalidConfig)
	case c.Renderer.PixelRatio <= 0:
		return fmt.Errorf("renderer pixel ratio %v: %w", c.Renderer.PixelRatio, ErrInvalidConfig)
	case c.MaxDeltaMs < 0 || c.Workers < 0 || c.VideoLimit < 0:
		return fmt.Errorf("negative limits: %w", ErrInvalidConfig)
	case c.Page.Width <= 0 || c.Page.Height <= 0 || c.Page.ItemWidth <= 0 || c.Page.ItemHeight <= 0:
		return fmt.Errorf("page layout: %w", ErrInvalidConfig)
	}
	switch c.Renderer.PresentMode {
	case "fifo", "immediate", "mailbox":
	default:
		return fmt.Errorf("renderer present mode %q: %w", c.Renderer.PresentMode, ErrInvalidConfig)
	}
	if _, err := c.ClearColor(); err != nil {
		return fmt.Errorf("renderer clear color: %v: %w", err, ErrInvalidConfig)
	}
	for _, i := range c.ActiveScenes {
		if i < 0 {
			return fmt.Errorf("active scene index %d: %w", i, ErrInvalidConfig)
		}
	}
	return nil
}

// ClearColor parses Renderer.ClearColor.
//
// Returns:
//   - color.RGBA: the clear color
//   - error: error if the hex string is malformed
func (c Config) ClearColor() (color.RGBA, error) {
	return common.ParseHexColor(c.Renderer.ClearColor)
}

// MaxDelta returns the frame delta cap, or 0 when uncapped.
func (c Config) MaxDelta() time.Duration {
	return time.Duration(c.MaxDeltaMs) * time.Millisecond
}

// IsActive reports whether the scene at index starts active.
func (c Config) IsActive(index int) bool {
	for _, i := range c.ActiveScenes {
		if i == index {
			return true
		}
	}
	return false
}
