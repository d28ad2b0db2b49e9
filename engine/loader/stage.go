package loader

import (
	"fmt"
	"image"
)

// VideoRegion places a video source on the panorama canvas, in canvas pixels.
type VideoRegion struct {
	URL    string `json:"url" yaml:"url"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// Rect returns the destination rectangle of the region.
func (v VideoRegion) Rect() image.Rectangle {
	return image.Rect(v.X, v.Y, v.X+v.Width, v.Y+v.Height)
}

// Stage describes one panorama: a background image and the videos composited over it.
// Stages are immutable after load.
type Stage struct {
	Name       string        `json:"name" yaml:"name"`
	OuterImage string        `json:"outerImage" yaml:"outerImage"`
	Videos     []VideoRegion `json:"videos" yaml:"videos"`
}

// Validate checks that every video region has a URL and a positive size.
//
// Returns:
//   - error: an error wrapping ErrInvalidStage, or nil
func (s Stage) Validate() error {
	for i, v := range s.Videos {
		if v.URL == "" {
			return fmt.Errorf("stage %q video %d: missing url: %w", s.Name, i, ErrInvalidStage)
		}
		if v.Width <= 0 || v.Height <= 0 {
			return fmt.Errorf("stage %q video %d: size %dx%d: %w", s.Name, i, v.Width, v.Height, ErrInvalidStage)
		}
	}
	return nil
}

// stageList is the document form of a stage file.
type stageList struct {
	Stages []Stage `json:"stages" yaml:"stages"`
}
