// Package media defines the image and video sources consumed by the texture compositor,
// plus a default Opener for still images on disk or over HTTP. Video decoding lives behind
// the VideoOpener hook so native decoders stay out of this package.
package media

import (
	"errors"
	"image"
)

// ErrAssetLoad is returned when an image or video cannot be fetched or decoded.
var ErrAssetLoad = errors.New("asset load failed")

// ImageSource is a still image that is decoded on demand.
type ImageSource interface {
	// URL returns the location the image was opened from.
	URL() string

	// Decode fetches and decodes the image. It may block and is safe to call from a worker.
	//
	// Returns:
	//   - image.Image: the decoded image
	//   - error: an error wrapping ErrAssetLoad on failure
	Decode() (image.Image, error)
}

// VideoSource is a muted, looping video whose latest decoded frame can be sampled.
// Playback state is owned by the scene that holds the source.
type VideoSource interface {
	// URL returns the location the video was opened from.
	URL() string

	// Play starts or resumes playback. Calling Play while playing does nothing.
	//
	// Returns:
	//   - error: an error if playback cannot start
	Play() error

	// Pause suspends playback, keeping the current position and frame.
	Pause()

	// Playing reports whether the source is advancing.
	Playing() bool

	// Frame returns the most recently decoded frame, or nil before the first frame is available.
	Frame() image.Image

	// Close stops decoding and releases resources.
	//
	// Returns:
	//   - error: an error if releasing resources fails
	Close() error
}

// Opener creates sources from URLs.
type Opener interface {
	// OpenImage prepares an image source. Fetching and decoding happen in ImageSource.Decode.
	//
	// Parameters:
	//   - url: file path, file:// URL or http(s):// URL
	//
	// Returns:
	//   - ImageSource: the image source
	//   - error: an error wrapping ErrAssetLoad if the URL cannot be used
	OpenImage(url string) (ImageSource, error)

	// OpenVideo opens a video source. The returned source is paused.
	//
	// Parameters:
	//   - url: the video location
	//
	// Returns:
	//   - VideoSource: the video source
	//   - error: an error wrapping ErrAssetLoad if the video cannot be opened
	OpenVideo(url string) (VideoSource, error)
}

// VideoOpener opens a video by URL. Implemented by native decoder packages.
type VideoOpener func(url string) (VideoSource, error)
