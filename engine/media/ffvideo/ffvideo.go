// Package ffvideo decodes video files with FFmpeg through reisen and exposes them as muted,
// looping media.VideoSource values. Only the first video stream is decoded; audio is ignored.
package ffvideo

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/engine/media"
	"github.com/cogentcore/reisen"
)

// defaultFrameDuration paces streams that do not report a usable frame rate.
const defaultFrameDuration = time.Second / 30

var errNoFrames = errors.New("stream produced no frames")

// videoImpl is a reisen backed media.VideoSource.
//
// A single decode goroutine owns the media and stream handles. It blocks on cond while paused
// and publishes each decoded frame into latest, dropping frames nobody sampled.
type videoImpl struct {
	mu   sync.Mutex
	cond *sync.Cond

	url           string
	media         *reisen.Media
	stream        *reisen.VideoStream
	frameDuration time.Duration

	playing bool
	closed  bool
	latest  *image.RGBA
	seq     uint64
	err     error

	done chan struct{}
}

var _ media.VideoSource = &videoImpl{}

// Open opens url for decoding and starts a paused decode goroutine.
// Its signature matches media.VideoOpener.
//
// Parameters:
//   - url: path or URL understood by FFmpeg
//
// Returns:
//   - media.VideoSource: the paused video
//   - error: error if the container or its video stream cannot be opened
func Open(url string) (media.VideoSource, error) {
	m, err := reisen.NewMedia(url)
	if err != nil {
		return nil, fmt.Errorf("open media %q: %w", url, err)
	}
	if err := m.OpenDecode(); err != nil {
		m.Close()
		return nil, fmt.Errorf("open decode %q: %w", url, err)
	}
	streams := m.VideoStreams()
	if len(streams) == 0 {
		m.CloseDecode()
		m.Close()
		return nil, fmt.Errorf("open %q: no video stream", url)
	}
	stream := streams[0]
	if err := stream.Open(); err != nil {
		m.CloseDecode()
		m.Close()
		return nil, fmt.Errorf("open video stream %q: %w", url, err)
	}

	frameDuration := defaultFrameDuration
	if num, den := stream.FrameRate(); num > 0 && den > 0 {
		frameDuration = time.Duration(float64(time.Second) * float64(den) / float64(num))
	}

	v := &videoImpl{
		url:           url,
		media:         m,
		stream:        stream,
		frameDuration: frameDuration,
		done:          make(chan struct{}),
	}
	v.cond = sync.NewCond(&v.mu)
	go v.run()
	return v, nil
}

func (v *videoImpl) URL() string {
	return v.url
}

func (v *videoImpl) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("play %q: video closed", v.url)
	}
	if v.err != nil {
		return fmt.Errorf("play %q: %w", v.url, v.err)
	}
	if !v.playing {
		v.playing = true
		v.cond.Broadcast()
	}
	return nil
}

func (v *videoImpl) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
}

func (v *videoImpl) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *videoImpl) Frame() image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.latest == nil {
		return nil
	}
	return v.latest
}

func (v *videoImpl) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.playing = false
	v.cond.Broadcast()
	v.mu.Unlock()

	<-v.done
	return nil
}

// waitPlaying blocks until the video is playing. It returns false once the video is closed.
func (v *videoImpl) waitPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for !v.playing && !v.closed {
		v.cond.Wait()
	}
	return !v.closed
}

// publish stores the newest frame.
func (v *videoImpl) publish(img *image.RGBA) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.latest = img
	v.seq++
}

// fail records a fatal decode error and stops playback.
func (v *videoImpl) fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
	v.playing = false
}

// run is the decode goroutine. It paces decoding to the stream frame rate while playing.
func (v *videoImpl) run() {
	defer close(v.done)
	defer func() {
		v.stream.Close()
		v.media.CloseDecode()
		v.media.Close()
	}()

	ticker := time.NewTicker(v.frameDuration)
	defer ticker.Stop()

	for v.waitPlaying() {
		img, err := v.nextFrame()
		if err != nil {
			log.Printf("[Video] %s: decode stopped: %v", v.url, err)
			v.fail(err)
			continue
		}
		v.publish(img)
		<-ticker.C
	}
}

// nextFrame reads packets until the next frame of the decoded stream, rewinding to the start
// when the container is exhausted so playback loops.
func (v *videoImpl) nextFrame() (*image.RGBA, error) {
	rewound := false
	for {
		packet, gotPacket, err := v.media.ReadPacket()
		if err != nil {
			return nil, err
		}
		if !gotPacket {
			if rewound {
				return nil, errNoFrames
			}
			if err := v.stream.Rewind(0); err != nil {
				return nil, fmt.Errorf("rewind: %w", err)
			}
			rewound = true
			continue
		}
		if packet.Type() != reisen.StreamVideo {
			continue
		}
		s, ok := v.media.Streams()[packet.StreamIndex()].(*reisen.VideoStream)
		if !ok || s != v.stream {
			continue
		}
		frame, gotFrame, err := s.ReadVideoFrame()
		if err != nil {
			return nil, err
		}
		if !gotFrame || frame == nil {
			continue
		}
		return frame.Image(), nil
	}
}
