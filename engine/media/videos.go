package media

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// OpenVideos opens every url concurrently with at most limit decoders starting at once.
// Failures are logged and leave a nil entry so callers can keep positional correspondence
// with their video regions. The result is only short when ctx is cancelled.
//
// Parameters:
//   - ctx: cancels outstanding opens
//   - opener: the opener used for each url
//   - urls: the video locations
//   - limit: maximum concurrent opens, <= 0 for unlimited
//
// Returns:
//   - []VideoSource: one entry per url, nil where opening failed
//   - error: ctx.Err() if the context was cancelled
func OpenVideos(ctx context.Context, opener Opener, urls []string, limit int) ([]VideoSource, error) {
	out := make([]VideoSource, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, u := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := opener.OpenVideo(u)
			if err != nil {
				log.Printf("[Media] skipping video %q: %v", u, err)
				return nil
			}
			mu.Lock()
			out[i] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, v := range out {
			if v != nil {
				_ = v.Close()
			}
		}
		return nil, err
	}
	return out, nil
}
