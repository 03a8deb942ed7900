package llmclient

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedSink wraps an onChunk callback so chunk delivery never
// exceeds perSecond deltas/sec, bounding how fast a very fast upstream
// can push tokens at a slower client connection. It never reorders or
// drops chunks, only delays delivery.
func RateLimitedSink(ctx context.Context, perSecond float64, onChunk func(StreamChunk) error) func(StreamChunk) error {
	if perSecond <= 0 {
		return onChunk
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	return func(c StreamChunk) error {
		if !c.Done {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return onChunk(c)
	}
}
