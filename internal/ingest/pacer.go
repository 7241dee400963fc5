package ingest

import (
	"context"
	"time"
)

// Pacer blocks between fetched items to stay under the API rate limit.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer sleeps Delay. Free-tier Polygon allows 5 req/min, hence the 12s default.
type FixedPacer struct {
	Delay time.Duration
}

// DefaultDelay is the pause after every fetched item.
const DefaultDelay = 12 * time.Second

func (p FixedPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
