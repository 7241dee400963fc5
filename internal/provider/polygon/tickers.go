package polygon

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"time"

	"market-ingest/internal/model"
)

const tickersPageLimit = 1000

// ListInstruments pages /v3/reference/tickers following next_url and yields
// matching instruments one by one. It stops at the last page, at filter.Limit,
// or when the consumer stops. On error it yields the error once and stops.
func (c *Client) ListInstruments(ctx context.Context, filter model.InstrumentFilter) iter.Seq2[model.Instrument, error] {
	return func(yield func(model.Instrument, error) bool) {
		params := map[string]string{
			"active": strconv.FormatBool(filter.Active),
			"limit":  strconv.Itoa(tickersPageLimit),
			"order":  "asc",
			"sort":   "ticker",
		}
		if filter.Market != "" {
			params["market"] = filter.Market
		}
		if filter.Locale != "" {
			params["locale"] = filter.Locale
		}
		if filter.Type != "" {
			params["type"] = filter.Type
		}

		target := "/v3/reference/tickers"
		yielded := 0
		for page := 1; target != ""; page++ {
			if page > 1 && filter.PageDelay > 0 {
				if err := sleepCtx(ctx, filter.PageDelay); err != nil {
					yield(model.Instrument{}, err)
					return
				}
			}
			var resp TickersResponse
			if err := c.getJSON(ctx, target, params, &resp); err != nil {
				yield(model.Instrument{}, fmt.Errorf("tickers page %d: %w", page, err))
				return
			}
			slog.Debug("tickers page", "page", page, "results", len(resp.Results))
			for _, t := range resp.Results {
				// the type filter is re-checked locally, the listing is not always strict
				if t.Ticker == "" || (filter.Type != "" && t.Type != filter.Type) {
					continue
				}
				if !yield(t.ToInstrument(), nil) {
					return
				}
				yielded++
				if filter.Limit > 0 && yielded >= filter.Limit {
					return
				}
			}
			if len(resp.Results) == 0 {
				return
			}
			target, params = resp.NextURL, nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
