package polygon

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"market-ingest/internal/model"
)

const (
	// Max 50k results per request
	maxLimit = 50000

	// Max days per 1-minute aggregates request (~50k bars / ~960 min/day ≈ 52 days; use 50 for safety)
	maxDaysPerRequest = 50

	// Minutes per trading day (max, extended hours)
	minPerDay = 960
)

// estimatedBars returns pre-alloc capacity for [from, to] so appends rarely grow.
func estimatedBars(g model.Granularity, from, to time.Time) int {
	if from.After(to) {
		return 0
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if g != model.Minute {
		return days
	}
	n := days * minPerDay
	n = n + n/10
	if n > 500000 {
		n = 500000 // 504 days * 960 min/day
	}
	return n
}

// splitDateRangeIntoChunks splits [from, to] on UTC day boundaries into pieces
// of at most maxDays days so each request stays under maxLimit bars. Chunks
// neither overlap nor leave gaps.
func splitDateRangeIntoChunks(from, to time.Time, maxDays int) [][2]time.Time {
	var chunks [][2]time.Time
	start := from.UTC()
	end := to.UTC()

	if start.After(end) || maxDays <= 0 {
		return chunks
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for currentStart := start; !currentStart.After(end); {
		next := day.AddDate(0, 0, maxDays)
		currentEnd := next.Add(-time.Millisecond)
		if currentEnd.After(end) {
			currentEnd = end
		}
		chunks = append(chunks, [2]time.Time{currentStart, currentEnd})
		currentStart, day = next, next
	}

	return chunks
}

// FetchBars fetches adjusted aggregates for ticker over [from, to], oldest first.
// Minute ranges are split into 50-day chunks. Inside a chunk next_url is
// followed only while pages come back full; a short page is the end of history.
func (c *Client) FetchBars(ctx context.Context, ticker string, g model.Granularity, from, to time.Time) ([]model.Bar, error) {
	if from.After(to) {
		return []model.Bar{}, nil
	}
	chunks := [][2]time.Time{{from.UTC(), to.UTC()}}
	if g == model.Minute {
		chunks = splitDateRangeIntoChunks(from, to, maxDaysPerRequest)
	}
	if len(chunks) > 1 {
		slog.Debug("split aggregates range", "ticker", ticker, "chunks", len(chunks))
	}

	bars := make([]model.Bar, 0, estimatedBars(g, from, to))
	for _, ch := range chunks {
		target := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/%s/%d/%d",
			url.PathEscape(ticker), g.Timespan(), ch[0].UnixMilli(), ch[1].UnixMilli())
		params := map[string]string{
			"adjusted": "true",
			"sort":     "asc",
			"limit":    strconv.Itoa(c.aggLimit),
		}
		for target != "" {
			var page AggregatesResponse
			if err := c.getJSON(ctx, target, params, &page); err != nil {
				return nil, fmt.Errorf("aggregates %s: %w", ticker, err)
			}
			for _, raw := range page.Results {
				bars = append(bars, raw.ToBar())
			}
			if page.NextURL == "" || len(page.Results) < c.aggLimit {
				break
			}
			// next_url carries its own query apart from the key
			target, params = page.NextURL, nil
		}
	}
	return bars, nil
}
