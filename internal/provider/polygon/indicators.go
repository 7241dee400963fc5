package polygon

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"market-ingest/internal/model"
)

const (
	indicatorLimit = 5000

	rsiWindow        = 14
	macdShortWindow  = 12
	macdLongWindow   = 26
	macdSignalWindow = 9
)

// FetchIndicator fetches a server-computed indicator series on closes,
// oldest first. For MACD the MACD line is returned.
func (c *Client) FetchIndicator(ctx context.Context, ticker string, kind model.IndicatorKind, g model.Granularity, from, to time.Time) ([]model.IndicatorPoint, error) {
	params := map[string]string{
		"timespan":      g.Timespan(),
		"adjusted":      "true",
		"series_type":   "close",
		"order":         "asc",
		"limit":         strconv.Itoa(c.indLimit),
		"timestamp.gte": strconv.FormatInt(from.UnixMilli(), 10),
		"timestamp.lte": strconv.FormatInt(to.UnixMilli(), 10),
	}
	switch kind {
	case model.RSI:
		params["window"] = strconv.Itoa(rsiWindow)
	case model.MACD:
		params["short_window"] = strconv.Itoa(macdShortWindow)
		params["long_window"] = strconv.Itoa(macdLongWindow)
		params["signal_window"] = strconv.Itoa(macdSignalWindow)
	default:
		return nil, fmt.Errorf("unsupported indicator %q", kind)
	}

	target := fmt.Sprintf("/v1/indicators/%s/%s", kind, url.PathEscape(ticker))
	var points []model.IndicatorPoint
	for target != "" {
		var page IndicatorResponse
		if err := c.getJSON(ctx, target, params, &page); err != nil {
			return nil, fmt.Errorf("%s %s: %w", kind, ticker, err)
		}
		for _, v := range page.Results.Values {
			points = append(points, model.IndicatorPoint{
				Timestamp: model.FromMillis(v.Timestamp),
				Value:     v.Value,
			})
		}
		if len(page.Results.Values) == 0 {
			break
		}
		target, params = page.NextURL, nil
	}
	return points, nil
}
