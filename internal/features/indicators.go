package features

import (
	"sort"

	"github.com/thrasher-corp/gct-ta/indicators"

	"market-ingest/internal/model"
)

// Indicator parameters, matching the remote RSI/MACD requests.
const (
	RSIPeriod  = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// LocalIndicators computes RSI and the MACD line from bar closes with gct-ta.
// Warm-up entries are omitted, so a LeftJoin leaves them nil. Series that are
// too short for the lookback are returned empty.
func LocalIndicators(bars []model.Bar) map[model.IndicatorKind][]model.IndicatorPoint {
	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
	}

	out := make(map[model.IndicatorKind][]model.IndicatorPoint, 2)
	if len(closes) > RSIPeriod {
		out[model.RSI] = points(sorted, indicators.RSI(closes, RSIPeriod), RSIPeriod)
	}
	// same guard as the kline helpers: MACD needs slow+signal-2 points
	if lookback := MACDSlow + MACDSignal - 2; len(closes) > lookback {
		macd, _, _ := indicators.MACD(closes, MACDFast, MACDSlow, MACDSignal)
		out[model.MACD] = points(sorted, macd, lookback)
	}
	return out
}

func points(bars []model.Bar, vals []float64, skip int) []model.IndicatorPoint {
	if len(vals) > len(bars) {
		vals = vals[:len(bars)]
	}
	if skip >= len(vals) {
		return nil
	}
	out := make([]model.IndicatorPoint, 0, len(vals)-skip)
	for i := skip; i < len(vals); i++ {
		out = append(out, model.IndicatorPoint{Timestamp: bars[i].Timestamp, Value: vals[i]})
	}
	return out
}
