package features

import (
	"fmt"
	"sort"
	"strings"

	"market-ingest/internal/model"
)

// Fixed rolling windows of the extended schema.
const (
	MAShortWindow      = 10
	MAMidWindow        = 20
	MALongWindow       = 50
	VolatilityWindow   = 20
	RelVolumeWindow    = 20
	DefaultBenchmarkID = "SPY"
)

// Set selects which feature columns are computed.
type Set string

const (
	// SetBase writes only timestamp/open/high/low/close/volume.
	SetBase Set = "base"
	// SetIntraday adds return, ma10, volatility and volume_change.
	SetIntraday Set = "intraday"
	// SetFull adds every extended column including rs, rsi and macd.
	SetFull Set = "full"
)

// ParseSet accepts base|none|intraday|full.
func ParseSet(s string) (Set, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "base", "none":
		return SetBase, nil
	case "intraday":
		return SetIntraday, nil
	case "full":
		return SetFull, nil
	default:
		return "", fmt.Errorf("unsupported feature set %q (use: base, intraday, full)", s)
	}
}

// Extended reports whether the set writes the extended schema.
func (s Set) Extended() bool { return s != SetBase }

// NeedsBenchmark reports whether rs is computed.
func (s Set) NeedsBenchmark() bool { return s == SetFull }

// NeedsIndicators reports whether rsi/macd are joined in.
func (s Set) NeedsIndicators() bool { return s == SetFull }

// Reference is a benchmark close series keyed by Unix milliseconds.
// Loaded once per run and only read afterwards.
type Reference struct {
	Ticker string
	close  map[int64]float64
}

// NewReference indexes bars by timestamp.
func NewReference(ticker string, bars []model.Bar) *Reference {
	m := make(map[int64]float64, len(bars))
	for _, b := range bars {
		m[model.MillisOf(b.Timestamp)] = b.Close
	}
	return &Reference{Ticker: ticker, close: m}
}

// Len returns the number of indexed points.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.close)
}

// Options carries the inputs shared across a run plus per-instrument indicators.
type Options struct {
	Set        Set
	Benchmark  *Reference
	Indicators map[model.IndicatorKind][]model.IndicatorPoint
}

// Compute converts bars to a table and fills the feature columns of opts.Set.
// Bars are ordered by timestamp first.
func Compute(ticker string, bars []model.Bar, opts Options) *model.Table {
	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	t := &model.Table{
		Ticker:   strings.ToUpper(ticker),
		Extended: opts.Set.Extended(),
		Rows:     make([]model.FeatureRow, len(sorted)),
	}
	closes := make([]float64, len(sorted))
	volumes := make([]float64, len(sorted))
	for i, b := range sorted {
		t.Rows[i] = model.FeatureRow{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}
	if !t.Extended {
		return t
	}

	c := fromValues(closes)
	v := fromValues(volumes)
	ret := pctChange(c)
	ma10 := rollingMean(c, MAShortWindow)
	vol := rollingStd(c, VolatilityWindow)
	volChange := pctChange(v)

	var ma20, ma50, relVol, rs, rsi, macd series
	if opts.Set == SetFull {
		ma20 = rollingMean(c, MAMidWindow)
		ma50 = rollingMean(c, MALongWindow)
		relVol = ratio(v, rollingMean(v, RelVolumeWindow))
		rs = relativeStrength(t.Rows, c, opts.Benchmark)
		rsi = LeftJoin(t.Rows, opts.Indicators[model.RSI])
		macd = LeftJoin(t.Rows, opts.Indicators[model.MACD])
	}

	for i := range t.Rows {
		r := &t.Rows[i]
		r.Return = ret[i]
		r.MA10 = ma10[i]
		r.Volatility = vol[i]
		r.VolumeChange = volChange[i]
		if opts.Set == SetFull {
			r.MA20 = ma20[i]
			r.MA50 = ma50[i]
			r.RelativeVolume = relVol[i]
			r.RS = rs[i]
			r.RSI = rsi[i]
			r.MACD = macd[i]
		}
	}
	return t
}

func relativeStrength(rows []model.FeatureRow, closes series, ref *Reference) series {
	bench := make(series, len(rows))
	if ref != nil {
		for i, r := range rows {
			if v, ok := ref.close[model.MillisOf(r.Timestamp)]; ok {
				bench[i] = ptr(v)
			}
		}
	}
	return ratio(closes, bench)
}

// LeftJoin aligns an indicator series onto the row timestamps. Rows without a
// matching point get nil; points without a matching row are dropped.
func LeftJoin(rows []model.FeatureRow, points []model.IndicatorPoint) []*float64 {
	out := make([]*float64, len(rows))
	if len(points) == 0 {
		return out
	}
	byTS := make(map[int64]float64, len(points))
	for _, p := range points {
		byTS[model.MillisOf(p.Timestamp)] = p.Value
	}
	for i, r := range rows {
		if v, ok := byTS[model.MillisOf(r.Timestamp)]; ok {
			out[i] = ptr(v)
		}
	}
	return out
}
