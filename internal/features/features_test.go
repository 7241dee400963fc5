package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-ingest/internal/model"
)

var day0 = time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)

func makeBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		bars[i] = model.Bar{
			Timestamp: day0.AddDate(0, 0, i),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    int64(1000 + 10*i),
		}
	}
	return bars
}

func countLeadingNil(col []*float64) int {
	n := 0
	for _, v := range col {
		if v != nil {
			break
		}
		n++
	}
	return n
}

func column(rows []model.FeatureRow, f func(model.FeatureRow) *float64) []*float64 {
	out := make([]*float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}

func TestRollingNullPrefix(t *testing.T) {
	const rows = 120
	tbl := Compute("aapl", makeBars(rows), Options{Set: SetFull})
	require.Equal(t, rows, tbl.Len())
	assert.Equal(t, "AAPL", tbl.Ticker)
	assert.True(t, tbl.Extended)

	cases := []struct {
		name   string
		window int
		col    []*float64
	}{
		{"ma10", MAShortWindow, column(tbl.Rows, func(r model.FeatureRow) *float64 { return r.MA10 })},
		{"ma20", MAMidWindow, column(tbl.Rows, func(r model.FeatureRow) *float64 { return r.MA20 })},
		{"ma50", MALongWindow, column(tbl.Rows, func(r model.FeatureRow) *float64 { return r.MA50 })},
		{"volatility", VolatilityWindow, column(tbl.Rows, func(r model.FeatureRow) *float64 { return r.Volatility })},
		{"relative_volume", RelVolumeWindow, column(tbl.Rows, func(r model.FeatureRow) *float64 { return r.RelativeVolume })},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.window-1, countLeadingNil(c.col))
			for i := c.window - 1; i < rows; i++ {
				assert.NotNil(t, c.col[i], "row %d", i)
			}
		})
	}
}

func TestRollingWindowLongerThanTable(t *testing.T) {
	tbl := Compute("X", makeBars(30), Options{Set: SetFull})
	for _, r := range tbl.Rows {
		assert.Nil(t, r.MA50)
	}
}

func TestComputeValues(t *testing.T) {
	tbl := Compute("X", makeBars(25), Options{Set: SetFull})

	// closes 100..124: ma10 at row 9 is mean(100..109)
	require.NotNil(t, tbl.Rows[9].MA10)
	assert.InDelta(t, 104.5, *tbl.Rows[9].MA10, 1e-9)

	require.Nil(t, tbl.Rows[0].Return)
	require.NotNil(t, tbl.Rows[1].Return)
	assert.InDelta(t, 0.01, *tbl.Rows[1].Return, 1e-9)

	// sample std of 20 consecutive integers
	want := math.Sqrt(35)
	require.NotNil(t, tbl.Rows[19].Volatility)
	assert.InDelta(t, want, *tbl.Rows[19].Volatility, 1e-9)

	require.NotNil(t, tbl.Rows[1].VolumeChange)
	assert.InDelta(t, 0.01, *tbl.Rows[1].VolumeChange, 1e-9)
}

func TestComputeBaseSet(t *testing.T) {
	tbl := Compute("X", makeBars(60), Options{Set: SetBase})
	assert.False(t, tbl.Extended)
	for _, r := range tbl.Rows {
		assert.Nil(t, r.MA10)
		assert.Nil(t, r.Return)
	}
	base := tbl.BaseRows()
	require.Len(t, base, 60)
	assert.Equal(t, 159.0, base[59].Close)
}

func TestComputeIntradaySet(t *testing.T) {
	tbl := Compute("X", makeBars(60), Options{Set: SetIntraday})
	assert.True(t, tbl.Extended)
	last := tbl.Rows[59]
	assert.NotNil(t, last.MA10)
	assert.NotNil(t, last.Volatility)
	assert.NotNil(t, last.Return)
	assert.Nil(t, last.MA20)
	assert.Nil(t, last.MA50)
	assert.Nil(t, last.RS)
	assert.Nil(t, last.RSI)
}

func TestComputeSortsBars(t *testing.T) {
	bars := makeBars(3)
	bars[0], bars[2] = bars[2], bars[0]
	tbl := Compute("X", bars, Options{Set: SetBase})
	assert.Equal(t, 100.0, tbl.Rows[0].Close)
	assert.Equal(t, 102.0, tbl.Rows[2].Close)
}

func TestRelativeStrength(t *testing.T) {
	bars := makeBars(5)
	spy := make([]model.Bar, 0, 4)
	for i, b := range bars {
		if i == 2 {
			continue // benchmark holiday
		}
		spy = append(spy, model.Bar{Timestamp: b.Timestamp, Close: 50})
	}
	ref := NewReference("SPY", spy)
	assert.Equal(t, 4, ref.Len())

	tbl := Compute("X", bars, Options{Set: SetFull, Benchmark: ref})
	require.NotNil(t, tbl.Rows[0].RS)
	assert.InDelta(t, 2.0, *tbl.Rows[0].RS, 1e-9)
	assert.Nil(t, tbl.Rows[2].RS)
	require.NotNil(t, tbl.Rows[4].RS)
	assert.InDelta(t, 104.0/50, *tbl.Rows[4].RS, 1e-9)
}

func TestRelativeStrengthWithoutBenchmark(t *testing.T) {
	tbl := Compute("X", makeBars(5), Options{Set: SetFull})
	for _, r := range tbl.Rows {
		assert.Nil(t, r.RS)
	}
}

func TestIndicatorLeftJoin(t *testing.T) {
	bars := makeBars(4)
	rsi := []model.IndicatorPoint{
		{Timestamp: bars[1].Timestamp, Value: 55},
		{Timestamp: bars[3].Timestamp, Value: 61},
		{Timestamp: bars[3].Timestamp.AddDate(0, 0, 7), Value: 99}, // no matching bar
	}
	tbl := Compute("X", bars, Options{
		Set:        SetFull,
		Indicators: map[model.IndicatorKind][]model.IndicatorPoint{model.RSI: rsi},
	})
	require.Len(t, tbl.Rows, 4)
	assert.Nil(t, tbl.Rows[0].RSI)
	require.NotNil(t, tbl.Rows[1].RSI)
	assert.Equal(t, 55.0, *tbl.Rows[1].RSI)
	assert.Nil(t, tbl.Rows[2].RSI)
	require.NotNil(t, tbl.Rows[3].RSI)
	assert.Equal(t, 61.0, *tbl.Rows[3].RSI)
	for _, r := range tbl.Rows {
		assert.Nil(t, r.MACD)
	}
}

func TestPctChangeZeroPrevious(t *testing.T) {
	out := pctChange(fromValues([]float64{0, 5, 10}))
	assert.Nil(t, out[0])
	assert.Nil(t, out[1])
	require.NotNil(t, out[2])
	assert.InDelta(t, 1.0, *out[2], 1e-9)
}

func TestRollingMeanNilInput(t *testing.T) {
	in := fromValues([]float64{1, 2, 3, 4, 5})
	in[2] = nil
	out := rollingMean(in, 2)
	assert.Nil(t, out[0])
	assert.NotNil(t, out[1])
	assert.Nil(t, out[2])
	assert.Nil(t, out[3])
	require.NotNil(t, out[4])
	assert.InDelta(t, 4.5, *out[4], 1e-9)
}

func TestLocalIndicators(t *testing.T) {
	bars := makeBars(80)
	ind := LocalIndicators(bars)

	rsi := ind[model.RSI]
	require.Len(t, rsi, 80-RSIPeriod)
	assert.True(t, rsi[0].Timestamp.Equal(bars[RSIPeriod].Timestamp))

	macd := ind[model.MACD]
	lookback := MACDSlow + MACDSignal - 2
	require.Len(t, macd, 80-lookback)

	tbl := Compute("X", bars, Options{Set: SetFull, Indicators: ind})
	assert.Equal(t, RSIPeriod, countLeadingNil(column(tbl.Rows, func(r model.FeatureRow) *float64 { return r.RSI })))
	assert.Equal(t, lookback, countLeadingNil(column(tbl.Rows, func(r model.FeatureRow) *float64 { return r.MACD })))
}

func TestLocalIndicatorsShortSeries(t *testing.T) {
	ind := LocalIndicators(makeBars(RSIPeriod))
	assert.Empty(t, ind[model.RSI])
	assert.Empty(t, ind[model.MACD])
}

func TestParseSet(t *testing.T) {
	s, err := ParseSet("")
	require.NoError(t, err)
	assert.Equal(t, SetBase, s)
	s, err = ParseSet("FULL")
	require.NoError(t, err)
	assert.True(t, s.NeedsBenchmark())
	assert.True(t, s.NeedsIndicators())
	_, err = ParseSet("fancy")
	assert.Error(t, err)
}
