package app

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-ingest/internal/model"
	"market-ingest/internal/store"
)

type listSource struct {
	items []model.Instrument
	err   error
}

func (s listSource) GetName() string { return "list" }

func (s listSource) ListInstruments(context.Context, model.InstrumentFilter) iter.Seq2[model.Instrument, error] {
	return func(yield func(model.Instrument, error) bool) {
		for _, it := range s.items {
			if !yield(it, nil) {
				return
			}
		}
		if s.err != nil {
			yield(model.Instrument{}, s.err)
		}
	}
}

func (listSource) FetchBars(context.Context, string, model.Granularity, time.Time, time.Time) ([]model.Bar, error) {
	return nil, nil
}

func (listSource) FetchIndicator(context.Context, string, model.IndicatorKind, model.Granularity, time.Time, time.Time) ([]model.IndicatorPoint, error) {
	return nil, nil
}

func (listSource) Close() error { return nil }

func TestCollectTickers(t *testing.T) {
	src := listSource{items: []model.Instrument{{Ticker: "AAPL"}, {Ticker: "msft"}, {Ticker: "AAPL"}}}
	got, err := CollectTickers(context.Background(), src, model.DefaultInstrumentFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)

	src.err = errors.New("page 2 failed")
	_, err = CollectTickers(context.Background(), src, model.DefaultInstrumentFilter())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3")
}

func TestUploadTickersSkipsExisting(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	wrote, err := UploadTickers(ctx, st, "data/tickers.csv", []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.True(t, wrote)
	data, err := st.Get(ctx, "data/tickers.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"ticker", "AAPL", "MSFT"}, strings.Split(strings.TrimSpace(string(data)), "\n"))

	wrote, err = UploadTickers(ctx, st, "data/tickers.csv", []string{"TSLA"})
	require.NoError(t, err)
	assert.False(t, wrote)
	again, err := st.Get(ctx, "data/tickers.csv")
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
