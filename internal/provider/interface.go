package provider

import (
	"context"
	"iter"
	"time"

	"market-ingest/internal/model"
)

// DataSource is the abstraction used by the application when accessing a market-data API.
// Implementations own their HTTP client and release it in Close.
type DataSource interface {
	GetName() string
	// ListInstruments pages the remote listing lazily. Iteration always starts at page 1.
	ListInstruments(ctx context.Context, filter model.InstrumentFilter) iter.Seq2[model.Instrument, error]
	// FetchBars returns bars ordered by timestamp; no data is an empty slice and nil error.
	FetchBars(ctx context.Context, ticker string, g model.Granularity, from, to time.Time) ([]model.Bar, error)
	FetchIndicator(ctx context.Context, ticker string, kind model.IndicatorKind, g model.Granularity, from, to time.Time) ([]model.IndicatorPoint, error)
	Close() error
}
