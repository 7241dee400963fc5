package app

import (
	"context"
	"fmt"
	"log/slog"

	"market-ingest/internal/model"
	"market-ingest/internal/provider"
	"market-ingest/internal/provider/polygon"
	"market-ingest/internal/saver"
	"market-ingest/internal/store"
)

// CollectTickers drains the instrument listing into ticker symbols.
func CollectTickers(ctx context.Context, src provider.DataSource, filter model.InstrumentFilter) ([]string, error) {
	var tickers []string
	for inst, err := range src.ListInstruments(ctx, filter) {
		if err != nil {
			return nil, fmt.Errorf("list instruments after %d: %w", len(tickers), err)
		}
		tickers = append(tickers, inst.Ticker)
		if len(tickers)%1000 == 0 {
			slog.Debug("listing progress", "count", len(tickers))
		}
	}
	return model.NormalizeTickers(tickers), nil
}

// UploadTickers stores the list as CSV under key unless the key already
// exists. Returns whether it wrote.
func UploadTickers(ctx context.Context, st store.Store, key string, tickers []string) (bool, error) {
	ok, err := st.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if ok {
		slog.Info("tickers already uploaded, skip", "key", key)
		return false, nil
	}
	data, err := polygon.EncodeTickersCSV(tickers)
	if err != nil {
		return false, err
	}
	if err := st.Put(ctx, key, data, saver.CSVSaver{}.ContentType()); err != nil {
		return false, fmt.Errorf("upload tickers: %w", err)
	}
	slog.Info("tickers uploaded", "key", key, "count", len(tickers))
	return true, nil
}
