package app

import (
	"fmt"
	"log/slog"
	"time"

	"market-ingest/internal/features"
	"market-ingest/internal/ingest"
	"market-ingest/internal/model"
	"market-ingest/internal/provider"
	"market-ingest/internal/provider/polygon"
	"market-ingest/internal/saver"
	"market-ingest/internal/store"
)

// CreateStore builds the object store selected by STORE_BACKEND.
func CreateStore(cfg *Config) (store.Store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	switch cfg.Store.Backend {
	case "local":
		return store.NewLocalStore(cfg.LocalRoot())
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewS3Store(store.S3Config{
			AccessKeyID:     cfg.Store.AccessKeyID,
			SecretAccessKey: cfg.Store.SecretAccessKey,
			Endpoint:        cfg.Store.Endpoint,
			AccountID:       cfg.Store.AccountID,
			Bucket:          cfg.Store.Bucket,
			Region:          cfg.Store.Region,
		})
	}
}

// CreateAuditOutput returns where audit reports go: a local directory when
// audit.output_dir is set, otherwise the dataset store itself.
func CreateAuditOutput(cfg *Config, st store.Store) (store.Store, error) {
	if cfg.Audit.OutputDir == "" {
		return st, nil
	}
	return store.NewLocalStore(cfg.Audit.OutputDir)
}

func createPolygonProvider(cfg *Config) (*provider.PolygonProvider, error) {
	if err := cfg.ValidatePolygon(); err != nil {
		return nil, err
	}
	var opts []polygon.Option
	if cfg.Polygon.BaseURL != "" {
		opts = append(opts, polygon.WithBaseURL(cfg.Polygon.BaseURL))
	}
	return provider.NewPolygonProvider(cfg.Polygon.APIKey, opts...)
}

// IngestOptions maps config onto pipeline options.
func IngestOptions(cfg *Config) (ingest.Options, error) {
	if err := cfg.ValidateIngest(); err != nil {
		return ingest.Options{}, err
	}
	g, _ := model.ParseGranularity(cfg.Ingest.Granularity)
	opts := ingest.DefaultOptions(g)
	opts.LookbackYears = cfg.Ingest.LookbackYears
	opts.SafetyMarginDays = cfg.Ingest.SafetyMarginDays
	opts.FeatureSet, _ = features.ParseSet(cfg.Ingest.FeatureSet)
	opts.Indicators, _ = ingest.ParseIndicatorSource(cfg.Ingest.IndicatorSource)
	opts.Benchmark = cfg.Ingest.Benchmark
	opts.BatchSize = cfg.Ingest.BatchSize
	return opts, nil
}

// LoadTickers returns explicit args when given, otherwise the tickers file.
func LoadTickers(cfg *Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return model.NormalizeTickers(args), nil
	}
	if cfg.Ingest.TickersFile == "" {
		return nil, fmt.Errorf("no tickers given and TICKERS_FILE not set")
	}
	tickers, err := polygon.LoadTickersFromFile(cfg.Ingest.TickersFile)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("tickers file %s is empty", cfg.Ingest.TickersFile)
	}
	slog.Info("loaded tickers", "file", cfg.Ingest.TickersFile, "count", len(tickers))
	return tickers, nil
}

// InstrumentFilter is the listing filter with configured cap and paging delay.
func InstrumentFilter(cfg *Config) model.InstrumentFilter {
	f := model.DefaultInstrumentFilter()
	f.Limit = cfg.Tickers.Limit
	f.PageDelay = cfg.Tickers.PageDelay
	return f
}

func pacerFor(cfg *Config) ingest.Pacer {
	return ingest.FixedPacer{Delay: cfg.Ingest.PaceDelay}
}

func saverFor(cfg *Config) (saver.TableSaver, error) {
	sv := saver.NewTableSaver(cfg.Ingest.SaveFormat)
	if sv == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.Ingest.SaveFormat)
	}
	return sv, nil
}

func logWiring(cfg *Config, st store.Store, sv saver.TableSaver) {
	slog.Info("wire",
		"provider", "Polygon",
		"store", st.Name(),
		"format", sv.Extension(),
		"granularity", cfg.Ingest.Granularity,
		"features", cfg.Ingest.FeatureSet,
		"pace", cfg.Ingest.PaceDelay.Round(time.Millisecond).String(),
	)
}
