package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"market-ingest/internal/app"
	"market-ingest/internal/ingest"
)

var errCancelled = errors.New("run cancelled")

func newIngestCmd() *cobra.Command {
	var schedule bool
	cmd := &cobra.Command{
		Use:   "ingest [TICKER...]",
		Short: "Fetch, transform and upload bars for every ticker not yet stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadOptions(cmd,
				flagOverride{"granularity", "ingest.granularity"},
				flagOverride{"features", "ingest.feature_set"},
				flagOverride{"indicators", "ingest.indicator_source"},
				flagOverride{"tickers-file", "ingest.tickers_file"},
				flagOverride{"format", "ingest.save_format"},
				flagOverride{"store", "store.backend"},
				flagOverride{"delay", "ingest.pace_delay"},
			)
			a, cleanup, err := InitializeIngestApp(opts)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()
			setupLogging(a.Config)
			return runIngest(cmd, a, args, schedule)
		},
	}
	cmd.Flags().String("granularity", "", "Bar granularity: daily or minute")
	cmd.Flags().String("features", "", "Feature set: base, intraday or full")
	cmd.Flags().String("indicators", "", "Indicator source for the full set: remote or local")
	cmd.Flags().String("tickers-file", "", "Tickers file used when no tickers are given")
	cmd.Flags().String("format", "", "Output format: parquet, csv or json")
	cmd.Flags().String("store", "", "Store backend: r2, local or memory")
	cmd.Flags().Duration("delay", 0, "Delay after every fetched ticker")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "Keep running and repeat daily at the configured time")
	return cmd
}

func runIngest(cmd *cobra.Command, a *app.IngestApp, args []string, schedule bool) error {
	cfg := a.Config
	tickers, err := app.LoadTickers(cfg, args)
	if err != nil {
		return err
	}

	ctx, stop := app.SignalContext(cmd.Context())
	defer stop()

	once := func(ctx context.Context) error {
		s := a.Pipeline.Run(ctx, tickers)
		if _, err := ingest.WriteRunReport(cfg.Ingest.ReportDir, s); err != nil {
			slog.Warn("run report not written", "error", err)
		}
		if s.Cancelled {
			return errCancelled
		}
		return nil
	}

	if !schedule {
		return once(ctx)
	}
	slog.Info("scheduled mode", "run_hour", cfg.Schedule.RunHour, "run_minute", cfg.Schedule.RunMinute)
	err = app.RunScheduled(ctx, cfg.Schedule.RunHour, cfg.Schedule.RunMinute, once)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
