package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"market-ingest/internal/app"
	"market-ingest/internal/provider/polygon"
)

func newTickersCmd() *cobra.Command {
	var upload bool
	cmd := &cobra.Command{
		Use:   "tickers",
		Short: "List active US common stocks and write the tickers file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadOptions(cmd,
				flagOverride{"limit", "tickers.limit"},
				flagOverride{"page-delay", "tickers.page_delay"},
				flagOverride{"out", "tickers.out_file"},
			)
			a, cleanup, err := InitializeTickersApp(opts)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()
			setupLogging(a.Config)
			return runTickers(cmd, a, upload)
		},
	}
	cmd.Flags().Int("limit", 0, "Stop after this many tickers (0 = all)")
	cmd.Flags().Duration("page-delay", 0, "Delay between listing pages")
	cmd.Flags().String("out", "", "Output tickers file (.txt or .json)")
	cmd.Flags().BoolVar(&upload, "upload", false, "Also upload the list to the store unless it already exists")
	return cmd
}

func runTickers(cmd *cobra.Command, a *app.TickersApp, upload bool) error {
	ctx, stop := app.SignalContext(cmd.Context())
	defer stop()

	cfg := a.Config
	slog.Info("listing instruments", "provider", a.Source.GetName(), "limit", cfg.Tickers.Limit)
	tickers, err := app.CollectTickers(ctx, a.Source, app.InstrumentFilter(cfg))
	if err != nil {
		return err
	}
	if err := polygon.WriteTickersFile(cfg.Tickers.OutFile, tickers); err != nil {
		return err
	}
	slog.Info("tickers saved", "file", cfg.Tickers.OutFile, "count", len(tickers))

	if !upload {
		return nil
	}
	st, err := app.CreateStore(cfg)
	if err != nil {
		return err
	}
	_, err = app.UploadTickers(ctx, st, cfg.Tickers.StoreKey, tickers)
	return err
}
