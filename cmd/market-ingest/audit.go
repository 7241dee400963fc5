package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"market-ingest/internal/app"
	"market-ingest/internal/audit"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Scan stored daily tables and report problematic tickers",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadOptions(cmd,
				flagOverride{"prefix", "audit.prefix"},
				flagOverride{"output-dir", "audit.output_dir"},
				flagOverride{"store", "store.backend"},
			)
			a, err := InitializeAuditApp(opts)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			setupLogging(a.Config)
			return runAudit(cmd, a)
		},
	}
	cmd.Flags().String("prefix", "", "Dataset prefix to scan")
	cmd.Flags().String("output-dir", "", "Write reports to this local directory instead of the store")
	cmd.Flags().String("store", "", "Store backend: r2, local or memory")
	return cmd
}

func runAudit(cmd *cobra.Command, a *app.AuditApp) error {
	ctx, stop := app.SignalContext(cmd.Context())
	defer stop()

	cfg := a.Config
	rep, err := a.Auditor.Scan(ctx, cfg.Audit.Prefix)
	if err != nil {
		return fmt.Errorf("scan %s: %w", cfg.Audit.Prefix, err)
	}
	audit.LogSummary(rep)
	_, err = audit.WriteReports(ctx, a.Output, rep, audit.OutputOptions{
		Prefix:       cfg.Audit.OutputPrefix,
		StatsName:    cfg.Audit.StatsName,
		ProblemsName: cfg.Audit.ProblemsName,
	})
	return err
}
