package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"market-ingest/internal/app"
	"market-ingest/internal/slogx"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "market-ingest",
		Short:         "Incremental US equity bar ingestion into object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.LoadDotEnv()
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to config file (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(newTickersCmd(), newIngestCmd(), newAuditCmd())
	return root
}

// flagOverride maps a cobra flag onto a config key.
type flagOverride struct {
	flag string
	key  string
}

var globalOverrides = []flagOverride{
	{"log-level", "log_level"},
	{"log-format", "log_format"},
}

// loadOptions collects only the flags the user actually set, so config file
// and environment keep their values otherwise.
func loadOptions(cmd *cobra.Command, overrides ...flagOverride) app.LoadOptions {
	opts := app.LoadOptions{Path: configFile, Overrides: map[string]any{}}
	for _, o := range append(globalOverrides, overrides...) {
		f := cmd.Flags().Lookup(o.flag)
		if f == nil || !f.Changed {
			continue
		}
		opts.Overrides[o.key] = f.Value.String()
	}
	return opts
}

func setupLogging(cfg *app.Config) {
	slogx.Setup(cfg.LogLevel, cfg.LogFormat)
}
