package app

import (
	"log/slog"

	"market-ingest/internal/audit"
	"market-ingest/internal/ingest"
	"market-ingest/internal/provider"
	"market-ingest/internal/saver"
	"market-ingest/internal/store"
)

// IngestApp is everything the ingest command needs.
type IngestApp struct {
	Config   *Config
	Pipeline *ingest.Pipeline
}

// TickersApp lists instruments. The store is opened only on upload.
type TickersApp struct {
	Config *Config
	Source provider.DataSource
}

// AuditApp scans the dataset and writes the reports to Output.
type AuditApp struct {
	Config  *Config
	Auditor *audit.Auditor
	Output  store.Store
}

// ProvideConfig loads config from file and environment (for Wire).
func ProvideConfig(opts LoadOptions) (*Config, error) {
	return LoadConfig(opts)
}

// ProvideStore creates the object store from config (for Wire).
func ProvideStore(cfg *Config) (store.Store, error) {
	return CreateStore(cfg)
}

// ProvideTableSaver creates TableSaver from config (for Wire).
// Returns error if SaveFormat is not supported.
func ProvideTableSaver(cfg *Config) (saver.TableSaver, error) {
	return saverFor(cfg)
}

// ProvidePolygonProvider creates the Polygon client (for Wire).
// The cleanup closes idle connections.
func ProvidePolygonProvider(cfg *Config) (*provider.PolygonProvider, func(), error) {
	p, err := createPolygonProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := p.Close(); err != nil {
			slog.Warn("close provider", "err", err)
		}
	}
	return p, cleanup, nil
}

// ProvidePacer creates the fixed inter-request delay (for Wire).
func ProvidePacer(cfg *Config) ingest.Pacer {
	return pacerFor(cfg)
}

// ProvideIngestOptions maps config onto pipeline options (for Wire).
func ProvideIngestOptions(cfg *Config) (ingest.Options, error) {
	return IngestOptions(cfg)
}

// ProvideIngestApp assembles the ingest command.
func ProvideIngestApp(cfg *Config, p *ingest.Pipeline, st store.Store, sv saver.TableSaver) *IngestApp {
	logWiring(cfg, st, sv)
	return &IngestApp{Config: cfg, Pipeline: p}
}

// ProvideTickersApp assembles the tickers command.
func ProvideTickersApp(cfg *Config, src provider.DataSource) *TickersApp {
	return &TickersApp{Config: cfg, Source: src}
}

// ProvideAuditApp assembles the audit command.
func ProvideAuditApp(cfg *Config, st store.Store) (*AuditApp, error) {
	out, err := CreateAuditOutput(cfg, st)
	if err != nil {
		return nil, err
	}
	return &AuditApp{Config: cfg, Auditor: audit.New(st), Output: out}, nil
}
