//go:build wireinject
// +build wireinject

package main

import (
	"market-ingest/internal/app"
	"market-ingest/internal/ingest"
	"market-ingest/internal/provider"

	"github.com/google/wire"
)

// InitializeIngestApp builds the ingest pipeline via Wire.
// Caller must call cleanup when done.
func InitializeIngestApp(opts app.LoadOptions) (*app.IngestApp, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideIngestOptions,
		app.ProvidePolygonProvider,
		wire.Bind(new(provider.DataSource), new(*provider.PolygonProvider)),
		app.ProvideStore,
		app.ProvideTableSaver,
		app.ProvidePacer,
		ingest.New,
		app.ProvideIngestApp,
	)
	return nil, nil, nil
}

// InitializeTickersApp builds the instrument listing via Wire.
func InitializeTickersApp(opts app.LoadOptions) (*app.TickersApp, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvidePolygonProvider,
		wire.Bind(new(provider.DataSource), new(*provider.PolygonProvider)),
		app.ProvideTickersApp,
	)
	return nil, nil, nil
}

// InitializeAuditApp builds the dataset auditor via Wire.
func InitializeAuditApp(opts app.LoadOptions) (*app.AuditApp, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideStore,
		app.ProvideAuditApp,
	)
	return nil, nil
}
