package provider

import (
	"market-ingest/internal/provider/polygon"
)

// PolygonProvider is a DataSource implementation backed by the Polygon API.
// It embeds *polygon.Client to expose fetch capabilities with minimal boilerplate.
type PolygonProvider struct {
	*polygon.Client
}

var _ DataSource = (*PolygonProvider)(nil)

// NewPolygonProvider creates a new Polygon-backed DataSource.
func NewPolygonProvider(apiKey string, opts ...polygon.Option) (*PolygonProvider, error) {
	client, err := polygon.NewClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &PolygonProvider{
		Client: client,
	}, nil
}

// GetName returns provider name
func (p *PolygonProvider) GetName() string {
	return "Polygon"
}
