package interfaces

import (
	"context"

	"coin-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IMarketDataClient is the read-only market data source behind the dashboard.
// -----------------------------------------------------------------------------

type IMarketDataClient interface {

	// ListCoins returns one page of market rows, or the hydrated search hits
	// when params.Search is non-empty.
	ListCoins(ctx context.Context, params models.MListParams) ([]models.MCoinSummary, error)

	// -----------------------------------------------------------------------------

	// GetGlobalStats returns the aggregate market snapshot.
	GetGlobalStats(ctx context.Context) (models.MGlobalSnapshot, error)

	// -----------------------------------------------------------------------------

	// GetCoinDetails returns the full record of a single coin.
	GetCoinDetails(ctx context.Context, id string) (models.MCoinDetail, error)

	// -----------------------------------------------------------------------------

	// GetCoinChart returns the price history of a coin over days.
	GetCoinChart(ctx context.Context, id string, days int) (models.MChartSeries, error)

	// -----------------------------------------------------------------------------

	// Invalidate drops cached responses whose keys start with any of prefixes.
	Invalidate(ctx context.Context, prefixes ...string) error
}
