// Package feed supplies already-parsed Bar arrays from an external market
// data source. The cache layer never depends on a concrete provider.
package feed

import (
	"context"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

// Fetcher retrieves bar history for a symbol. Implementations must return
// bars usable after market.Normalize; the caller sorts and dedupes.
type Fetcher interface {
	Name() string

	// FetchDaily returns the full daily history for symbol.
	FetchDaily(ctx context.Context, symbol string) ([]market.Bar, error)

	// FetchIntraday returns the higher-resolution series backing the 1D
	// window. It is sourced on every request and never enters the daily
	// cache.
	FetchIntraday(ctx context.Context, symbol string) ([]market.Bar, error)
}
