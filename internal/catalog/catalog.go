// Package catalog holds the static reference catalog of known visuals and
// the capability description of the upstream data APIs. It is read-only;
// lifecycle transitions never mutate it.
package catalog

import (
	"strings"

	"insightboard/pkg/models"
)

// Catalog maps visual ids to their immutable definitions.
type Catalog struct {
	defs map[string]models.ItemDefinition
}

// New returns a catalog over the given definitions.
func New(defs []models.ItemDefinition) *Catalog {
	m := make(map[string]models.ItemDefinition, len(defs))
	for _, d := range defs {
		m[d.ID] = d
	}
	return &Catalog{defs: m}
}

// Default returns the catalog of built-in dashboard visuals.
func Default() *Catalog {
	return New(builtinDefinitions)
}

// Lookup returns the definition for id, if known.
func (c *Catalog) Lookup(id string) (models.ItemDefinition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// Definitions returns all known definitions. The order is unspecified.
func (c *Catalog) Definitions() []models.ItemDefinition {
	out := make([]models.ItemDefinition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	return out
}

var builtinDefinitions = []models.ItemDefinition{
	{ID: "cash-balance", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard", Description: "Current cash and buying power for the account."},
	{ID: "portfolio-allocation", Name: "Portfolio Allocation", SourceHandle: "charts/AllocationDonut", Description: "Breakdown of portfolio value by asset."},
	{ID: "position-pnl", Name: "Position P&L", SourceHandle: "charts/PositionPnlTable", Description: "Unrealized profit and loss per open position."},
	{ID: "equity-curve", Name: "Equity Curve", SourceHandle: "charts/EquityCurveLine", Description: "Account equity over time."},
	{ID: "order-history", Name: "Order History", SourceHandle: "tables/OrderHistoryTable", Description: "Recent filled and open orders."},
	{ID: "sector-exposure", Name: "Sector Exposure", SourceHandle: "charts/SectorExposureBar", Description: "Portfolio exposure grouped by sector."},
	{ID: "dividend-calendar", Name: "Dividend Calendar", SourceHandle: "tables/DividendCalendar", Description: "Upcoming dividend payouts for held symbols."},
	{ID: "price-snapshot", Name: "Price Snapshot", SourceHandle: "charts/PriceSnapshotCard", Description: "Latest quote and daily change for a symbol."},
}

// upstreamCapabilities lists the fixed set of data APIs a question may draw
// on. The validator receives this verbatim and must ground its verdict on it.
var upstreamCapabilities = []string{
	"trading:/v2/account - account equity, cash balance, buying power",
	"trading:/v2/positions - open positions with quantity, basis, market value",
	"trading:/v2/orders - order history and open orders",
	"trading:/v2/account/portfolio/history - historical equity and P&L series",
	"marketdata:/v2/stocks/bars - OHLCV bars for equities",
	"marketdata:/v2/stocks/quotes/latest - latest bid/ask quotes",
	"marketdata:/v2/stocks/snapshots - daily snapshot per symbol",
	"reference:/v1/calendar - market calendar and trading sessions",
	"reference:/v1/corporate-actions - dividends, splits, earnings dates",
}

// CapabilityDescription renders the upstream API capabilities as the prose
// block handed to the validation service.
func (c *Catalog) CapabilityDescription() string {
	var b strings.Builder
	b.WriteString("The dashboard can answer questions using only these upstream APIs:\n")
	for _, line := range upstreamCapabilities {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
