package performance

import (
	"maps"
	"slices"

	"github.com/etnz/performance/date"
)

// PerformanceReport is the performance of a portfolio: totals at current
// prices, allocation by symbol and the reconstructed value series.
type PerformanceReport struct {
	PortfolioID     string               `json:"portfolioId"`
	Name            string               `json:"name"`
	Currency        string               `json:"currency"`
	Start           date.Date            `json:"startDate"`
	End             date.Date            `json:"endDate"`
	TotalValue      Money                `json:"totalCurrentValue"`
	TotalRealized   Money                `json:"totalRealizedGainLoss"`
	TotalUnrealized Money                `json:"totalUnrealizedGainLoss"`
	Allocation      map[string]Percent   `json:"allocation"`
	Series          []ValuePoint         `json:"series"`
	Holdings        []HoldingPerformance `json:"holdings"`
}

// Window returns the day range covered by the series.
func (r *PerformanceReport) Window() date.Range { return date.Range{From: r.Start, To: r.End} }

// Symbols returns the allocation keys in alphabetical order.
func (r *PerformanceReport) Symbols() []string {
	return slices.Sorted(maps.Keys(r.Allocation))
}

// TotalGain returns realized plus unrealized gains.
func (r *PerformanceReport) TotalGain() Money { return r.TotalRealized.Add(r.TotalUnrealized) }
