package performance

// HoldingPerformance is the valuation of one holding at a given price.
type HoldingPerformance struct {
	HoldingID    string   `json:"holdingId"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Quantity     Quantity `json:"quantity"`
	AverageCost  Money    `json:"averageCost"`
	Price        Money    `json:"price"`
	CurrentValue Money    `json:"currentValue"`
	Realized     Money    `json:"realizedGainLoss"`
	Unrealized   Money    `json:"unrealizedGainLoss"`
	Unmatched    Quantity `json:"unmatchedQuantity"`
	Currency     string   `json:"currency"`
}

// Evaluate values the ledger result r of holding h at the unit price.
//
// Every amount is expressed in the price's currency.
//
//	unrealized = (price - average cost) * remaining quantity
//	value      = remaining quantity * price
func Evaluate(h Holding, r LedgerResult, price Money) HoldingPerformance {
	cur := price.Currency()
	avg := r.AverageCost().In(cur)
	return HoldingPerformance{
		HoldingID:    h.ID,
		Symbol:       h.Symbol,
		Name:         h.DisplayName,
		Quantity:     r.RemainingQuantity,
		AverageCost:  avg,
		Price:        price,
		CurrentValue: price.Mul(r.RemainingQuantity),
		Realized:     r.Realized.In(cur),
		Unrealized:   price.Sub(avg).Mul(r.RemainingQuantity),
		Unmatched:    r.Unmatched,
		Currency:     cur,
	}
}
