package performance

// LedgerState is the state of a FIFO cost-basis ledger after some transactions.
//
// The zero value is the empty ledger. States are values: Apply never modifies
// the receiver, so any intermediate state stays valid.
type LedgerState struct {
	lots      lots
	quantity  Quantity
	costBasis Money
	realized  Money
	unmatched Quantity
}

// Apply returns the state after tx.
//
// A Buy appends a lot. A Sell consumes lots oldest first; when the sell exceeds
// the open lots, the excess is recorded as unmatched and has no effect on the
// realized gain.
func (s LedgerState) Apply(tx Transaction) LedgerState {
	switch tx.Kind {
	case Buy:
		s.lots = s.lots.buy(tx.Quantity, tx.UnitPrice)
		s.quantity = s.quantity.Add(tx.Quantity)
		s.costBasis = s.costBasis.Add(tx.UnitPrice.Mul(tx.Quantity))
	case Sell:
		r := s.lots.sell(tx.Quantity, tx.UnitPrice)
		s.lots = r.remaining
		s.quantity = s.quantity.Sub(r.sold).Floor()
		s.costBasis = s.costBasis.Sub(r.cost)
		s.realized = s.realized.Add(r.realized)
		s.unmatched = s.unmatched.Add(r.unmatched)
	}
	return s
}

// Result freezes the state into a LedgerResult.
func (s LedgerState) Result() LedgerResult {
	return LedgerResult{
		RemainingQuantity: s.quantity,
		RemainingCost:     s.costBasis,
		Realized:          s.realized,
		Unmatched:         s.unmatched,
		OpenLots:          len(s.lots),
	}
}

// LedgerResult is the outcome of a holding's full transaction history.
type LedgerResult struct {
	RemainingQuantity Quantity
	RemainingCost     Money // sum of quantity*unit price over the open lots
	Realized          Money
	Unmatched         Quantity // total sell quantity that found no lot to consume
	OpenLots          int
}

// AverageCost returns the average unit cost of the remaining position, zero
// when nothing remains.
func (r LedgerResult) AverageCost() Money {
	if !r.RemainingQuantity.IsPositive() {
		return Money{}
	}
	return r.RemainingCost.Div(r.RemainingQuantity)
}

// Replay folds the transactions, in ascending date order, into a LedgerResult.
//
// Transactions are sorted first; ties keep their order in txs.
func Replay(txs []Transaction) LedgerResult {
	var s LedgerState
	for _, tx := range SortTransactions(txs) {
		s = s.Apply(tx)
	}
	return s.Result()
}
