package performance

import "slices"

// lot represents a single purchase not yet consumed by sells, used for cost
// basis calculations.
type lot struct {
	Quantity  Quantity
	UnitPrice Money
}

func (l lot) cost() Money { return l.UnitPrice.Mul(l.Quantity) }

// lots is a FIFO queue of lots, oldest first.
//
// lots values are never modified in place: every operation returns a new
// queue, so a queue can be shared between successive ledger states.
type lots []lot

// buy returns a new queue with the lot appended at the tail.
func (l lots) buy(q Quantity, price Money) lots {
	// Clip forces append to copy: l may share its backing array with another state.
	return append(slices.Clip(l), lot{Quantity: q, UnitPrice: price})
}

// sellResult describes the effect of a sell on the queue.
type sellResult struct {
	remaining lots
	sold      Quantity // quantity matched against lots
	cost      Money    // cost basis of the matched quantity
	realized  Money    // (price - lot price) * matched quantity, summed over lots
	unmatched Quantity // part of the sell that exceeded the available lots
}

// sell consumes quantityToSell from the head of the queue using the FIFO method.
func (l lots) sell(quantityToSell Quantity, price Money) sellResult {
	var r sellResult
	i := 0
	for ; i < len(l) && quantityToSell.IsPositive(); i++ {
		current := l[i]
		if !current.Quantity.GreaterThan(quantityToSell) {
			// Full sale of this lot
			r.realized = r.realized.Add(price.Sub(current.UnitPrice).Mul(current.Quantity))
			r.cost = r.cost.Add(current.cost())
			r.sold = r.sold.Add(current.Quantity)
			quantityToSell = quantityToSell.Sub(current.Quantity)
			continue
		}
		// Partial sale from this lot, the sell is satisfied.
		r.realized = r.realized.Add(price.Sub(current.UnitPrice).Mul(quantityToSell))
		r.cost = r.cost.Add(current.UnitPrice.Mul(quantityToSell))
		r.sold = r.sold.Add(quantityToSell)
		shrunk := lot{Quantity: current.Quantity.Sub(quantityToSell), UnitPrice: current.UnitPrice}
		r.remaining = append(lots{shrunk}, l[i+1:]...)
		return r
	}
	// every visited lot was fully consumed.
	r.remaining = l[i:]
	r.unmatched = quantityToSell
	return r
}

// quantity returns the sum of all lot quantities.
func (l lots) quantity() Quantity {
	var q Quantity
	for _, x := range l {
		q = q.Add(x.Quantity)
	}
	return q
}
