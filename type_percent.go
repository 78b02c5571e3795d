package performance

import "github.com/shopspring/decimal"

// Percent is an unrounded percentage, 100 means the whole.
type Percent struct {
	value decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// PercentOf returns part/total*100.
func PercentOf(part, total Money) Percent {
	return Percent{value: part.RatioOf(total).Mul(hundred)}
}

func P[T float64 | int | int64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

func (p Percent) Add(q Percent) Percent    { return Percent{value: p.value.Add(q.value)} }
func (p Percent) Decimal() decimal.Decimal { return p.value }

// Equal compares with some precision, percentages are the result of divisions.
func (p Percent) Equal(q Percent) bool {
	const precision = 0.0001
	return p.value.Sub(q.value).Abs().LessThan(decimal.NewFromFloat(precision))
}

func (p Percent) String() string {
	return p.value.StringFixed(2) + "%"
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return p.value.MarshalJSON()
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	return p.value.UnmarshalJSON(data)
}
