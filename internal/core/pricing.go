package core

import "github.com/shopspring/decimal"

// PriceTable is the piecewise-constant unit price per reading.
//
// Years up to and including LastPreviousYear use Previous; later years use
// Current. A year in which the rate changed mid-year gets a single rate
// because only annual totals exist for it.
type PriceTable struct {
	Previous         decimal.Decimal
	Current          decimal.Decimal
	LastPreviousYear int
}

// DefaultPrices holds the observed rates: 3,25 € through 2024, 4,93 € since.
var DefaultPrices = PriceTable{
	Previous:         decimal.RequireFromString("3.25"),
	Current:          decimal.RequireFromString("4.93"),
	LastPreviousYear: 2024,
}

// ForYear returns the unit price applied to readings of the given year.
func (p PriceTable) ForYear(year int) decimal.Decimal {
	if year <= p.LastPreviousYear {
		return p.Previous
	}
	return p.Current
}

// PriceForYear resolves year against DefaultPrices.
func PriceForYear(year int) decimal.Decimal {
	return DefaultPrices.ForYear(year)
}

// Gross returns count × price.
func Gross(count int, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(count)).Mul(price)
}
