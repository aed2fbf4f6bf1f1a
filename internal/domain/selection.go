package domain

import (
	"github.com/shopspring/decimal"
)

// SelectionEntry is one line of the in-progress quote. Name, Rate and
// SubCategory are snapshotted when the product is selected.
type SelectionEntry struct {
	ProductID   string
	Quantity    int
	Name        string
	SubCategory string
	Rate        decimal.Decimal
}

// Total is rate times quantity, unrounded.
func (e SelectionEntry) Total() decimal.Decimal {
	return e.Rate.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

type LineItem struct {
	Name        string          `json:"name"`
	SubCategory string          `json:"sub_category"`
	Quantity    int             `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Total       decimal.Decimal `json:"total"`
}

// FilterState is the visitor's active category filter and search term.
type FilterState struct {
	Category string
	Term     string
}

func DefaultFilter() FilterState {
	return FilterState{Category: AllCategories}
}

// Money formats an amount with two decimals. This is the only place totals
// get rounded.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
