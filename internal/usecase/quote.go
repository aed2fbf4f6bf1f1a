package usecase

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/phenrril/estimator/internal/domain"
)

// QuoteCalculator derives quote figures from a selection store.
type QuoteCalculator struct {
	Store *SelectionStore
}

func (c QuoteCalculator) GrandTotal() decimal.Decimal {
	return c.Store.GrandTotal()
}

// LineItems yields one line per selected product in store order.
func (c QuoteCalculator) LineItems() iter.Seq[domain.LineItem] {
	return func(yield func(domain.LineItem) bool) {
		for e := range c.Store.Entries() {
			li := domain.LineItem{
				Name:        e.Name,
				SubCategory: e.SubCategory,
				Quantity:    e.Quantity,
				Rate:        e.Rate,
				Total:       e.Total(),
			}
			if !yield(li) {
				return
			}
		}
	}
}

// Quote is a materialized quote ready for rendering.
type Quote struct {
	Items []domain.LineItem
	Total decimal.Decimal
}

func (q Quote) Empty() bool { return len(q.Items) == 0 }

func (c QuoteCalculator) Snapshot() Quote {
	q := Quote{Items: []domain.LineItem{}, Total: c.GrandTotal()}
	for li := range c.LineItems() {
		q.Items = append(q.Items, li)
	}
	return q
}
