package usecase

import (
	"iter"
	"math"

	"github.com/shopspring/decimal"

	"github.com/phenrril/estimator/internal/domain"
)

// ProductLookup resolves ids against the current catalog load.
type ProductLookup interface {
	FindQuotable(id string) (domain.Product, bool)
}

// SelectionStore maps product ids to quote lines. It is not safe for
// concurrent use; the owning session serializes access.
type SelectionStore struct {
	products ProductLookup
	entries  map[string]*domain.SelectionEntry
	order    []string
}

func NewSelectionStore(products ProductLookup) *SelectionStore {
	return &SelectionStore{products: products, entries: map[string]*domain.SelectionEntry{}}
}

// NormalizeQuantity rounds q and raises it to at least 1.
func NormalizeQuantity(q float64) int {
	if math.IsNaN(q) || q < 1 {
		return 1
	}
	r := math.Round(q)
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(r)
}

// Select inserts or overwrites the entry for id. Ids that do not resolve
// to a quotable product are ignored.
func (s *SelectionStore) Select(id string, quantity float64) bool {
	p, ok := s.products.FindQuotable(id)
	if !ok {
		return false
	}
	e := &domain.SelectionEntry{
		ProductID:   p.ID,
		Quantity:    NormalizeQuantity(quantity),
		Name:        p.Name,
		SubCategory: p.SubCategory,
		Rate:        p.Rate.Decimal,
	}
	if _, exists := s.entries[id]; !exists {
		s.order = append(s.order, id)
	}
	s.entries[id] = e
	return true
}

func (s *SelectionStore) Deselect(id string) bool {
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// SetQuantity only affects products that are already selected.
func (s *SelectionStore) SetQuantity(id string, quantity float64) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.Quantity = NormalizeQuantity(quantity)
	return true
}

func (s *SelectionStore) IsSelected(id string) bool {
	_, ok := s.entries[id]
	return ok
}

func (s *SelectionStore) Entry(id string) (domain.SelectionEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return domain.SelectionEntry{}, false
	}
	return *e, true
}

func (s *SelectionStore) Len() int {
	return len(s.entries)
}

// Entries yields the selection in insertion order.
func (s *SelectionStore) Entries() iter.Seq[domain.SelectionEntry] {
	return func(yield func(domain.SelectionEntry) bool) {
		for _, id := range s.order {
			if !yield(*s.entries[id]) {
				return
			}
		}
	}
}

// ItemTotal is rate times quantity for a selected product, zero otherwise.
func (s *SelectionStore) ItemTotal(id string) decimal.Decimal {
	e, ok := s.entries[id]
	if !ok {
		return decimal.Zero
	}
	return e.Total()
}

func (s *SelectionStore) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for e := range s.Entries() {
		total = total.Add(e.Total())
	}
	return total
}
