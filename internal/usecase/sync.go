package usecase

import (
	"math"
	"strconv"
	"strings"

	"github.com/phenrril/estimator/internal/domain"
)

// SurfaceSet reports which surfaces currently display a product.
type SurfaceSet interface {
	SurfacesFor(productID string) []domain.Surface
}

// ViewSynchronizer applies UI mutations to the selection store and returns
// the display state for every surface showing the product.
type ViewSynchronizer struct {
	Store    *SelectionStore
	Surfaces SurfaceSet
}

// ClampQuantityInput reads a quantity field. Non-numeric, fractional or
// sub-1 input is replaced and reported as corrected.
func ClampQuantityInput(raw string) (int, bool) {
	v := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 1, true
	}
	q := NormalizeQuantity(f)
	return q, float64(q) != f
}

func (vs ViewSynchronizer) Apply(m domain.Mutation) domain.SyncResult {
	qty, corrected := ClampQuantityInput(m.Value)

	applied := false
	switch m.Kind {
	case domain.MutationSelect:
		applied = vs.Store.Select(m.ProductID, float64(qty))
	case domain.MutationDeselect:
		applied = vs.Store.Deselect(m.ProductID)
	case domain.MutationQuantityChange:
		applied = vs.Store.SetQuantity(m.ProductID, float64(qty))
	}

	surfaces := vs.surfacesFor(m.ProductID, m.Surface)
	res := domain.SyncResult{
		ProductID: m.ProductID,
		Applied:   applied,
		Corrected: corrected,
		Quantity:  qty,
		Surfaces:  make([]domain.SurfaceState, 0, len(surfaces)),
		Total:     domain.Money(vs.Store.GrandTotal()),
		Count:     vs.Store.Len(),
	}
	for _, s := range surfaces {
		res.Surfaces = append(res.Surfaces, vs.State(m.ProductID, s, qty))
	}
	return res
}

// State is the display state of one surface. fallbackQty fills the
// quantity field of unselected products.
func (vs ViewSynchronizer) State(productID string, s domain.Surface, fallbackQty int) domain.SurfaceState {
	st := domain.SurfaceState{
		Surface:   s,
		ProductID: productID,
		Quantity:  fallbackQty,
		ItemTotal: domain.Money(vs.Store.ItemTotal(productID)),
	}
	if st.Quantity < 1 {
		st.Quantity = 1
	}
	if e, ok := vs.Store.Entry(productID); ok {
		st.Checked = true
		st.QuantityEnabled = true
		st.Quantity = e.Quantity
	}
	return st
}

func (vs ViewSynchronizer) surfacesFor(productID string, origin domain.Surface) []domain.Surface {
	var list []domain.Surface
	if vs.Surfaces != nil {
		list = vs.Surfaces.SurfacesFor(productID)
	}
	if origin.Valid() {
		for _, s := range list {
			if s == origin {
				return list
			}
		}
		list = append(list, origin)
	}
	return list
}
