package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/estimator/internal/domain"
)

type CatalogStatus string

const (
	CatalogLoading CatalogStatus = "loading"
	CatalogFailed  CatalogStatus = "failed"
	CatalogEmpty   CatalogStatus = "empty"
	CatalogReady   CatalogStatus = "ready"
)

type catalogSnapshot struct {
	status     CatalogStatus
	products   []domain.Product
	quotable   []domain.Product
	categories []string
	byID       map[string]int
	loadedAt   time.Time
}

// ProductUC holds the product set of the current catalog load. The whole
// set is swapped at once, so readers see either the previous or the new
// load.
type ProductUC struct {
	Source domain.CatalogSource

	current   atomic.Pointer[catalogSnapshot]
	refreshMu sync.Mutex
}

func NewProductUC(src domain.CatalogSource) *ProductUC {
	return &ProductUC{Source: src}
}

func (uc *ProductUC) snapshot() *catalogSnapshot {
	if s := uc.current.Load(); s != nil {
		return s
	}
	return &catalogSnapshot{status: CatalogLoading}
}

// Load builds a new product set from raw records and replaces the current
// one. It returns ErrEmptyCatalog when no quotable product survives.
func (uc *ProductUC) Load(records []domain.RawRecord) error {
	snap := buildSnapshot(records)
	uc.current.Store(snap)
	if snap.status == CatalogEmpty {
		return domain.ErrEmptyCatalog
	}
	return nil
}

func buildSnapshot(records []domain.RawRecord) *catalogSnapshot {
	snap := &catalogSnapshot{byID: map[string]int{}, loadedAt: time.Now()}
	for _, rec := range records {
		name := rec.Get("name")
		if name == "" {
			continue
		}
		idx := len(snap.products)
		id := rec.Get("id")
		if id == "" {
			id = "product-" + strconv.Itoa(idx)
		}
		if _, dup := snap.byID[id]; dup {
			alt := freeID(snap.byID, "product-"+strconv.Itoa(idx))
			log.Warn().Str("id", id).Str("reasignado", alt).Msg("id duplicado en el catálogo")
			id = alt
		}
		p := domain.Product{
			ID:          id,
			Name:        name,
			Category:    rec.Get("category"),
			SubCategory: rec.Get("subcategory"),
			Description: rec.Get("description"),
			Warranty:    rec.Get("warranty"),
			Note:        rec.Get("note"),
			TestInfo:    rec.Get("testinfo"),
			Image:       rec.Get("image"),
			Rate:        domain.ParseRate(rec.Get("rate")),
		}
		snap.byID[id] = len(snap.products)
		snap.products = append(snap.products, p)
	}

	seen := map[string]struct{}{}
	snap.categories = []string{domain.AllCategories}
	for _, p := range snap.products {
		if !p.Quotable() {
			continue
		}
		snap.quotable = append(snap.quotable, p)
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		snap.categories = append(snap.categories, p.Category)
	}

	if len(snap.quotable) == 0 {
		snap.status = CatalogEmpty
	} else {
		snap.status = CatalogReady
	}
	return snap
}

// freeID returns base, or base with the first free "-n" suffix.
func freeID(taken map[string]int, base string) string {
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		id := base + "-" + strconv.Itoa(n)
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}

func (uc *ProductUC) Status() CatalogStatus {
	return uc.snapshot().status
}

func (uc *ProductUC) LoadedAt() time.Time {
	return uc.snapshot().loadedAt
}

// Products returns every product of the current load, quotable or not.
func (uc *ProductUC) Products() []domain.Product {
	return uc.snapshot().products
}

func (uc *ProductUC) QuotableProducts() []domain.Product {
	return uc.snapshot().quotable
}

// Categories returns "All" followed by the distinct categories of the
// quotable products in first-seen order.
func (uc *ProductUC) Categories() []string {
	cats := uc.snapshot().categories
	if len(cats) == 0 {
		return []string{domain.AllCategories}
	}
	return cats
}

func (uc *ProductUC) Find(id string) (domain.Product, error) {
	snap := uc.snapshot()
	i, ok := snap.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return snap.products[i], nil
}

// FindQuotable resolves an id to a product that can be put in a quote.
func (uc *ProductUC) FindQuotable(id string) (domain.Product, bool) {
	p, err := uc.Find(id)
	if err != nil || !p.Quotable() {
		return domain.Product{}, false
	}
	return p, true
}

// Filter returns the quotable products matching both the search term and
// the category. An empty term and the "All" category match everything.
func (uc *ProductUC) Filter(term, category string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if category == "" {
		category = domain.AllCategories
	}
	out := []domain.Product{}
	for _, p := range uc.snapshot().quotable {
		if category != domain.AllCategories && p.Category != category {
			continue
		}
		if term != "" && !matchesTerm(p, term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Visible reports whether the product shows up under the given filter.
func (uc *ProductUC) Visible(id string, f domain.FilterState) bool {
	p, ok := uc.FindQuotable(id)
	if !ok {
		return false
	}
	if f.Category != "" && f.Category != domain.AllCategories && p.Category != f.Category {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Term))
	return term == "" || matchesTerm(p, term)
}

func matchesTerm(p domain.Product, term string) bool {
	for _, field := range []string{p.Name, p.SubCategory, p.Category, p.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Refresh fetches the feed and loads it. A failed fetch keeps the previous
// product set when there is one.
func (uc *ProductUC) Refresh(ctx context.Context) error {
	uc.refreshMu.Lock()
	defer uc.refreshMu.Unlock()

	if uc.Source == nil {
		return fmt.Errorf("%w: no catalog source", domain.ErrLoadFailed)
	}
	records, err := uc.Source.Fetch(ctx)
	if err != nil {
		prev := uc.current.Load()
		if prev == nil || prev.status == CatalogFailed {
			uc.current.Store(&catalogSnapshot{status: CatalogFailed, loadedAt: time.Now()})
		}
		return fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
	}
	if err := uc.Load(records); err != nil {
		return err
	}
	log.Info().Int("productos", len(uc.Products())).Int("cotizables", len(uc.QuotableProducts())).Msg("catálogo cargado")
	return nil
}

// Watch refreshes the catalog every interval until ctx is done.
func (uc *ProductUC) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := uc.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("refresco de catálogo")
			}
		}
	}
}
