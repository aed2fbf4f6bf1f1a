package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories is the pass-through category filter.
const AllCategories = "All"

type Product struct {
	ID          string
	Name        string
	Category    string
	SubCategory string
	Description string
	Warranty    string
	Note        string
	TestInfo    string
	Image       string
	Rate        decimal.NullDecimal
}

// Quotable reports whether the product carries a positive numeric rate.
func (p Product) Quotable() bool {
	return p.Rate.Valid && p.Rate.Decimal.IsPositive()
}

// RawRecord is one loosely-typed catalog row keyed by normalized header.
type RawRecord map[string]string

var headerAliases = map[string]string{
	"subcategory":  "subcategory",
	"sub_category": "subcategory",
	"sub category": "subcategory",
	"sub-category": "subcategory",
	"testinfo":     "testinfo",
	"test_info":    "testinfo",
	"test info":    "testinfo",
	"price":        "rate",
	"image_url":    "image",
	"imageurl":     "image",
}

// NormalizeHeader lowercases and trims a column header and folds the known
// spelling variants onto the canonical field names.
func NormalizeHeader(h string) string {
	k := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	if alias, ok := headerAliases[k]; ok {
		return alias
	}
	return k
}

// Get returns the trimmed value stored under the given header.
func (r RawRecord) Get(key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r[NormalizeHeader(key)])
}

// NewRawRecord zips a header row with a value row. Missing trailing cells
// are treated as empty.
func NewRawRecord(header, row []string) RawRecord {
	rec := make(RawRecord, len(header))
	for i, h := range header {
		k := NormalizeHeader(h)
		if k == "" {
			continue
		}
		v := ""
		if i < len(row) {
			v = row[i]
		}
		if _, exists := rec[k]; exists && strings.TrimSpace(v) == "" {
			continue
		}
		rec[k] = v
	}
	return rec
}

// ParseRate parses a rate cell strictly. Anything that is not a plain
// number yields an invalid NullDecimal.
func ParseRate(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
