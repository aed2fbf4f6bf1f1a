package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/phenrril/estimator/internal/domain"
)

// QuoteDoc is the data printed on a quote.
type QuoteDoc struct {
	StoreName string
	Tagline   string
	Contact   string
	Currency  string
	Reference string
	Date      time.Time
	Items     []domain.LineItem
	Total     decimal.Decimal
}

var (
	darkGray   = color.Color{Red: 38, Green: 38, Blue: 34}
	mediumGray = color.Color{Red: 121, Green: 119, Blue: 109}
)

func (d QuoteDoc) money(v decimal.Decimal) string {
	return d.Currency + domain.Money(v)
}

// QuotePDF lays the quote out on A4 portrait pages.
func QuotePDF(d QuoteDoc) (*bytes.Buffer, error) {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 20, 20)

	m.Row(15, func() {
		m.Col(12, func() {
			m.Text("QUOTE", props.Text{Size: 24, Style: consts.Bold, Color: darkGray})
		})
	})
	m.Row(10, func() {
		m.Col(8, func() {
			m.Text(d.StoreName, props.Text{Size: 16, Style: consts.Bold, Color: darkGray})
		})
		m.Col(4, func() {
			m.Text(d.Date.Format("Jan 02, 2006"), props.Text{Size: 9, Color: mediumGray, Align: consts.Right})
		})
	})
	if d.Tagline != "" || d.Contact != "" {
		m.Row(5, func() {
			m.Col(8, func() {
				m.Text(d.Tagline, props.Text{Size: 9, Color: mediumGray})
			})
			m.Col(4, func() {
				m.Text(d.Contact, props.Text{Size: 9, Color: mediumGray, Align: consts.Right})
			})
		})
	}
	if d.Reference != "" {
		m.Row(5, func() {
			m.Col(12, func() {
				m.Text("Ref. "+d.Reference, props.Text{Size: 8, Color: mediumGray})
			})
		})
	}
	m.Row(8, func() {})

	header := props.Text{Size: 8, Style: consts.Bold, Color: darkGray}
	headerRight := header
	headerRight.Align = consts.Right
	m.Row(6, func() {
		m.Col(5, func() { m.Text("Product", header) })
		m.Col(2, func() { m.Text("Qty", headerRight) })
		m.Col(2, func() { m.Text("Rate", headerRight) })
		m.Col(3, func() { m.Text("Total", headerRight) })
	})

	if len(d.Items) == 0 {
		m.Row(8, func() {
			m.Col(12, func() {
				m.Text("No products selected", props.Text{Size: 9, Style: consts.Italic, Color: mediumGray})
			})
		})
	}
	cell := props.Text{Size: 9, Color: darkGray}
	cellRight := cell
	cellRight.Align = consts.Right
	for _, li := range d.Items {
		name := li.Name
		if li.SubCategory != "" {
			name = fmt.Sprintf("%s (%s)", li.Name, li.SubCategory)
		}
		m.Row(6, func() {
			m.Col(5, func() { m.Text(name, cell) })
			m.Col(2, func() { m.Text(fmt.Sprintf("%d", li.Quantity), cellRight) })
			m.Col(2, func() { m.Text(d.money(li.Rate), cellRight) })
			m.Col(3, func() { m.Text(d.money(li.Total), cellRight) })
		})
	}

	m.Row(8, func() {})
	m.Row(7, func() {
		m.Col(7, func() {})
		m.Col(2, func() {
			m.Text("Grand total", props.Text{Size: 10, Style: consts.Bold, Color: darkGray, Align: consts.Right})
		})
		m.Col(3, func() {
			m.Text(d.money(d.Total), props.Text{Size: 10, Style: consts.Bold, Color: darkGray, Align: consts.Right})
		})
	})

	out, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("quote pdf: %w", err)
	}
	return &out, nil
}
