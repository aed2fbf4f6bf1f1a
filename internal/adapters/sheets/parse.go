package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/estimator/internal/domain"
)

// ParseCSV reads a header row followed by data rows.
func ParseCSV(r io.Reader) ([]domain.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows := [][]string{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		rows = append(rows, row)
	}
	return recordsFromRows(rows), nil
}

// ParseXLSX reads the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]domain.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx sin hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("xlsx %s: %w", sheets[0], err)
	}
	return recordsFromRows(rows), nil
}

// ParseHTML reads the first table of a published sheet page. Row-number
// header cells (th) are ignored.
func ParseHTML(r io.Reader) ([]domain.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("html sin tabla")
	}
	rows := [][]string{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, row)
	})
	return recordsFromRows(rows), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// recordsFromRows takes the first non-blank row as the header.
func recordsFromRows(rows [][]string) []domain.RawRecord {
	var header []string
	out := []domain.RawRecord{}
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		out = append(out, domain.NewRawRecord(header, row))
	}
	return out
}
