package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\ufeffid,Name,Category,Sub Category,Description,Rate,Image\n" +
	"p1,Switch,Wiring,Modular,\"One-way, 6A\",20,img/switch.png\n" +
	",,,,,,\n" +
	"p2,Bulb,Lighting,LED,9W,0,\n"

func TestParseCSV(t *testing.T) {
	recs, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "p1", recs[0].Get("id"))
	assert.Equal(t, "Switch", recs[0].Get("name"))
	assert.Equal(t, "Modular", recs[0].Get("subCategory"))
	assert.Equal(t, "One-way, 6A", recs[0].Get("description"))
	assert.Equal(t, "img/switch.png", recs[0].Get("image"))
	assert.Equal(t, "0", recs[1].Get("rate"))
}

func TestParseCSVRaggedRows(t *testing.T) {
	recs, err := ParseCSV(strings.NewReader("name,rate,note\nSwitch,20\nBulb,5,extra,cell\n"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "", recs[0].Get("note"))
	assert.Equal(t, "extra", recs[1].Get("note"))
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"ID", "Name", "Category", "Rate"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"p1", "Switch", "Wiring", 20}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"p2", "Panel", "Lighting", 150.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	recs, err := ParseXLSX(buf)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Switch", recs[0].Get("name"))
	assert.Equal(t, "20", recs[0].Get("rate"))
	assert.Equal(t, "150.5", recs[1].Get("rate"))
}

func TestParseXLSXRejectsGarbage(t *testing.T) {
	_, err := ParseXLSX(strings.NewReader("not a workbook"))
	assert.Error(t, err)
}

const sampleHTML = `<html><body><table class="waffle">
<thead><tr><th></th><th>A</th><th>B</th><th>C</th></tr></thead>
<tbody>
<tr><th>1</th><td>Name</td><td>Category</td><td>Rate</td></tr>
<tr><th>2</th><td> Switch </td><td>Wiring</td><td>20</td></tr>
<tr><th>3</th><td></td><td></td><td></td></tr>
<tr><th>4</th><td>Bulb</td><td>Lighting</td><td>n/a</td></tr>
</tbody></table>
<table><tr><td>other</td></tr></table>
</body></html>`

func TestParseHTML(t *testing.T) {
	recs, err := ParseHTML(strings.NewReader(sampleHTML))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Switch", recs[0].Get("name"))
	assert.Equal(t, "Wiring", recs[0].Get("category"))
	assert.Equal(t, "n/a", recs[1].Get("rate"))
}

func TestParseHTMLWithoutTable(t *testing.T) {
	_, err := ParseHTML(strings.NewReader("<p>nothing</p>"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		url, contentType string
		want             Format
	}{
		{url: "https://docs.google.com/spreadsheets/d/e/x/pub?output=csv", want: FormatCSV},
		{url: "https://docs.google.com/spreadsheets/d/e/x/pub?output=xlsx", want: FormatXLSX},
		{url: "https://docs.google.com/spreadsheets/d/e/x/pubhtml", want: FormatHTML},
		{url: "https://docs.google.com/spreadsheets/d/x/export?format=xlsx", want: FormatXLSX},
		{url: "catalog.xlsx", want: FormatXLSX},
		{url: "file:///srv/catalog.html", want: FormatHTML},
		{url: "https://example.com/feed", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", want: FormatXLSX},
		{url: "https://example.com/feed", contentType: "text/html; charset=utf-8", want: FormatHTML},
		{url: "https://example.com/feed", contentType: "text/plain", want: FormatCSV},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectFormat(tc.url, tc.contentType), tc.url)
	}
}

func TestSourceFetchRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	recs, err := New(srv.URL+"/pub?output=csv", FormatAuto, srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestSourceFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, FormatCSV, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSourceFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	recs, err := New("file://"+path, FormatAuto, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = New(filepath.Join(t.TempDir(), "missing.csv"), FormatAuto, nil).Fetch(context.Background())
	assert.Error(t, err)
}

func TestSourceFetchWithoutURL(t *testing.T) {
	_, err := New(" ", FormatCSV, nil).Fetch(context.Background())
	assert.Error(t, err)
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse(strings.NewReader(""), Format("ods"))
	assert.Error(t, err)
}
