package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/phenrril/estimator/internal/domain"
)

type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

const maxFeedBytes = 32 << 20

// ReadOnlyScope is enough to export a private spreadsheet.
const ReadOnlyScope = "https://www.googleapis.com/auth/drive.readonly"

// Source reads the catalog from a published spreadsheet URL or a local
// file.
type Source struct {
	URL    string
	Format Format
	client *http.Client
}

func New(rawURL string, format Format, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Source{URL: rawURL, Format: format, client: client}
}

// NewAuthorized fetches through a service account, for sheets that are
// shared instead of published.
func NewAuthorized(ctx context.Context, rawURL string, format Format, credentialsJSON []byte) (*Source, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, ReadOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("credenciales google: %w", err)
	}
	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = 20 * time.Second
	return New(rawURL, format, client), nil
}

func isRemote(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func (s *Source) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	if strings.TrimSpace(s.URL) == "" {
		return nil, errors.New("catalog url vacía")
	}
	var (
		data        []byte
		contentType string
		err         error
	)
	if isRemote(s.URL) {
		data, contentType, err = s.download(ctx)
	} else {
		data, err = os.ReadFile(strings.TrimPrefix(s.URL, "file://"))
	}
	if err != nil {
		return nil, err
	}
	format := s.Format
	if format == FormatAuto {
		format = DetectFormat(s.URL, contentType)
	}
	return Parse(bytes.NewReader(data), format)
}

func (s *Source) download(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, text/html;q=0.8, */*;q=0.5")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("catalog http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// DetectFormat guesses the feed format from the published URL, the file
// extension or the response content type.
func DetectFormat(rawURL, contentType string) Format {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "output=xlsx"), strings.Contains(u, "format=xlsx"):
		return FormatXLSX
	case strings.Contains(u, "output=csv"), strings.Contains(u, "format=csv"), strings.Contains(u, "tqx=out:csv"):
		return FormatCSV
	case strings.Contains(u, "pubhtml"), strings.Contains(u, "output=html"):
		return FormatHTML
	}
	if !isRemote(rawURL) {
		switch strings.ToLower(filepath.Ext(rawURL)) {
		case ".xlsx":
			return FormatXLSX
		case ".html", ".htm":
			return FormatHTML
		}
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "spreadsheetml"):
		return FormatXLSX
	case strings.Contains(ct, "text/html"):
		return FormatHTML
	}
	return FormatCSV
}

func Parse(r io.Reader, format Format) ([]domain.RawRecord, error) {
	switch format {
	case FormatXLSX:
		return ParseXLSX(r)
	case FormatHTML:
		return ParseHTML(r)
	case FormatCSV, FormatAuto:
		return ParseCSV(r)
	}
	return nil, fmt.Errorf("formato desconocido %q", format)
}
