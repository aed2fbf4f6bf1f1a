package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phenrril/estimator/internal/adapters/httpserver"
)

type Config struct {
	Env  string
	Port string

	CatalogURL      string
	CatalogFormat   string
	RefreshInterval time.Duration
	CredentialsFile string

	DBDSN string

	ContactFormURL   string
	ContactFormField string

	SessionIdleTTL time.Duration
	PublicDir      string
	Store          httpserver.Storefront
}

func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

const defaultCatalogURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTH-7zq9uBbhmgXFAjr1zYskABxAeXBZWjBYRKswuvbRyhdxx3D8Z0I9VB7FyFFPtf3QUZ8aYh0mw-G/pub?output=csv"

// LoadConfig reads the environment. STORE_CONFIG may point to a YAML file
// with the storefront branding; STORE_* and CURRENCY_SYMBOL variables win
// over it.
func LoadConfig() (Config, error) {
	cfg := Config{
		Env:              strings.ToLower(os.Getenv("APP_ENV")),
		Port:             os.Getenv("PORT"),
		CatalogURL:       strings.TrimSpace(os.Getenv("CATALOG_URL")),
		CatalogFormat:    strings.ToLower(strings.TrimSpace(os.Getenv("CATALOG_FORMAT"))),
		CredentialsFile:  os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		DBDSN:            strings.TrimSpace(os.Getenv("DB_DSN")),
		ContactFormURL:   strings.TrimSpace(os.Getenv("CONTACT_FORM_URL")),
		ContactFormField: strings.TrimSpace(os.Getenv("CONTACT_FORM_FIELD")),
		PublicDir:        os.Getenv("PUBLIC_DIR"),
		Store: httpserver.Storefront{
			Name:        "Product Catalog",
			Currency:    "₹",
			PDFCurrency: "INR ",
		},
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = defaultCatalogURL
	}
	if cfg.PublicDir == "" {
		cfg.PublicDir = "public"
	}

	var err error
	if cfg.RefreshInterval, err = durationEnv("CATALOG_REFRESH_INTERVAL", 0); err != nil {
		return cfg, err
	}
	if cfg.SessionIdleTTL, err = durationEnv("SESSION_IDLE_TTL", 2*time.Hour); err != nil {
		return cfg, err
	}

	if path := os.Getenv("STORE_CONFIG"); path != "" {
		if err := loadStoreFile(path, &cfg.Store); err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv("STORE_NAME"); v != "" {
		cfg.Store.Name = v
	}
	if v := os.Getenv("STORE_TAGLINE"); v != "" {
		cfg.Store.Tagline = v
	}
	if v := os.Getenv("STORE_CONTACT_EMAIL"); v != "" {
		cfg.Store.ContactEmail = v
	}
	if v := os.Getenv("CURRENCY_SYMBOL"); v != "" {
		cfg.Store.Currency = v
	}
	if v := os.Getenv("PDF_CURRENCY"); v != "" {
		cfg.Store.PDFCurrency = v
	}
	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// loadStoreFile overlays the non-empty fields of a YAML store file.
func loadStoreFile(path string, store *httpserver.Storefront) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	var fromFile httpserver.Storefront
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("store config %s: %w", path, err)
	}
	if fromFile.Name != "" {
		store.Name = fromFile.Name
	}
	if fromFile.Tagline != "" {
		store.Tagline = fromFile.Tagline
	}
	if fromFile.ContactEmail != "" {
		store.ContactEmail = fromFile.ContactEmail
	}
	if fromFile.Currency != "" {
		store.Currency = fromFile.Currency
	}
	if fromFile.PDFCurrency != "" {
		store.PDFCurrency = fromFile.PDFCurrency
	}
	return nil
}
