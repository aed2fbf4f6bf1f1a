package app

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"gorm.io/gorm"

	"github.com/phenrril/estimator/internal/adapters/httpserver"
	"github.com/phenrril/estimator/internal/adapters/repo/postgres"
	"github.com/phenrril/estimator/internal/adapters/sheets"
	"github.com/phenrril/estimator/internal/domain"
	"github.com/phenrril/estimator/internal/usecase"
	"github.com/phenrril/estimator/internal/views"
)

type App struct {
	Config    Config
	DB        *gorm.DB
	Tmpl      *template.Template
	ProductUC *usecase.ProductUC
	SessionUC *usecase.SessionUC
	ContactUC *usecase.ContactUC
	Requests  *postgres.QuoteRequestRepo
}

// NewApp wires the estimator. db may be nil, in which case quote requests
// are not archived.
func NewApp(ctx context.Context, cfg Config, db *gorm.DB) (*App, error) {
	src, err := newCatalogSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: db}
	app.ProductUC = usecase.NewProductUC(src)
	app.SessionUC = usecase.NewSessionUC(app.ProductUC, cfg.SessionIdleTTL)
	app.ContactUC = &usecase.ContactUC{
		FormURL:  cfg.ContactFormURL,
		Field:    cfg.ContactFormField,
		Email:    cfg.Store.ContactEmail,
		Currency: cfg.Store.Currency,
	}
	if db != nil {
		app.Requests = postgres.NewQuoteRequestRepo(db)
		app.ContactUC.Requests = app.Requests
	}

	tmpl, err := ParseTemplates(cfg.Store, cfg.IsDev())
	if err != nil {
		return nil, err
	}
	app.Tmpl = tmpl
	return app, nil
}

func newCatalogSource(ctx context.Context, cfg Config) (domain.CatalogSource, error) {
	format := sheets.Format(cfg.CatalogFormat)
	if cfg.CredentialsFile == "" {
		return sheets.New(cfg.CatalogURL, format, nil), nil
	}
	creds, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return sheets.NewAuthorized(ctx, cfg.CatalogURL, format, creds)
}

// FuncMap holds the template helpers shared by every page.
func FuncMap(store httpserver.Storefront) template.FuncMap {
	return template.FuncMap{
		"currency": func() string { return store.Currency },
		"money":    func(v decimal.Decimal) string { return domain.Money(v) },
		"rate": func(v decimal.NullDecimal) string {
			if !v.Valid {
				return ""
			}
			return domain.Money(v.Decimal)
		},
		"img": func(u string) string {
			s := strings.TrimSpace(u)
			if s == "" {
				return s
			}
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "/") {
				s = "/" + s
			}
			return strings.ReplaceAll(s, " ", "%20")
		},
		"rich": RichText,
	}
}

// ParseTemplates reads the views from disk in development so edits show up
// on reload, and from the embedded copy otherwise.
func ParseTemplates(store httpserver.Storefront, dev bool) (*template.Template, error) {
	base := template.New("layout").Funcs(FuncMap(store))
	if dev {
		if _, err := os.Stat("internal/views"); err == nil {
			return base.ParseGlob("internal/views/*.html")
		}
	}
	return base.ParseFS(views.FS, "*.html")
}

var richPolicy = newRichPolicy()

func newRichPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// RichText renders markdown from the catalog and strips anything unsafe.
func RichText(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(richPolicy.SanitizeBytes(buf.Bytes()))
}

// Start loads the catalog in the background and begins the periodic jobs.
// The server answers with a loading state until the first fetch finishes.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.ProductUC.Refresh(ctx); err != nil {
			log.Error().Err(err).Str("url", a.Config.CatalogURL).Msg("carga de catálogo")
		}
		a.ProductUC.Watch(ctx, a.Config.RefreshInterval)
	}()
	go a.SessionUC.Run(ctx, 0)
}

func (a *App) Migrate() error {
	if a.Requests == nil {
		return nil
	}
	return a.Requests.Migrate()
}

func (a *App) HTTPHandler() http.Handler {
	opts := httpserver.Options{Store: a.Config.Store, PublicDir: a.Config.PublicDir}
	if a.Requests != nil {
		opts.Requests = a.Requests
	}
	return httpserver.New(a.Tmpl, a.ProductUC, a.SessionUC, a.ContactUC, opts)
}
