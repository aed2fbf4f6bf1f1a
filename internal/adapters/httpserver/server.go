package httpserver

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/estimator/internal/adapters/printer"
	"github.com/phenrril/estimator/internal/domain"
	"github.com/phenrril/estimator/internal/usecase"
)

// Storefront is the branding shown on pages and printed quotes.
type Storefront struct {
	Name         string `yaml:"name"`
	Tagline      string `yaml:"tagline"`
	ContactEmail string `yaml:"contact_email"`
	Currency     string `yaml:"currency"`
	PDFCurrency  string `yaml:"pdf_currency"`
}

type Server struct {
	router    chi.Router
	tmpl      *template.Template
	products  *usecase.ProductUC
	sessions  *usecase.SessionUC
	contact   *usecase.ContactUC
	requests  domain.QuoteRequestRepo
	store     Storefront
	publicDir string
}

type Options struct {
	Store     Storefront
	Requests  domain.QuoteRequestRepo
	PublicDir string
}

func New(t *template.Template, p *usecase.ProductUC, sessions *usecase.SessionUC, contact *usecase.ContactUC, opts Options) http.Handler {
	s := &Server{
		router:    chi.NewRouter(),
		tmpl:      t,
		products:  p,
		sessions:  sessions,
		contact:   contact,
		requests:  opts.Requests,
		store:     opts.Store,
		publicDir: opts.PublicDir,
	}
	if s.publicDir == "" {
		s.publicDir = "public"
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(Logging)
	s.router.Use(middleware.Recoverer)
	s.router.Use(SecurityHeaders)
	s.router.Use(middleware.Compress(5))
	s.routes()
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Handle("/public/*", http.StripPrefix("/public/", http.FileServer(http.Dir(s.publicDir))))
	r.Get("/healthz", s.handleHealth)

	r.Get("/", s.handleHome)
	r.Get("/quotes/{id}", s.handleArchivedQuote)

	r.Route("/s/{sid}", func(r chi.Router) {
		r.Get("/grid", s.handleGrid)
		r.Get("/products/{id}", s.handleProductModal)
		r.Post("/modal/close", s.handleModalClose)
		r.Post("/mutations", s.apiMutation)
		r.Get("/quote", s.handleQuote)
		r.Get("/quote.pdf", s.handleQuotePDF)
		r.Get("/contact", s.handleContact)
	})
}

// session resolves the {sid} token, storing the session on first use.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*usecase.Session, bool) {
	return s.resolve(w, r, s.sessions.Get)
}

// peek resolves the {sid} token for read-only handlers without storing it.
func (s *Server) peek(w http.ResponseWriter, r *http.Request) (*usecase.Session, bool) {
	return s.resolve(w, r, s.sessions.Lookup)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request, find func(string) (*usecase.Session, error)) (*usecase.Session, bool) {
	sess, err := find(chi.URLParam(r, "sid"))
	if err != nil {
		http.Error(w, "session expired, reload the page", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) pageData(sess *usecase.Session) map[string]any {
	return map[string]any{
		"Store":   s.store,
		"Session": sess.Token,
		"Status":  string(s.products.Status()),
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Draft()
	data := s.pageData(sess)
	data["Categories"] = s.products.Categories()
	data["Filter"] = sess.Filter()
	data["Cards"] = sess.Cards()
	data["Total"] = domain.Money(sess.Quote().Total)
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, "index.html", data)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	data := s.pageData(sess)
	data["Cards"] = sess.SetFilter(q.Get("q"), q.Get("category"))
	data["Filter"] = sess.Filter()
	s.render(w, "grid.html", data)
}

func (s *Server) handleProductModal(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	card, err := sess.OpenModal(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	data := s.pageData(sess)
	data["Card"] = card
	s.render(w, "modal.html", data)
}

func (s *Server) handleModalClose(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.CloseModal()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiMutation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var m domain.Mutation
	if err := json.NewDecoder(io.LimitReader(r.Body, 2048)).Decode(&m); err != nil {
		http.Error(w, "json", http.StatusBadRequest)
		return
	}
	if !m.Kind.Valid() || strings.TrimSpace(m.ProductID) == "" {
		http.Error(w, "mutation", http.StatusBadRequest)
		return
	}
	if m.Surface == "" {
		m.Surface = domain.SurfaceGrid
	}
	if !m.Surface.Valid() {
		http.Error(w, "surface", http.StatusBadRequest)
		return
	}
	res := sess.Apply(m)
	if !res.Applied {
		log.Debug().Str("product", m.ProductID).Str("kind", string(m.Kind)).Msg("mutación sin efecto")
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.peek(w, r)
	if !ok {
		return
	}
	q := sess.Quote()
	data := s.pageData(sess)
	data["Items"] = q.Items
	data["Total"] = q.Total
	data["Date"] = time.Now()
	s.render(w, "quote.html", data)
}

func (s *Server) handleQuotePDF(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.peek(w, r)
	if !ok {
		return
	}
	q := sess.Quote()
	now := time.Now()
	buf, err := printer.QuotePDF(printer.QuoteDoc{
		StoreName: s.store.Name,
		Tagline:   s.store.Tagline,
		Contact:   s.store.ContactEmail,
		Currency:  s.store.PDFCurrency,
		Date:      now,
		Items:     q.Items,
		Total:     q.Total,
	})
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID.String()).Msg("pdf cotización")
		http.Error(w, "pdf", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=quote-"+now.Format("20060102")+".pdf")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.peek(w, r)
	if !ok {
		return
	}
	link, err := s.contact.HandOff(r.Context(), sess)
	if err != nil {
		if errors.Is(err, usecase.ErrNoContactTarget) {
			http.Error(w, "contact form not configured", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("contacto")
		http.Error(w, "contact", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}

func (s *Server) handleArchivedQuote(w http.ResponseWriter, r *http.Request) {
	if s.requests == nil {
		http.NotFound(w, r)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	q, err := s.requests.FindByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("quote", id.String()).Msg("buscar cotización")
		}
		http.NotFound(w, r)
		return
	}
	data := map[string]any{
		"Store":     s.store,
		"Items":     q.Items,
		"Total":     q.Total,
		"Date":      q.CreatedAt,
		"Reference": q.ID.String(),
	}
	s.render(w, "quote.html", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.products.Status()
	code := http.StatusOK
	if status == usecase.CatalogFailed || status == usecase.CatalogLoading {
		code = http.StatusServiceUnavailable
	}
	body := map[string]any{
		"status":   status,
		"products": len(s.products.Products()),
		"quotable": len(s.products.QuotableProducts()),
		"sessions": s.sessions.Len(),
	}
	if at := s.products.LoadedAt(); !at.IsZero() {
		body["loaded_at"] = at.Format(time.RFC3339)
	}
	writeJSON(w, code, body)
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("tpl", name).Msg("render")
		http.Error(w, "tpl", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
