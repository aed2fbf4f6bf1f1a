package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/estimator/internal/domain"
)

// Session is the estimator state of one page load: its selection, its
// active filter and the modal currently open, if any.
type Session struct {
	ID        uuid.UUID
	Token     string
	CreatedAt time.Time

	mu       sync.Mutex
	products *ProductUC
	store    *SelectionStore
	filter   domain.FilterState
	modal    string
	lastSeen time.Time
}

// CardView pairs a product with what its grid card must display.
type CardView struct {
	Product domain.Product
	State   domain.SurfaceState
}

func (s *Session) sync() ViewSynchronizer {
	return ViewSynchronizer{Store: s.store, Surfaces: sessionSurfaces{s}}
}

// sessionSurfaces is used while s.mu is held.
type sessionSurfaces struct{ s *Session }

func (ss sessionSurfaces) SurfacesFor(productID string) []domain.Surface {
	var out []domain.Surface
	if ss.s.products.Visible(productID, ss.s.filter) {
		out = append(out, domain.SurfaceGrid)
	}
	if ss.s.modal != "" && ss.s.modal == productID {
		out = append(out, domain.SurfaceModal)
	}
	return out
}

// Apply runs one mutation. Mutations on the same session never interleave.
func (s *Session) Apply(m domain.Mutation) domain.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync().Apply(m)
}

// SetFilter stores the active filter and returns the matching cards.
func (s *Session) SetFilter(term, category string) []CardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category == "" {
		category = domain.AllCategories
	}
	s.filter = domain.FilterState{Category: category, Term: term}
	return s.cardsLocked()
}

func (s *Session) Filter() domain.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Session) Cards() []CardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardsLocked()
}

func (s *Session) cardsLocked() []CardView {
	list := s.products.Filter(s.filter.Term, s.filter.Category)
	vs := s.sync()
	cards := make([]CardView, 0, len(list))
	for _, p := range list {
		cards = append(cards, CardView{Product: p, State: vs.State(p.ID, domain.SurfaceGrid, 1)})
	}
	return cards
}

// OpenModal shows a product in the detail view. The modal controls are
// initialized from the store; the selection is left untouched.
func (s *Session) OpenModal(productID string) (CardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products.FindQuotable(productID)
	if !ok {
		return CardView{}, domain.ErrNotFound
	}
	s.modal = productID
	return CardView{Product: p, State: s.sync().State(productID, domain.SurfaceModal, 1)}, nil
}

func (s *Session) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = ""
}

func (s *Session) OpenModalID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal
}

func (s *Session) Quote() Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return QuoteCalculator{Store: s.store}.Snapshot()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionUC keeps the live estimator sessions in memory. A page load only
// mints a signed token; the session is stored on its first interactive
// request, so page views that never touch the estimator leave nothing
// behind.
type SessionUC struct {
	Products *ProductUC
	IdleTTL  time.Duration
	Now      func() time.Time

	key      []byte
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionUC(products *ProductUC, idleTTL time.Duration) *SessionUC {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return &SessionUC{Products: products, IdleTTL: idleTTL, Now: time.Now, key: key, sessions: map[uuid.UUID]*Session{}}
}

func (uc *SessionUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Mint issues a token for a new session without storing anything.
func (uc *SessionUC) Mint() string {
	return uc.sign(uuid.New(), uc.now())
}

func (uc *SessionUC) sign(id uuid.UUID, issued time.Time) string {
	payload := make([]byte, 24)
	copy(payload, id[:])
	binary.BigEndian.PutUint64(payload[16:], uint64(issued.Unix()))
	h := hmac.New(sha256.New, uc.key)
	h.Write(payload)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)) + "." + base64.RawURLEncoding.EncodeToString(payload)
}

func (uc *SessionUC) parse(token string) (uuid.UUID, time.Time, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return uuid.Nil, time.Time{}, domain.ErrUnknownSession
	}
	sig, err1 := base64.RawURLEncoding.DecodeString(parts[0])
	payload, err2 := base64.RawURLEncoding.DecodeString(parts[1])
	if err1 != nil || err2 != nil || len(payload) != 24 {
		return uuid.Nil, time.Time{}, domain.ErrUnknownSession
	}
	h := hmac.New(sha256.New, uc.key)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return uuid.Nil, time.Time{}, domain.ErrUnknownSession
	}
	id, err := uuid.FromBytes(payload[:16])
	if err != nil {
		return uuid.Nil, time.Time{}, domain.ErrUnknownSession
	}
	issued := time.Unix(int64(binary.BigEndian.Uint64(payload[16:])), 0)
	return id, issued, nil
}

func (uc *SessionUC) newSession(id uuid.UUID, token string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Token:     token,
		CreatedAt: now,
		products:  uc.Products,
		store:     NewSelectionStore(uc.Products),
		filter:    domain.DefaultFilter(),
		lastSeen:  now,
	}
}

// Draft returns an empty session with a fresh token. It is not stored.
func (uc *SessionUC) Draft() *Session {
	now := uc.now()
	id := uuid.New()
	return uc.newSession(id, uc.sign(id, now), now)
}

// New starts and stores an empty session.
func (uc *SessionUC) New() *Session {
	s := uc.Draft()
	uc.mu.Lock()
	uc.sessions[s.ID] = s
	uc.mu.Unlock()
	return s
}

// resolve verifies token and returns the stored session. A valid token
// that was never stored yields a draft when store is false and a stored
// session when store is true. Tokens older than IdleTTL with no stored
// session are unknown: their session either expired or never existed.
func (uc *SessionUC) resolve(token string, store bool) (*Session, error) {
	id, issued, err := uc.parse(token)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	uc.mu.RLock()
	s, ok := uc.sessions[id]
	uc.mu.RUnlock()
	if ok {
		s.touch(now)
		return s, nil
	}
	if now.Sub(issued) > uc.IdleTTL {
		return nil, domain.ErrUnknownSession
	}
	if !store {
		return uc.newSession(id, token, now), nil
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if s, ok = uc.sessions[id]; !ok {
		s = uc.newSession(id, token, now)
		uc.sessions[id] = s
	}
	return s, nil
}

// Get returns the session for token, storing it on first use.
func (uc *SessionUC) Get(token string) (*Session, error) {
	return uc.resolve(token, true)
}

// Lookup is Get for read-only requests: a session that was never stored
// comes back empty and stays unstored.
func (uc *SessionUC) Lookup(token string) (*Session, error) {
	return uc.resolve(token, false)
}

func (uc *SessionUC) Len() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.sessions)
}

// Sweep drops sessions idle for longer than IdleTTL.
func (uc *SessionUC) Sweep() int {
	cutoff := uc.now().Add(-uc.IdleTTL)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	n := 0
	for id, s := range uc.sessions {
		if s.idleSince().Before(cutoff) {
			delete(uc.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (uc *SessionUC) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := uc.Sweep(); n > 0 {
				log.Debug().Int("sesiones", n).Msg("sesiones vencidas eliminadas")
			}
		}
	}
}
