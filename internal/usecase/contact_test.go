package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/estimator/internal/domain"
)

type memRequests struct {
	saved []*domain.QuoteRequest
	err   error
}

func (m *memRequests) Save(_ context.Context, q *domain.QuoteRequest) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, q)
	return nil
}

func (m *memRequests) FindByID(_ context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	for _, q := range m.saved {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestContactUC_Summary(t *testing.T) {
	_, store := scenarioStore(t)
	store.Select("p3", 3)
	store.Select("p1", 2)
	uc := &ContactUC{Currency: "₹"}

	got := uc.Summary(QuoteCalculator{Store: store}.Snapshot())
	want := "- Panel (LED) x3 @ ₹150.00 = ₹450.00\n" +
		"- Switch x2 @ ₹20.00 = ₹40.00\n" +
		"Total: ₹490.00"
	assert.Equal(t, want, got)
}

func TestContactUC_SummaryEmpty(t *testing.T) {
	uc := &ContactUC{Currency: "₹"}
	got := uc.Summary(Quote{Items: []domain.LineItem{}})
	assert.Equal(t, "No products selected\nTotal: ₹0.00", got)
}

func TestContactUC_ContactURL(t *testing.T) {
	tests := []struct {
		name    string
		uc      ContactUC
		check   func(t *testing.T, link string)
		wantErr error
	}{
		{
			name: "form with default field",
			uc:   ContactUC{FormURL: "https://forms.example.com/quote?lang=en"},
			check: func(t *testing.T, link string) {
				u, err := url.Parse(link)
				require.NoError(t, err)
				assert.Equal(t, "forms.example.com", u.Host)
				assert.Equal(t, "en", u.Query().Get("lang"))
				assert.Equal(t, "Total: ₹1.00", u.Query().Get("quote"))
			},
		},
		{
			name: "form with custom field",
			uc:   ContactUC{FormURL: "https://docs.google.com/forms/d/x/viewform", Field: "entry.123"},
			check: func(t *testing.T, link string) {
				u, err := url.Parse(link)
				require.NoError(t, err)
				assert.Equal(t, "Total: ₹1.00", u.Query().Get("entry.123"))
			},
		},
		{
			name: "mailto fallback",
			uc:   ContactUC{Email: "sales@example.com"},
			check: func(t *testing.T, link string) {
				assert.True(t, strings.HasPrefix(link, "mailto:sales@example.com?"))
				assert.Contains(t, link, "subject=Quote%20request")
				assert.NotContains(t, link, "+")
			},
		},
		{
			name:    "nothing configured",
			uc:      ContactUC{},
			wantErr: ErrNoContactTarget,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			link, err := tc.uc.ContactURL("Total: ₹1.00")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, link)
		})
	}
}

func TestContactUC_HandOffArchivesQuote(t *testing.T) {
	_, s := newSessions(t)
	s.Apply(domain.Mutation{ProductID: "p4", Kind: domain.MutationSelect, Value: "2", Surface: domain.SurfaceGrid})

	repo := &memRequests{}
	uc := &ContactUC{Email: "sales@example.com", Currency: "₹", Requests: repo}

	link, err := uc.HandOff(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "mailto:"))

	require.Len(t, repo.saved, 1)
	req := repo.saved[0]
	assert.Equal(t, s.ID, req.SessionID)
	assert.Equal(t, 1, req.ItemCount)
	assert.Equal(t, "900.00", domain.Money(req.Total))
	assert.Contains(t, req.Summary, "Panel light (LED) x2")
}

func TestContactUC_HandOffSkipsEmptyQuote(t *testing.T) {
	_, s := newSessions(t)
	repo := &memRequests{}
	uc := &ContactUC{FormURL: "https://forms.example.com/q", Requests: repo}

	_, err := uc.HandOff(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, repo.saved)
}

func TestContactUC_HandOffIgnoresArchiveErrors(t *testing.T) {
	_, s := newSessions(t)
	s.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationSelect, Value: "1", Surface: domain.SurfaceGrid})
	uc := &ContactUC{FormURL: "https://forms.example.com/q", Requests: &memRequests{err: errors.New("db down")}}

	link, err := uc.HandOff(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, link)
}

func TestContactUC_HandOffWithoutTarget(t *testing.T) {
	_, s := newSessions(t)
	repo := &memRequests{}
	s.Apply(domain.Mutation{ProductID: "p1", Kind: domain.MutationSelect, Value: "1", Surface: domain.SurfaceGrid})

	_, err := (&ContactUC{Requests: repo}).HandOff(context.Background(), s)
	assert.ErrorIs(t, err, ErrNoContactTarget)
	assert.Empty(t, repo.saved)
}
