package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/estimator/internal/domain"
)

var ErrNoContactTarget = errors.New("no contact target configured")

// ContactUC hands a quote off to the external contact form.
type ContactUC struct {
	FormURL  string
	Field    string
	Email    string
	Currency string
	Requests domain.QuoteRequestRepo
}

// Summary renders the quote as plain text, one line per item and the total
// last.
func (uc *ContactUC) Summary(q Quote) string {
	var b strings.Builder
	if q.Empty() {
		b.WriteString("No products selected\n")
	}
	for _, li := range q.Items {
		name := li.Name
		if li.SubCategory != "" {
			name += " (" + li.SubCategory + ")"
		}
		fmt.Fprintf(&b, "- %s x%d @ %s%s = %s%s\n", name, li.Quantity, uc.Currency, domain.Money(li.Rate), uc.Currency, domain.Money(li.Total))
	}
	fmt.Fprintf(&b, "Total: %s%s", uc.Currency, domain.Money(q.Total))
	return b.String()
}

// ContactURL builds the prefilled form link, falling back to a mailto link
// when only a contact email is configured.
func (uc *ContactUC) ContactURL(summary string) (string, error) {
	if strings.TrimSpace(uc.FormURL) != "" {
		u, err := url.Parse(uc.FormURL)
		if err != nil {
			return "", fmt.Errorf("contact form url: %w", err)
		}
		field := uc.Field
		if field == "" {
			field = "quote"
		}
		q := u.Query()
		q.Set(field, summary)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	if strings.TrimSpace(uc.Email) != "" {
		v := url.Values{}
		v.Set("subject", "Quote request")
		v.Set("body", summary)
		return "mailto:" + uc.Email + "?" + strings.ReplaceAll(v.Encode(), "+", "%20"), nil
	}
	return "", ErrNoContactTarget
}

// HandOff archives the session's quote when an archive is configured and
// returns the link to the contact target.
func (uc *ContactUC) HandOff(ctx context.Context, s *Session) (string, error) {
	q := s.Quote()
	summary := uc.Summary(q)
	link, err := uc.ContactURL(summary)
	if err != nil {
		return "", err
	}
	if uc.Requests != nil && !q.Empty() {
		req := &domain.QuoteRequest{
			ID:        uuid.New(),
			SessionID: s.ID,
			Items:     q.Items,
			ItemCount: len(q.Items),
			Total:     q.Total.Round(2),
			Summary:   summary,
			CreatedAt: time.Now(),
		}
		if err := uc.Requests.Save(ctx, req); err != nil {
			log.Error().Err(err).Str("session", s.ID.String()).Msg("guardar pedido de cotización")
		}
	}
	return link, nil
}
