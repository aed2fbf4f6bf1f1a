package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteRequest is a quote handed off to the contact form.
type QuoteRequest struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SessionID uuid.UUID       `gorm:"type:uuid;index"`
	Items     []LineItem      `gorm:"type:jsonb;serializer:json"`
	ItemCount int             `gorm:"not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Summary   string          `gorm:"type:text"`
	CreatedAt time.Time
}

type QuoteRequestRepo interface {
	Save(ctx context.Context, q *QuoteRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*QuoteRequest, error)
}

// CatalogSource delivers the raw rows of the published spreadsheet.
type CatalogSource interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}
