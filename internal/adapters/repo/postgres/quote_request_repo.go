package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/estimator/internal/domain"
)

type QuoteRequestRepo struct{ db *gorm.DB }

func NewQuoteRequestRepo(db *gorm.DB) *QuoteRequestRepo { return &QuoteRequestRepo{db: db} }

func (r *QuoteRequestRepo) Migrate() error {
	if err := r.db.AutoMigrate(&domain.QuoteRequest{}); err != nil {
		return err
	}
	if err := r.db.Exec("CREATE INDEX IF NOT EXISTS idx_quote_requests_created_at ON quote_requests(created_at)").Error; err != nil {
		log.Warn().Err(err).Msg("índice de quote_requests")
	}
	return nil
}

func (r *QuoteRequestRepo) Save(ctx context.Context, q *domain.QuoteRequest) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Save(q).Error
}

func (r *QuoteRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	var q domain.QuoteRequest
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}
