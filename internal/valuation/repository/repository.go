// Package repository persists valuation outcomes onto lead records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"valora_backend/internal/valuation/domain"
)

// ErrLeadNotFound indicates the lead id does not exist.
var ErrLeadNotFound = errors.New("lead not found")

// ValuationUpdate is the set of fields written onto a lead after a
// valuation attempt. Price fields are nil when no estimate was obtained.
type ValuationUpdate struct {
	PriceM2        *float64
	ValuationPrice *float64
	Source         domain.Source
	Confidence     int
	ValuationAt    time.Time
}

// Repository is the PostgreSQL lead store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a lead repository backed by the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpdateValuation writes the valuation outcome onto the lead. The write is
// idempotent: repeating it with the same values leaves the record unchanged
// apart from timestamps.
func (r *Repository) UpdateValuation(ctx context.Context, leadID string, u ValuationUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET price_m2 = $2,
		    valuation_price = $3,
		    valuation_source = $4,
		    valuation_confidence = $5,
		    valuation_at = $6,
		    updated_at = NOW()
		WHERE id = $1`,
		leadID, u.PriceM2, u.ValuationPrice, string(u.Source), u.Confidence, u.ValuationAt,
	)
	if err != nil {
		return fmt.Errorf("update lead valuation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}

	return nil
}
