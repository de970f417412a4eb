package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goodloop/leads/internal/model"
)

// OfferRepository handles offer data operations
type OfferRepository struct{}

// NewOfferRepository creates a new offer repository
func NewOfferRepository() *OfferRepository {
	return &OfferRepository{}
}

const offerColumns = `id, partner_id, active, starts_at, ends_at, school_whitelist, total_limit, total_issued, created_at`

// GetCurrent retrieves the most recently created active offer whose validity
// window contains now.
func (r *OfferRepository) GetCurrent(ctx context.Context, db DBExecutor, partnerID uuid.UUID, now time.Time) (*model.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE partner_id = $1 AND active = TRUE AND starts_at <= $2 AND ends_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var offer model.Offer
	err := db.GetContext(ctx, &offer, query, partnerID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get current offer: %w", err)
	}

	return &offer, nil
}

// GetLatest retrieves the most recently created offer for the partner
// regardless of window or active state.
func (r *OfferRepository) GetLatest(ctx context.Context, db DBExecutor, partnerID uuid.UUID) (*model.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var offer model.Offer
	err := db.GetContext(ctx, &offer, query, partnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest offer: %w", err)
	}

	return &offer, nil
}

// IncrementIssued bumps the offer's running issued counter. The counter is
// advisory and not tied to the coupon insert transactionally.
func (r *OfferRepository) IncrementIssued(ctx context.Context, db DBExecutor, offerID uuid.UUID) error {
	query := `
		UPDATE offers
		SET total_issued = total_issued + 1
		WHERE id = $1
	`

	if _, err := db.ExecContext(ctx, query, offerID); err != nil {
		return fmt.Errorf("failed to increment issued counter: %w", err)
	}

	return nil
}
