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

// CouponRepository handles coupon data operations
type CouponRepository struct{}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository() *CouponRepository {
	return &CouponRepository{}
}

// GetUnused retrieves the unused coupon for an (email, offer) pair, if one
// exists. used_at is only ever set externally at redemption time.
func (r *CouponRepository) GetUnused(ctx context.Context, db DBExecutor, email string, offerID uuid.UUID) (*model.Coupon, error) {
	query := `
		SELECT id, offer_id, partner_id, code, email, school, used_at, created_at
		FROM coupons
		WHERE email = $1 AND offer_id = $2 AND used_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var coupon model.Coupon
	err := db.GetContext(ctx, &coupon, query, email, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get unused coupon: %w", err)
	}

	return &coupon, nil
}

// CreateCoupon inserts a freshly generated coupon row
func (r *CouponRepository) CreateCoupon(ctx context.Context, db DBExecutor, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, offer_id, partner_id, code, email, school, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	coupon.ID = uuid.New()
	coupon.CreatedAt = time.Now()

	_, err := db.ExecContext(ctx, query,
		coupon.ID, coupon.OfferID, coupon.PartnerID, coupon.Code,
		coupon.Email, coupon.School, coupon.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}
