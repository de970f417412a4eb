package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goodloop/leads/internal/model"
)

// PartnerRepository handles partner data operations
type PartnerRepository struct{}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository() *PartnerRepository {
	return &PartnerRepository{}
}

// GetBySlug retrieves a partner by its slug
func (r *PartnerRepository) GetBySlug(ctx context.Context, db DBExecutor, slug string) (*model.Partner, error) {
	query := `
		SELECT id, slug, name, created_at
		FROM partners
		WHERE slug = $1
	`

	var partner model.Partner
	err := db.GetContext(ctx, &partner, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return &partner, nil
}
