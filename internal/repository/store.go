package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goodloop/leads/internal/model"
)

// Store bundles the per-table repositories over a single connection pool.
// It is the production implementation of the service layer's storage
// capability.
type Store struct {
	db       *sqlx.DB
	leads    *LeadRepository
	partners *PartnerRepository
	offers   *OfferRepository
	coupons  *CouponRepository
}

// NewStore creates a store backed by the given database
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:       db,
		leads:    NewLeadRepository(),
		partners: NewPartnerRepository(),
		offers:   NewOfferRepository(),
		coupons:  NewCouponRepository(),
	}
}

func (s *Store) CreateLead(ctx context.Context, lead *model.Lead) error {
	return s.leads.CreateLead(ctx, s.db, lead)
}

func (s *Store) PartnerBySlug(ctx context.Context, slug string) (*model.Partner, error) {
	return s.partners.GetBySlug(ctx, s.db, slug)
}

func (s *Store) CurrentOffer(ctx context.Context, partnerID uuid.UUID, now time.Time) (*model.Offer, error) {
	return s.offers.GetCurrent(ctx, s.db, partnerID, now)
}

func (s *Store) LatestOffer(ctx context.Context, partnerID uuid.UUID) (*model.Offer, error) {
	return s.offers.GetLatest(ctx, s.db, partnerID)
}

func (s *Store) UnusedCoupon(ctx context.Context, email string, offerID uuid.UUID) (*model.Coupon, error) {
	return s.coupons.GetUnused(ctx, s.db, email, offerID)
}

func (s *Store) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	return s.coupons.CreateCoupon(ctx, s.db, coupon)
}

func (s *Store) IncrementIssued(ctx context.Context, offerID uuid.UUID) error {
	return s.offers.IncrementIssued(ctx, s.db, offerID)
}
