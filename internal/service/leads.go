package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/sirupsen/logrus"

	"github.com/goodloop/leads/internal/metrics"
	"github.com/goodloop/leads/internal/model"
	"github.com/goodloop/leads/internal/repository"
)

// Storage is the datastore capability the submission flow depends on.
// Lookups that match no row return repository.ErrNotFound.
type Storage interface {
	CreateLead(ctx context.Context, lead *model.Lead) error
	PartnerBySlug(ctx context.Context, slug string) (*model.Partner, error)
	CurrentOffer(ctx context.Context, partnerID uuid.UUID, now time.Time) (*model.Offer, error)
	LatestOffer(ctx context.Context, partnerID uuid.UUID) (*model.Offer, error)
	UnusedCoupon(ctx context.Context, email string, offerID uuid.UUID) (*model.Coupon, error)
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error
	IncrementIssued(ctx context.Context, offerID uuid.UUID) error
}

// Mailer dispatches the coupon notification email. Implementations must be
// safe to call even when the provider is unconfigured.
type Mailer interface {
	SendCoupon(ctx context.Context, to, school, code string) error
}

// Submission is one parsed form post plus request metadata.
type Submission struct {
	Email     string
	School    string
	Role      string
	Answers   json.RawMessage
	Honeypot  string
	IP        string
	UserAgent string
}

// Result is the outcome of a successful submission.
type Result struct {
	Code    string
	Reused  bool
	Trapped bool // honeypot hit, nothing was persisted
}

// LeadService runs the lead-capture and coupon-issuance flow
type LeadService struct {
	store       Storage
	mailer      Mailer
	partnerSlug string
	log         *logrus.Logger
	now         func() time.Time
}

// NewLeadService creates the service for the configured partner
func NewLeadService(store Storage, mailer Mailer, partnerSlug string, log *logrus.Logger) *LeadService {
	return &LeadService{
		store:       store,
		mailer:      mailer,
		partnerSlug: partnerSlug,
		log:         log,
		now:         time.Now,
	}
}

// Submit validates the submission, records a lead, resolves the partner's
// applicable offer, issues or reuses a coupon for (email, offer) and
// triggers the notification email. Lead capture and the issued-counter bump
// are advisory; coupon issuance is the primary guarantee.
//
// The reuse lookup and the insert are not serialized: two concurrent
// submissions for the same (email, offer) can both miss the lookup and mint
// two codes. The schema is expected to carry a partial unique index on
// (email, offer_id) WHERE used_at IS NULL to close that window.
func (s *LeadService) Submit(ctx context.Context, sub Submission) (*Result, error) {
	// Silent bot trap: respond success without touching the datastore.
	if sub.Honeypot != "" {
		metrics.HoneypotHits.Inc()
		return &Result{Trapped: true}, nil
	}

	if sub.Email == "" || sub.School == "" {
		return nil, errMissingFields
	}

	s.recordLead(ctx, sub)

	partner, err := s.store.PartnerBySlug(ctx, s.partnerSlug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errPartnerNotFound
		}
		return nil, storageErr(err)
	}

	now := s.now()
	offer, err := s.resolveOffer(ctx, partner.ID, now)
	if err != nil {
		return nil, err
	}

	if !offer.AllowsSchool(sub.School) {
		return nil, errSchoolNotAllowed
	}
	if offer.SoldOut() {
		return nil, errSoldOut
	}

	result, err := s.issueCoupon(ctx, partner, offer, sub, now)
	if err != nil {
		return nil, err
	}

	// Delivery failure never fails the request.
	if err := s.mailer.SendCoupon(ctx, sub.Email, sub.School, result.Code); err != nil {
		metrics.CouponEmails.WithLabelValues("failed").Inc()
		s.log.WithError(err).WithField("email", sub.Email).Error("coupon email send failed")
	}

	return result, nil
}

// recordLead appends the lead row. Failures are logged, not fatal — lead
// capture is advisory.
func (s *LeadService) recordLead(ctx context.Context, sub Submission) {
	role := sub.Role
	if role == "" {
		role = model.RoleBuyer
	}
	answers := sub.Answers
	if len(answers) == 0 {
		answers = json.RawMessage(`{}`)
	}

	lead := &model.Lead{
		Email:     sub.Email,
		School:    sub.School,
		Role:      role,
		Answers:   types.JSONText(answers),
		IP:        sub.IP,
		UserAgent: sub.UserAgent,
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		s.log.WithError(err).Warn("lead insert failed")
	}
}

// resolveOffer prefers the most recent active offer whose window contains
// now, falling back to the most recently created offer regardless of state.
func (s *LeadService) resolveOffer(ctx context.Context, partnerID uuid.UUID, now time.Time) (*model.Offer, error) {
	offer, err := s.store.CurrentOffer(ctx, partnerID, now)
	if err == nil {
		return offer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr(err)
	}

	offer, err = s.store.LatestOffer(ctx, partnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNoOffer
		}
		return nil, storageErr(err)
	}
	return offer, nil
}

// issueCoupon reuses the existing unused code for (email, offer) or mints
// and persists a new one, then bumps the offer's issued counter best-effort.
func (s *LeadService) issueCoupon(ctx context.Context, partner *model.Partner, offer *model.Offer, sub Submission, now time.Time) (*Result, error) {
	existing, err := s.store.UnusedCoupon(ctx, sub.Email, offer.ID)
	if err == nil {
		metrics.CouponsReused.Inc()
		return &Result{Code: existing.Code, Reused: true}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr(err)
	}

	coupon := &model.Coupon{
		OfferID:   offer.ID,
		PartnerID: partner.ID,
		Code:      GenerateCode(partner.Slug, now),
		Email:     sub.Email,
		School:    sub.School,
	}
	if err := s.store.CreateCoupon(ctx, coupon); err != nil {
		return nil, storageErr(err)
	}
	metrics.CouponsIssued.Inc()

	// Counter bump is not atomic with the insert; errors are swallowed and
	// the counter drifts rather than the request failing.
	if err := s.store.IncrementIssued(ctx, offer.ID); err != nil {
		s.log.WithError(err).WithField("offer_id", offer.ID).Warn("issued counter bump failed")
	}

	return &Result{Code: coupon.Code}, nil
}
