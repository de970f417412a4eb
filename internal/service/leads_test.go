package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/goodloop/leads/internal/mailer"
	"github.com/goodloop/leads/internal/model"
	"github.com/goodloop/leads/internal/repository"
)

type fakeStore struct {
	partner    *model.Partner
	partnerErr error

	currentOffer *model.Offer
	currentErr   error
	latestOffer  *model.Offer
	latestErr    error

	unused          *model.Coupon
	unusedErr       error
	createCouponErr error
	incrementErr    error
	leadErr         error

	leads      []*model.Lead
	coupons    []*model.Coupon
	increments int
}

func (f *fakeStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	if f.leadErr != nil {
		return f.leadErr
	}
	f.leads = append(f.leads, lead)
	return nil
}

func (f *fakeStore) PartnerBySlug(ctx context.Context, slug string) (*model.Partner, error) {
	if f.partnerErr != nil {
		return nil, f.partnerErr
	}
	if f.partner == nil {
		return nil, repository.ErrNotFound
	}
	return f.partner, nil
}

func (f *fakeStore) CurrentOffer(ctx context.Context, partnerID uuid.UUID, now time.Time) (*model.Offer, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	if f.currentOffer == nil {
		return nil, repository.ErrNotFound
	}
	return f.currentOffer, nil
}

func (f *fakeStore) LatestOffer(ctx context.Context, partnerID uuid.UUID) (*model.Offer, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	if f.latestOffer == nil {
		return nil, repository.ErrNotFound
	}
	return f.latestOffer, nil
}

func (f *fakeStore) UnusedCoupon(ctx context.Context, email string, offerID uuid.UUID) (*model.Coupon, error) {
	if f.unusedErr != nil {
		return nil, f.unusedErr
	}
	if f.unused == nil {
		return nil, repository.ErrNotFound
	}
	return f.unused, nil
}

func (f *fakeStore) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	if f.createCouponErr != nil {
		return f.createCouponErr
	}
	f.coupons = append(f.coupons, coupon)
	return nil
}

func (f *fakeStore) IncrementIssued(ctx context.Context, offerID uuid.UUID) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.increments++
	return nil
}

type fakeMailer struct {
	sent []string // codes
	err  error
}

func (f *fakeMailer) SendCoupon(ctx context.Context, to, school, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, code)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func storeWithOffer() *fakeStore {
	partnerID := uuid.New()
	return &fakeStore{
		partner: &model.Partner{ID: partnerID, Slug: "clucknsip", Name: "Cluck N Sip"},
		currentOffer: &model.Offer{
			ID:        uuid.New(),
			PartnerID: partnerID,
			Active:    true,
		},
	}
}

func submit(t *testing.T, store *fakeStore, m Mailer, sub Submission) (*Result, error) {
	t.Helper()
	svc := NewLeadService(store, m, "clucknsip", quietLogger())
	return svc.Submit(context.Background(), sub)
}

func wantFlowError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *service.Error, got %v", err)
	}
	if fe.Status != status || fe.Code != code {
		t.Fatalf("expected %d %s, got %d %s", status, code, fe.Status, fe.Code)
	}
}

func TestSubmitHoneypotSkipsPersistence(t *testing.T) {
	store := storeWithOffer()
	m := &fakeMailer{}

	result, err := submit(t, store, m, Submission{
		Email:    "bot@example.com",
		School:   "UCSD",
		Honeypot: "gotcha",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Trapped {
		t.Fatal("expected trapped result")
	}
	if len(store.leads) != 0 || len(store.coupons) != 0 {
		t.Fatalf("expected no rows, got %d leads %d coupons", len(store.leads), len(store.coupons))
	}
	if len(m.sent) != 0 {
		t.Fatal("expected no email for trapped submission")
	}
}

func TestSubmitMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		school string
	}{
		{"no email", "", "UCSD"},
		{"no school", "a@b.com", ""},
		{"neither", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := storeWithOffer()
			_, err := submit(t, store, &fakeMailer{}, Submission{Email: tc.email, School: tc.school})
			wantFlowError(t, err, http.StatusBadRequest, "missing_fields")
			if len(store.leads) != 0 || len(store.coupons) != 0 {
				t.Fatal("expected no rows for rejected submission")
			}
		})
	}
}

func TestSubmitIssuesNewCoupon(t *testing.T) {
	store := storeWithOffer()
	m := &fakeMailer{}

	result, err := submit(t, store, m, Submission{Email: "a@b.com", School: "UCSD"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Reused {
		t.Fatal("expected a fresh coupon")
	}
	if !strings.HasPrefix(result.Code, "CLUC-") {
		t.Fatalf("unexpected code %q", result.Code)
	}
	if len(store.coupons) != 1 {
		t.Fatalf("expected 1 coupon row, got %d", len(store.coupons))
	}
	if store.coupons[0].Email != "a@b.com" || store.coupons[0].School != "UCSD" {
		t.Fatalf("coupon row mismatch: %+v", store.coupons[0])
	}
	if store.increments != 1 {
		t.Fatalf("expected 1 counter bump, got %d", store.increments)
	}
	if len(m.sent) != 1 || m.sent[0] != result.Code {
		t.Fatalf("expected email with code %q, got %v", result.Code, m.sent)
	}
}

func TestSubmitReusesExistingCoupon(t *testing.T) {
	store := storeWithOffer()
	store.unused = &model.Coupon{Code: "CLUC-AAAA1111", Email: "a@b.com"}

	result, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Reused || result.Code != "CLUC-AAAA1111" {
		t.Fatalf("expected reuse of existing code, got %+v", result)
	}
	if len(store.coupons) != 0 {
		t.Fatal("expected no new coupon row on reuse")
	}
	if store.increments != 0 {
		t.Fatal("expected no counter bump on reuse")
	}
}

func TestSubmitLeadInsertFailureIsNotFatal(t *testing.T) {
	store := storeWithOffer()
	store.leadErr = errors.New("duplicate key")

	result, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Code == "" {
		t.Fatal("expected a coupon despite lead insert failure")
	}
}

func TestSubmitDefaultsRoleAndAnswers(t *testing.T) {
	store := storeWithOffer()

	if _, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(store.leads) != 1 {
		t.Fatalf("expected 1 lead row, got %d", len(store.leads))
	}
	lead := store.leads[0]
	if lead.Role != model.RoleBuyer {
		t.Fatalf("expected default role buyer, got %q", lead.Role)
	}
	if string(lead.Answers) != "{}" {
		t.Fatalf("expected empty answers object, got %q", lead.Answers)
	}
}

func TestSubmitPartnerNotFound(t *testing.T) {
	store := &fakeStore{}
	_, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	wantFlowError(t, err, http.StatusNotFound, "partner_not_found")
}

func TestSubmitPartnerStorageError(t *testing.T) {
	store := &fakeStore{partnerErr: errors.New("connection refused")}
	_, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	wantFlowError(t, err, http.StatusInternalServerError, "connection refused")
}

func TestSubmitFallsBackToLatestOffer(t *testing.T) {
	store := storeWithOffer()
	// no current-window offer; an inactive one exists
	fallback := &model.Offer{ID: uuid.New(), PartnerID: store.partner.ID, Active: false}
	store.currentOffer = nil
	store.latestOffer = fallback

	result, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(store.coupons) != 1 || store.coupons[0].OfferID != fallback.ID {
		t.Fatal("expected coupon issued against the fallback offer")
	}
	if result.Code == "" {
		t.Fatal("expected a code")
	}
}

func TestSubmitNoOfferConfigured(t *testing.T) {
	store := storeWithOffer()
	store.currentOffer = nil
	store.latestOffer = nil

	_, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	wantFlowError(t, err, http.StatusNotFound, "no_offer_configured")
}

func TestSubmitSchoolNotAllowed(t *testing.T) {
	store := storeWithOffer()
	store.currentOffer.SchoolWhitelist = pq.StringArray{"UCSD", "SDSU"}

	_, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "City College"})
	wantFlowError(t, err, http.StatusForbidden, "school_not_allowed")
	if len(store.coupons) != 0 {
		t.Fatal("expected no coupon for ineligible school")
	}
}

func TestSubmitWhitelistedSchoolPasses(t *testing.T) {
	store := storeWithOffer()
	store.currentOffer.SchoolWhitelist = pq.StringArray{"UCSD", "SDSU"}

	if _, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "SDSU"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestSubmitOfferSoldOut(t *testing.T) {
	store := storeWithOffer()
	store.currentOffer.TotalLimit = sql.NullInt32{Int32: 2, Valid: true}
	store.currentOffer.TotalIssued = 2

	_, err := submit(t, store, &fakeMailer{}, Submission{Email: "fresh@b.com", School: "UCSD"})
	wantFlowError(t, err, http.StatusGone, "offer_sold_out")
	if len(store.coupons) != 0 {
		t.Fatal("expected no coupon for exhausted offer")
	}
}

func TestSubmitZeroLimitMeansUnlimited(t *testing.T) {
	store := storeWithOffer()
	store.currentOffer.TotalLimit = sql.NullInt32{Int32: 0, Valid: true}
	store.currentOffer.TotalIssued = 50

	if _, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestSubmitCouponLookupErrorIsFatal(t *testing.T) {
	store := storeWithOffer()
	store.unusedErr = errors.New("timeout")

	_, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	wantFlowError(t, err, http.StatusInternalServerError, "timeout")
}

func TestSubmitCouponInsertErrorIsFatal(t *testing.T) {
	store := storeWithOffer()
	store.createCouponErr = errors.New("insert failed")

	_, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	wantFlowError(t, err, http.StatusInternalServerError, "insert failed")
	if store.increments != 0 {
		t.Fatal("expected no counter bump after failed insert")
	}
}

func TestSubmitCounterBumpFailureIsNotFatal(t *testing.T) {
	store := storeWithOffer()
	store.incrementErr = errors.New("deadlock")

	result, err := submit(t, store, &fakeMailer{}, Submission{Email: "a@b.com", School: "UCSD"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(store.coupons) != 1 || result.Code == "" {
		t.Fatal("expected coupon despite counter failure")
	}
}

func TestSubmitMailerFailureIsNotFatal(t *testing.T) {
	store := storeWithOffer()
	m := &fakeMailer{err: errors.New("provider down")}

	result, err := submit(t, store, m, Submission{Email: "a@b.com", School: "UCSD"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Code == "" {
		t.Fatal("expected a code despite email failure")
	}
}

func TestSubmitWithDisabledMailer(t *testing.T) {
	store := storeWithOffer()

	result, err := submit(t, store, mailer.NewDisabled(quietLogger()), Submission{Email: "a@b.com", School: "UCSD"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Code == "" || len(store.coupons) != 1 {
		t.Fatal("unconfigured provider must not affect issuance")
	}
}
