package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Partner represents a merchant participating in the coupon program
type Partner struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Offer represents a promotional campaign belonging to a partner. A NULL
// school_whitelist means every school qualifies; an empty array admits none.
type Offer struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	PartnerID       uuid.UUID      `db:"partner_id" json:"partner_id"`
	Active          bool           `db:"active" json:"active"`
	StartsAt        sql.NullTime   `db:"starts_at" json:"starts_at"`
	EndsAt          sql.NullTime   `db:"ends_at" json:"ends_at"`
	SchoolWhitelist pq.StringArray `db:"school_whitelist" json:"school_whitelist,omitempty"`
	TotalLimit      sql.NullInt32  `db:"total_limit" json:"total_limit,omitempty"`
	TotalIssued     int32          `db:"total_issued" json:"total_issued"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// AllowsSchool reports whether the submitted school passes the offer's
// whitelist, if one is configured.
func (o *Offer) AllowsSchool(school string) bool {
	if o.SchoolWhitelist == nil {
		return true
	}
	for _, s := range o.SchoolWhitelist {
		if s == school {
			return true
		}
	}
	return false
}

// SoldOut reports whether the offer's issuance limit has been reached. A
// zero or NULL limit means unlimited.
func (o *Offer) SoldOut() bool {
	return o.TotalLimit.Valid && o.TotalLimit.Int32 > 0 && o.TotalIssued >= o.TotalLimit.Int32
}

// Coupon represents an issued code tying one email to one offer. Rows are
// immutable here; used_at is set externally when a cashier redeems the code.
type Coupon struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	OfferID   uuid.UUID    `db:"offer_id" json:"offer_id"`
	PartnerID uuid.UUID    `db:"partner_id" json:"partner_id"`
	Code      string       `db:"code" json:"code"`
	Email     string       `db:"email" json:"email"`
	School    string       `db:"school" json:"school"`
	UsedAt    sql.NullTime `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
