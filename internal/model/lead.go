package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Lead roles accepted on a submission.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleBoth   = "both"
)

// Lead represents an interest submission in the database. Rows are
// append-only; duplicates are permitted.
type Lead struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Email     string         `db:"email" json:"email"`
	School    string         `db:"school" json:"school"`
	Role      string         `db:"role" json:"role"`
	Answers   types.JSONText `db:"answers" json:"answers"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	UserAgent string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
