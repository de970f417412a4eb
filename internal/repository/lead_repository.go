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

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// LeadRepository handles lead data operations
type LeadRepository struct{}

// NewLeadRepository creates a new lead repository
func NewLeadRepository() *LeadRepository {
	return &LeadRepository{}
}

// CreateLead appends a lead row. Leads are never updated afterwards.
func (r *LeadRepository) CreateLead(ctx context.Context, db DBExecutor, lead *model.Lead) error {
	query := `
		INSERT INTO leads (id, email, school, role, answers, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()

	_, err := db.ExecContext(ctx, query,
		lead.ID, lead.Email, lead.School, lead.Role, lead.Answers,
		lead.IP, lead.UserAgent, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}
