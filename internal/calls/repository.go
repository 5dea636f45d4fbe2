// Package calls provides the outbound-call bounded context: placing calls
// on the voice platform, recording attempts, and processing provider
// status callbacks.
package calls

import (
	"context"
	"errors"
	"time"

	"fusioncaller_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Attempt statuses as reported through the provider lifecycle.
const (
	AttemptQueued     = "queued"
	AttemptRinging    = "ringing"
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
	AttemptFailed     = "failed"
)

// Call outcomes recorded when an attempt finishes.
const (
	OutcomeAnswered  = "answered"
	OutcomeNoAnswer  = "no_answer"
	OutcomeBusy      = "busy"
	OutcomeVoicemail = "voicemail"
	OutcomeFailed    = "failed"
)

// Attempt is one outbound call attempt against a lead.
type Attempt struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	ProviderCallID string
	Phone          string
	Status         string
	Outcome        *string
	DurationSec    int
	RecordingKey   *string
	Trigger        string
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository provides data access for call attempts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new calls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const attemptColumns = `id, organization_id, lead_id, provider_call_id, phone, status, outcome,
	duration_sec, recording_key, trigger, error_message, created_at, updated_at`

func scanAttempt(row pgx.Row) (Attempt, error) {
	var a Attempt
	err := row.Scan(
		&a.ID, &a.OrganizationID, &a.LeadID, &a.ProviderCallID, &a.Phone, &a.Status,
		&a.Outcome, &a.DurationSec, &a.RecordingKey, &a.Trigger, &a.ErrorMessage,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// Create records a new call attempt.
func (r *Repository) Create(ctx context.Context, a Attempt) (Attempt, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO call_attempts (organization_id, lead_id, provider_call_id, phone, status, trigger, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+attemptColumns,
		a.OrganizationID, a.LeadID, a.ProviderCallID, a.Phone, a.Status, a.Trigger, a.ErrorMessage,
	)
	return scanAttempt(row)
}

// GetByID retrieves a call attempt scoped to the organization.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (Attempt, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+attemptColumns+`
		FROM call_attempts
		WHERE id = $1 AND organization_id = $2`, id, orgID)
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attempt{}, apperr.NotFound("call attempt not found")
	}
	return a, err
}

// GetByProviderCallID looks an attempt up by the provider's call reference.
// Used by the status webhook, which has no organization context of its own.
func (r *Repository) GetByProviderCallID(ctx context.Context, providerCallID string) (Attempt, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+attemptColumns+`
		FROM call_attempts
		WHERE provider_call_id = $1`, providerCallID)
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attempt{}, apperr.NotFound("call attempt not found")
	}
	return a, err
}

// ListByLead returns attempts for a lead, newest first.
func (r *Repository) ListByLead(ctx context.Context, leadID, orgID uuid.UUID) ([]Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+attemptColumns+`
		FROM call_attempts
		WHERE lead_id = $1 AND organization_id = $2
		ORDER BY created_at DESC`, leadID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// ListByOrganization returns recent attempts for an organization.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+attemptColumns+`
		FROM call_attempts
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func collectAttempts(rows pgx.Rows) ([]Attempt, error) {
	var attempts []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// UpdateStatus transitions an attempt's provider status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_attempts SET status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("call attempt not found")
	}
	return nil
}

// Finish records the end of a call attempt with its outcome.
func (r *Repository) Finish(ctx context.Context, id uuid.UUID, status, outcome string, durationSec int, recordingKey *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_attempts
		SET status = $2, outcome = $3, duration_sec = $4, recording_key = $5, updated_at = now()
		WHERE id = $1`, id, status, outcome, durationSec, recordingKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("call attempt not found")
	}
	return nil
}
