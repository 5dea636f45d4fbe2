// Package organizations provides the tenant bounded context.
// Organizations own leads, call settings, and the credit balance the
// dialer draws from.
package organizations

import (
	"context"
	"errors"
	"time"

	"fusioncaller_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Organization represents a tenant account.
type Organization struct {
	ID                  uuid.UUID
	Name                string
	WebhookSecret       *string
	AutoCallDefault     bool
	OutboundPhoneNumber string
	VoiceAssistantID    string
	CreditBalance       int64
	StripeCustomerID    *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Repository provides data access for organizations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgColumns = `id, name, webhook_secret, auto_call_default, outbound_phone_number,
	voice_assistant_id, credit_balance, stripe_customer_id, created_at, updated_at`

func scanOrganization(row pgx.Row) (Organization, error) {
	var org Organization
	err := row.Scan(
		&org.ID, &org.Name, &org.WebhookSecret, &org.AutoCallDefault, &org.OutboundPhoneNumber,
		&org.VoiceAssistantID, &org.CreditBalance, &org.StripeCustomerID, &org.CreatedAt, &org.UpdatedAt,
	)
	return org, err
}

// Create inserts a new organization.
func (r *Repository) Create(ctx context.Context, name string) (Organization, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO organizations (name)
		VALUES ($1)
		RETURNING `+orgColumns, name)
	return scanOrganization(row)
}

// GetByID retrieves an organization by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Organization, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orgColumns+`
		FROM organizations
		WHERE id = $1`, id)
	org, err := scanOrganization(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, apperr.NotFound("organization not found")
	}
	return org, err
}

// List returns all organizations, newest first.
func (r *Repository) List(ctx context.Context) ([]Organization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orgColumns+`
		FROM organizations
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// UpdateSettings updates the call-related settings of an organization.
func (r *Repository) UpdateSettings(ctx context.Context, id uuid.UUID, autoCallDefault bool, outboundPhone, assistantID string) (Organization, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE organizations
		SET auto_call_default = $2, outbound_phone_number = $3, voice_assistant_id = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+orgColumns, id, autoCallDefault, outboundPhone, assistantID)
	org, err := scanOrganization(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, apperr.NotFound("organization not found")
	}
	return org, err
}

// SetWebhookSecret replaces the shared secret required on form webhook requests.
// A nil secret disables secret verification for the organization.
func (r *Repository) SetWebhookSecret(ctx context.Context, id uuid.UUID, secret *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE organizations SET webhook_secret = $2, updated_at = now()
		WHERE id = $1`, id, secret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("organization not found")
	}
	return nil
}

// SetStripeCustomerID stores the Stripe customer reference after first checkout.
func (r *Repository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE organizations SET stripe_customer_id = $2, updated_at = now()
		WHERE id = $1`, id, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("organization not found")
	}
	return nil
}
