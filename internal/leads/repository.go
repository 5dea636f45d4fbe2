// Package leads provides the lead bounded context: persistence and
// lifecycle of customer leads created by the form webhook, campaigns,
// or agents.
package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fusioncaller_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is a persisted customer lead. All access is scoped to the owning
// organization.
type Lead struct {
	ID                  uuid.UUID
	OrganizationID      uuid.UUID
	Name                string
	Phone               string
	Email               string
	Address             string
	City                string
	State               string
	ZipCode             string
	ServiceType         string
	PropertyType        string
	Status              LeadStatus
	Source              string
	Notes               string
	Budget              string
	Timeline            string
	Tags                []string
	Metadata            map[string]string
	DetectionConfidence float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Repository provides data access for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new leads repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, organization_id, name, phone, email, address, city, state, zip_code,
	service_type, property_type, status, source, notes, budget, timeline, tags, metadata,
	detection_confidence, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.OrganizationID, &lead.Name, &lead.Phone, &lead.Email,
		&lead.Address, &lead.City, &lead.State, &lead.ZipCode,
		&lead.ServiceType, &lead.PropertyType, &lead.Status, &lead.Source,
		&lead.Notes, &lead.Budget, &lead.Timeline, &lead.Tags, &lead.Metadata,
		&lead.DetectionConfidence, &lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

// Create inserts a new lead. Two identical submissions create two rows;
// deduplication is intentionally not performed here.
func (r *Repository) Create(ctx context.Context, lead Lead) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (organization_id, name, phone, email, address, city, state, zip_code,
			service_type, property_type, status, source, notes, budget, timeline, tags, metadata,
			detection_confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+leadColumns,
		lead.OrganizationID, lead.Name, lead.Phone, lead.Email, lead.Address, lead.City,
		lead.State, lead.ZipCode, lead.ServiceType, lead.PropertyType, lead.Status,
		lead.Source, lead.Notes, lead.Budget, lead.Timeline, lead.Tags, lead.Metadata,
		lead.DetectionConfidence,
	)
	return scanLead(row)
}

// GetByID retrieves a lead by ID, scoped to the organization.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND organization_id = $2`, id, orgID)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found")
	}
	return lead, err
}

// List returns leads for an organization, newest first, optionally
// filtered by status.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, query ListLeadsQuery) ([]Lead, error) {
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sql := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE organization_id = $1`
	args := []any{orgID}
	if query.Status != "" {
		sql += ` AND status = $2`
		args = append(args, query.Status)
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, query.Offset)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListByIDs returns the subset of the given leads that belong to the
// organization. Used by campaign enqueueing.
func (r *Repository) ListByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE organization_id = $1 AND id = ANY($2)`, orgID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdateStatus changes a lead's status and returns the previous status.
func (r *Repository) UpdateStatus(ctx context.Context, id, orgID uuid.UUID, status LeadStatus) (LeadStatus, error) {
	var oldStatus LeadStatus
	err := r.pool.QueryRow(ctx, `
		UPDATE leads AS l
		SET status = $3, updated_at = now()
		FROM (SELECT status FROM leads WHERE id = $1 AND organization_id = $2 FOR UPDATE) AS prev
		WHERE l.id = $1 AND l.organization_id = $2
		RETURNING prev.status`, id, orgID, status).Scan(&oldStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("lead not found")
	}
	return oldStatus, err
}

// AddTags appends tags to a lead, skipping duplicates.
func (r *Repository) AddTags(ctx context.Context, id, orgID uuid.UUID, tags []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET tags = (SELECT array_agg(DISTINCT t) FROM unnest(tags || $3::text[]) AS t),
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2`, id, orgID, tags)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found")
	}
	return nil
}

// AppendNote appends a line to a lead's notes.
func (r *Repository) AppendNote(ctx context.Context, id, orgID uuid.UUID, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET notes = CASE WHEN notes = '' THEN $3 ELSE notes || E'\n' || $3 END,
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2`, id, orgID, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found")
	}
	return nil
}

// Delete removes a lead.
func (r *Repository) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM leads WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found")
	}
	return nil
}
