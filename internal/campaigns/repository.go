// Package campaigns provides batch outbound dialing. A campaign snapshots a
// set of leads, then a queue worker dials them one by one so the voice
// provider is never hit with a burst.
package campaigns

import (
	"context"
	"errors"
	"time"

	"fusioncaller_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Campaign statuses.
const (
	StatusDraft     = "draft"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Campaign lead statuses within a campaign.
const (
	LeadQueued = "queued"
	LeadDialed = "dialed"
	LeadFailed = "failed"
)

// Campaign is a batch of leads to dial.
type Campaign struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Status         string
	TotalLeads     int
	DialedLeads    int
	FailedLeads    int
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Progress is the dial tally after marking one lead processed.
type Progress struct {
	Processed int
	Total     int
	Dialed    int
	Failed    int
}

// Done reports whether every lead in the campaign has been processed.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Processed >= p.Total
}

// Repository provides data access for campaigns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new campaigns repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const campaignColumns = `id, organization_id, name, status, total_leads, dialed_leads, failed_leads,
	started_at, completed_at, created_at, updated_at`

func scanCampaign(row pgx.Row) (Campaign, error) {
	var c Campaign
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Status, &c.TotalLeads, &c.DialedLeads, &c.FailedLeads,
		&c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create inserts a draft campaign and snapshots its lead set.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, name string, leadIDs []uuid.UUID) (Campaign, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Campaign{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO campaigns (organization_id, name, status, total_leads)
		VALUES ($1, $2, $3, $4)
		RETURNING `+campaignColumns, orgID, name, StatusDraft, len(leadIDs))
	campaign, err := scanCampaign(row)
	if err != nil {
		return Campaign{}, err
	}

	for _, leadID := range leadIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO campaign_leads (campaign_id, lead_id, status)
			VALUES ($1, $2, $3)`, campaign.ID, leadID, LeadQueued); err != nil {
			return Campaign{}, err
		}
	}
	return campaign, tx.Commit(ctx)
}

// GetByID retrieves a campaign scoped to the organization.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1 AND organization_id = $2`, id, orgID)
	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, apperr.NotFound("campaign not found")
	}
	return campaign, err
}

// ListByOrganization returns the organization's campaigns, newest first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE organization_id = $1
		ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// Start transitions a draft campaign to running. Fails with a conflict when
// the campaign already started or finished.
func (r *Repository) Start(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE campaigns
		SET status = $3, started_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = $4
		RETURNING `+campaignColumns, id, orgID, StatusRunning, StatusDraft)
	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id, orgID); getErr != nil {
			return Campaign{}, getErr
		}
		return Campaign{}, apperr.Conflict("campaign is not in draft state")
	}
	return campaign, err
}

// Cancel stops a draft or running campaign. Already-queued dials for a
// cancelled campaign are skipped by the worker.
func (r *Repository) Cancel(ctx context.Context, id, orgID uuid.UUID) (Campaign, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE campaigns
		SET status = $3, completed_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status IN ($4, $5)
		RETURNING `+campaignColumns, id, orgID, StatusCancelled, StatusDraft, StatusRunning)
	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id, orgID); getErr != nil {
			return Campaign{}, getErr
		}
		return Campaign{}, apperr.Conflict("campaign already finished")
	}
	return campaign, err
}

// QueuedLeadIDs returns the leads still waiting to be dialed, in snapshot
// insertion order.
func (r *Repository) QueuedLeadIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id
		FROM campaign_leads
		WHERE campaign_id = $1 AND status = $2
		ORDER BY created_at ASC`, campaignID, LeadQueued)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkLeadProcessed records the outcome of one campaign dial and returns the
// updated tally. The campaign_leads status guard makes redelivered queue
// tasks idempotent.
func (r *Repository) MarkLeadProcessed(ctx context.Context, campaignID, leadID uuid.UUID, placed bool) (Progress, error) {
	status := LeadDialed
	if !placed {
		status = LeadFailed
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Progress{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE campaign_leads
		SET status = $3, processed_at = now()
		WHERE campaign_id = $1 AND lead_id = $2 AND status = $4`,
		campaignID, leadID, status, LeadQueued)
	if err != nil {
		return Progress{}, err
	}
	if tag.RowsAffected() > 0 {
		dialedDelta, failedDelta := 1, 0
		if !placed {
			dialedDelta, failedDelta = 0, 1
		}
		if _, err := tx.Exec(ctx, `
			UPDATE campaigns
			SET dialed_leads = dialed_leads + $2, failed_leads = failed_leads + $3, updated_at = now()
			WHERE id = $1`, campaignID, dialedDelta, failedDelta); err != nil {
			return Progress{}, err
		}
	}

	var progress Progress
	err = tx.QueryRow(ctx, `
		SELECT dialed_leads + failed_leads, total_leads, dialed_leads, failed_leads
		FROM campaigns
		WHERE id = $1`, campaignID).Scan(&progress.Processed, &progress.Total, &progress.Dialed, &progress.Failed)
	if errors.Is(err, pgx.ErrNoRows) {
		return Progress{}, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return Progress{}, err
	}
	return progress, tx.Commit(ctx)
}

// MarkCompleted finalizes a running campaign once every lead is processed.
func (r *Repository) MarkCompleted(ctx context.Context, campaignID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET status = $2, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $3`, campaignID, StatusCompleted, StatusRunning)
	return err
}
