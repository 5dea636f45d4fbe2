// Package workflows provides the automation bounded context: rules that
// react to pipeline events (lead created, call completed, status changed)
// with configurable actions.
package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fusioncaller_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Trigger types a rule can bind to.
const (
	TriggerLeadCreated   = "lead_created"
	TriggerCallCompleted = "call_completed"
	TriggerStatusChanged = "status_changed"
)

// ValidTrigger reports whether the trigger type is known.
func ValidTrigger(t string) bool {
	switch t {
	case TriggerLeadCreated, TriggerCallCompleted, TriggerStatusChanged:
		return true
	}
	return false
}

// Action is one step executed when a rule fires.
type Action struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// Rule is a persisted workflow rule. Conditions are exact-match pairs
// against the trigger context; all must match for the rule to fire.
type Rule struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	TriggerType    string
	Conditions     map[string]string
	Actions        []Action
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository provides data access for workflow rules.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new workflows repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ruleColumns = `id, organization_id, name, trigger_type, conditions, actions, enabled, created_at, updated_at`

func scanRule(row pgx.Row) (Rule, error) {
	var rule Rule
	var conditions, actions []byte
	err := row.Scan(
		&rule.ID, &rule.OrganizationID, &rule.Name, &rule.TriggerType,
		&conditions, &actions, &rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return Rule{}, err
	}
	if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
		return Rule{}, err
	}
	if err := json.Unmarshal(actions, &rule.Actions); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// Create inserts a new workflow rule.
func (r *Repository) Create(ctx context.Context, rule Rule) (Rule, error) {
	conditions, err := json.Marshal(orEmptyConditions(rule.Conditions))
	if err != nil {
		return Rule{}, err
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return Rule{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO workflow_rules (organization_id, name, trigger_type, conditions, actions, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+ruleColumns,
		rule.OrganizationID, rule.Name, rule.TriggerType, conditions, actions, rule.Enabled,
	)
	return scanRule(row)
}

// GetByID retrieves a rule scoped to the organization.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM workflow_rules
		WHERE id = $1 AND organization_id = $2`, id, orgID)
	rule, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, apperr.NotFound("workflow rule not found")
	}
	return rule, err
}

// ListByOrganization returns all rules for an organization.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM workflow_rules
		WHERE organization_id = $1
		ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// ListEnabledByTrigger returns the enabled rules bound to a trigger type,
// ordered by creation so execution order is stable.
func (r *Repository) ListEnabledByTrigger(ctx context.Context, orgID uuid.UUID, triggerType string) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM workflow_rules
		WHERE organization_id = $1 AND trigger_type = $2 AND enabled = true
		ORDER BY created_at ASC`, orgID, triggerType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func collectRules(rows pgx.Rows) ([]Rule, error) {
	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Update replaces a rule's definition.
func (r *Repository) Update(ctx context.Context, rule Rule) (Rule, error) {
	conditions, err := json.Marshal(orEmptyConditions(rule.Conditions))
	if err != nil {
		return Rule{}, err
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return Rule{}, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE workflow_rules
		SET name = $3, trigger_type = $4, conditions = $5, actions = $6, enabled = $7, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING `+ruleColumns,
		rule.ID, rule.OrganizationID, rule.Name, rule.TriggerType, conditions, actions, rule.Enabled,
	)
	updated, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, apperr.NotFound("workflow rule not found")
	}
	return updated, err
}

// Delete removes a rule.
func (r *Repository) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM workflow_rules WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("workflow rule not found")
	}
	return nil
}

func orEmptyConditions(conditions map[string]string) map[string]string {
	if conditions == nil {
		return map[string]string{}
	}
	return conditions
}
