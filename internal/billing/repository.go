// Package billing manages the prepaid call credit ledger and its Stripe
// top-up flow. Every balance change on organizations.credit_balance is
// mirrored by a row in credit_transactions so the balance is auditable.
package billing

import (
	"context"
	"errors"
	"time"

	"fusioncaller_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transaction reasons.
const (
	ReasonCall     = "call"
	ReasonPurchase = "purchase"
	ReasonGrant    = "grant"
)

// Transaction is one entry in the credit ledger. Delta is negative for
// consumption and positive for purchases and grants.
type Transaction struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	Delta           int64
	Reason          string
	StripeSessionID *string
	CreatedAt       time.Time
}

// Repository provides data access for the credit ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new billing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const txColumns = `id, organization_id, delta, reason, stripe_session_id, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.OrganizationID, &t.Delta, &t.Reason, &t.StripeSessionID, &t.CreatedAt)
	return t, err
}

// ConsumeCredit atomically deducts one credit from the organization's balance
// and records the deduction in the ledger. Returns the remaining balance.
// Fails with a conflict error when the balance is already zero, so a dial
// never runs unfunded.
func (r *Repository) ConsumeCredit(ctx context.Context, orgID uuid.UUID) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var remaining int64
	err = tx.QueryRow(ctx, `
		UPDATE organizations
		SET credit_balance = credit_balance - 1, updated_at = now()
		WHERE id = $1 AND credit_balance > 0
		RETURNING credit_balance`, orgID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish an unknown organization from an exhausted balance.
		var exists bool
		if checkErr := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, orgID).Scan(&exists); checkErr != nil {
			return 0, checkErr
		}
		if !exists {
			return 0, apperr.NotFound("organization not found")
		}
		return 0, apperr.Conflict("no call credits remaining")
	}
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO credit_transactions (organization_id, delta, reason)
		VALUES ($1, -1, $2)`, orgID, ReasonCall)
	if err != nil {
		return 0, err
	}
	return remaining, tx.Commit(ctx)
}

// AddCredits increases the organization's balance and records the addition.
// When stripeSessionID is set the insert is idempotent on that session: a
// replayed Stripe webhook applies the credits at most once.
func (r *Repository) AddCredits(ctx context.Context, orgID uuid.UUID, credits int64, reason string, stripeSessionID *string) (int64, error) {
	if credits <= 0 {
		return 0, apperr.Validation("credits must be positive")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO credit_transactions (organization_id, delta, reason, stripe_session_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (stripe_session_id) DO NOTHING`, orgID, credits, reason, stripeSessionID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		// Session already applied. Report the current balance unchanged.
		var balance int64
		if err := tx.QueryRow(ctx, `
			SELECT credit_balance FROM organizations WHERE id = $1`, orgID).Scan(&balance); err != nil {
			return 0, err
		}
		return balance, tx.Commit(ctx)
	}

	var balance int64
	err = tx.QueryRow(ctx, `
		UPDATE organizations
		SET credit_balance = credit_balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING credit_balance`, orgID, credits).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("organization not found")
	}
	if err != nil {
		return 0, err
	}
	return balance, tx.Commit(ctx)
}

// ListTransactions returns the organization's ledger entries, newest first.
func (r *Repository) ListTransactions(ctx context.Context, orgID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+txColumns+`
		FROM credit_transactions
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
