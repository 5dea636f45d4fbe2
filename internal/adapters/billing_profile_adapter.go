package adapters

import (
	"context"

	"fusioncaller_backend/internal/billing"
	"fusioncaller_backend/internal/organizations"

	"github.com/google/uuid"
)

// BillingProfileAdapter exposes the organization's Stripe customer linkage
// to the billing module. It implements billing.OrganizationStore.
type BillingProfileAdapter struct {
	repo *organizations.Repository
}

func NewBillingProfileAdapter(repo *organizations.Repository) *BillingProfileAdapter {
	return &BillingProfileAdapter{repo: repo}
}

func (a *BillingProfileAdapter) BillingProfile(ctx context.Context, orgID uuid.UUID) (billing.BillingProfile, error) {
	org, err := a.repo.GetByID(ctx, orgID)
	if err != nil {
		return billing.BillingProfile{}, err
	}
	return billing.BillingProfile{
		Name:             org.Name,
		StripeCustomerID: org.StripeCustomerID,
	}, nil
}

func (a *BillingProfileAdapter) SetStripeCustomerID(ctx context.Context, orgID uuid.UUID, customerID string) error {
	return a.repo.SetStripeCustomerID(ctx, orgID, customerID)
}

var _ billing.OrganizationStore = (*BillingProfileAdapter)(nil)
