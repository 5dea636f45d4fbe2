package adapters

import (
	"context"

	"fusioncaller_backend/internal/calls"
	"fusioncaller_backend/internal/campaigns"
	"fusioncaller_backend/internal/leads"
	"fusioncaller_backend/internal/workflows"

	"github.com/google/uuid"
)

// LeadAccessAdapter exposes lead lookups and updates to the calls, workflows
// and campaigns modules. It implements calls.LeadReader, calls.LeadStatusWriter,
// workflows.TagWriter and campaigns.LeadSource.
type LeadAccessAdapter struct {
	svc *leads.Service
}

func NewLeadAccessAdapter(svc *leads.Service) *LeadAccessAdapter {
	return &LeadAccessAdapter{svc: svc}
}

func (a *LeadAccessAdapter) DialInfo(ctx context.Context, leadID, orgID uuid.UUID) (calls.LeadDialInfo, error) {
	lead, err := a.svc.Get(ctx, leadID, orgID)
	if err != nil {
		return calls.LeadDialInfo{}, err
	}
	return calls.LeadDialInfo{
		Phone:       lead.Phone,
		Name:        lead.Name,
		ServiceType: lead.ServiceType,
	}, nil
}

func (a *LeadAccessAdapter) SetStatus(ctx context.Context, leadID, orgID uuid.UUID, status string) error {
	_, err := a.svc.UpdateStatus(ctx, leadID, orgID, leads.LeadStatus(status))
	return err
}

func (a *LeadAccessAdapter) AddTags(ctx context.Context, leadID, orgID uuid.UUID, tags []string) error {
	return a.svc.AddTags(ctx, leadID, orgID, tags)
}

func (a *LeadAccessAdapter) DialTargets(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]campaigns.DialTarget, error) {
	found, err := a.svc.ListByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	targets := make([]campaigns.DialTarget, 0, len(found))
	for _, lead := range found {
		targets = append(targets, campaigns.DialTarget{
			LeadID:      lead.ID,
			Phone:       lead.Phone,
			Name:        lead.Name,
			ServiceType: lead.ServiceType,
		})
	}
	return targets, nil
}

var (
	_ calls.LeadReader       = (*LeadAccessAdapter)(nil)
	_ calls.LeadStatusWriter = (*LeadAccessAdapter)(nil)
	_ workflows.TagWriter    = (*LeadAccessAdapter)(nil)
	_ campaigns.LeadSource   = (*LeadAccessAdapter)(nil)
)
