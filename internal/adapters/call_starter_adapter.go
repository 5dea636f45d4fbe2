package adapters

import (
	"context"

	"fusioncaller_backend/internal/calls"
	"fusioncaller_backend/internal/campaigns"
	"fusioncaller_backend/internal/intake"

	"github.com/google/uuid"
)

// CallStarterAdapter exposes the call initiator to the intake orchestrator
// and the campaign worker. It implements intake.CallStarter and
// campaigns.CampaignCaller, tagging each attempt with its trigger.
type CallStarterAdapter struct {
	initiator *calls.Initiator
}

func NewCallStarterAdapter(initiator *calls.Initiator) *CallStarterAdapter {
	return &CallStarterAdapter{initiator: initiator}
}

func (a *CallStarterAdapter) StartCall(ctx context.Context, orgID, leadID uuid.UUID, phone, name, serviceType string) (uuid.UUID, bool, string) {
	result := a.initiator.Initiate(ctx, calls.InitiateParams{
		OrganizationID: orgID,
		LeadID:         leadID,
		Phone:          phone,
		LeadName:       name,
		ServiceType:    serviceType,
		Trigger:        calls.TriggerWebhookAuto,
	})
	return result.AttemptID, result.Placed, result.FailureReason
}

func (a *CallStarterAdapter) StartCampaignCall(ctx context.Context, orgID, leadID uuid.UUID, phone, name, serviceType string) (bool, string) {
	result := a.initiator.Initiate(ctx, calls.InitiateParams{
		OrganizationID: orgID,
		LeadID:         leadID,
		Phone:          phone,
		LeadName:       name,
		ServiceType:    serviceType,
		Trigger:        calls.TriggerCampaign,
	})
	return result.Placed, result.FailureReason
}

var (
	_ intake.CallStarter       = (*CallStarterAdapter)(nil)
	_ campaigns.CampaignCaller = (*CallStarterAdapter)(nil)
)
