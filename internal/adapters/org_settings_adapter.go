// Package adapters wires bounded contexts together. Each adapter implements
// a consumer-defined interface on top of another module's service, keeping
// the modules free of direct dependencies on each other.
package adapters

import (
	"context"

	"fusioncaller_backend/internal/calls"
	"fusioncaller_backend/internal/intake"
	"fusioncaller_backend/internal/organizations"

	"github.com/google/uuid"
)

// OrgSettingsAdapter exposes organization settings to the intake and calls
// modules. It implements intake.OrganizationReader and calls.SettingsReader.
type OrgSettingsAdapter struct {
	svc *organizations.Service
}

func NewOrgSettingsAdapter(svc *organizations.Service) *OrgSettingsAdapter {
	return &OrgSettingsAdapter{svc: svc}
}

func (a *OrgSettingsAdapter) IntakeSettings(ctx context.Context, orgID uuid.UUID) (intake.IntakeSettings, error) {
	org, err := a.svc.Get(ctx, orgID)
	if err != nil {
		return intake.IntakeSettings{}, err
	}
	return intake.IntakeSettings{
		WebhookSecret:   org.WebhookSecret,
		AutoCallDefault: org.AutoCallDefault,
	}, nil
}

func (a *OrgSettingsAdapter) CallSettings(ctx context.Context, orgID uuid.UUID) (calls.OrgCallSettings, error) {
	org, err := a.svc.Get(ctx, orgID)
	if err != nil {
		return calls.OrgCallSettings{}, err
	}
	return calls.OrgCallSettings{
		OutboundPhoneNumber: org.OutboundPhoneNumber,
		VoiceAssistantID:    org.VoiceAssistantID,
	}, nil
}

var (
	_ intake.OrganizationReader = (*OrgSettingsAdapter)(nil)
	_ calls.SettingsReader      = (*OrgSettingsAdapter)(nil)
)
