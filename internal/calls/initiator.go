package calls

import (
	"context"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

// Call triggers, recorded on attempts and carried on events.
const (
	TriggerWebhookAuto = "webhook_auto"
	TriggerManual      = "manual"
	TriggerCampaign    = "campaign"
)

// OrgCallSettings is the subset of organization settings the initiator
// needs to place a call.
type OrgCallSettings struct {
	OutboundPhoneNumber string
	VoiceAssistantID    string
}

// SettingsReader supplies per-organization call settings.
type SettingsReader interface {
	CallSettings(ctx context.Context, orgID uuid.UUID) (OrgCallSettings, error)
}

// CreditConsumer draws one call credit from an organization's balance.
// Returns an error when the balance is exhausted.
type CreditConsumer interface {
	ConsumeCallCredit(ctx context.Context, orgID uuid.UUID) error
}

// AttemptWriter records call attempts. Satisfied by *Repository.
type AttemptWriter interface {
	Create(ctx context.Context, a Attempt) (Attempt, error)
}

// InitiateParams identifies the lead to dial and why.
type InitiateParams struct {
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Phone          string
	LeadName       string
	ServiceType    string
	Trigger        string
}

// Result is the explicit outcome of a call initiation. Callers must branch
// on Placed rather than relying on a suppressed error: a lead is durable,
// a call attempt is best-effort.
type Result struct {
	Placed         bool
	AttemptID      uuid.UUID
	ProviderCallID string
	FailureReason  string
}

// Initiator places outbound calls and records each attempt.
type Initiator struct {
	dialer   Dialer
	repo     AttemptWriter
	settings SettingsReader
	credits  CreditConsumer
	eventBus events.Bus
	log      *logger.Logger
}

// NewInitiator creates a call initiator. dialer may be nil (dialing
// disabled); credits may be nil (no credit enforcement).
func NewInitiator(dialer Dialer, repo AttemptWriter, settings SettingsReader, credits CreditConsumer, eventBus events.Bus, log *logger.Logger) *Initiator {
	return &Initiator{
		dialer:   dialer,
		repo:     repo,
		settings: settings,
		credits:  credits,
		eventBus: eventBus,
		log:      log,
	}
}

// Initiate places an outbound call to the lead. It never returns an error:
// every failure mode is reported through the Result so callers are forced
// to handle the "call not placed" branch explicitly.
func (i *Initiator) Initiate(ctx context.Context, params InitiateParams) Result {
	if i.dialer == nil {
		return i.fail(ctx, params, "dialer not configured")
	}

	settings, err := i.settings.CallSettings(ctx, params.OrganizationID)
	if err != nil {
		return i.fail(ctx, params, "failed to load call settings: "+err.Error())
	}
	if settings.OutboundPhoneNumber == "" {
		return i.fail(ctx, params, "no outbound phone number configured")
	}

	if i.credits != nil {
		if err := i.credits.ConsumeCallCredit(ctx, params.OrganizationID); err != nil {
			return i.fail(ctx, params, "no call credits: "+err.Error())
		}
	}

	providerCall, err := i.dialer.PlaceCall(ctx, DialRequest{
		Phone:          params.Phone,
		OutboundNumber: settings.OutboundPhoneNumber,
		AssistantID:    settings.VoiceAssistantID,
		LeadName:       params.LeadName,
		ServiceType:    params.ServiceType,
		Metadata: map[string]any{
			"leadId":         params.LeadID.String(),
			"organizationId": params.OrganizationID.String(),
			"trigger":        params.Trigger,
		},
	})
	if err != nil {
		i.log.CallEvent(params.OrganizationID.String(), params.LeadID.String(), "", err)
		return i.fail(ctx, params, err.Error())
	}

	attempt, err := i.repo.Create(ctx, Attempt{
		OrganizationID: params.OrganizationID,
		LeadID:         params.LeadID,
		ProviderCallID: providerCall.ProviderCallID,
		Phone:          params.Phone,
		Status:         AttemptQueued,
		Trigger:        params.Trigger,
	})
	if err != nil {
		// The call is already in flight; losing the attempt row is logged
		// but does not turn a placed call into a failure.
		i.log.DatabaseError("create call attempt", err)
	}

	i.eventBus.Publish(ctx, events.CallInitiated{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         attempt.ID,
		LeadID:         params.LeadID,
		OrganizationID: params.OrganizationID,
		ProviderCallID: providerCall.ProviderCallID,
		Phone:          params.Phone,
		Trigger:        params.Trigger,
	})
	i.log.CallEvent(params.OrganizationID.String(), params.LeadID.String(), attempt.ID.String(), nil)

	return Result{
		Placed:         true,
		AttemptID:      attempt.ID,
		ProviderCallID: providerCall.ProviderCallID,
	}
}

func (i *Initiator) fail(ctx context.Context, params InitiateParams, reason string) Result {
	errMsg := reason
	if _, err := i.repo.Create(ctx, Attempt{
		OrganizationID: params.OrganizationID,
		LeadID:         params.LeadID,
		Phone:          params.Phone,
		Status:         AttemptFailed,
		Trigger:        params.Trigger,
		ErrorMessage:   &errMsg,
	}); err != nil {
		i.log.DatabaseError("record failed call attempt", err)
	}

	i.eventBus.Publish(ctx, events.CallFailed{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         params.LeadID,
		OrganizationID: params.OrganizationID,
		Reason:         reason,
		Trigger:        params.Trigger,
	})

	return Result{Placed: false, FailureReason: reason}
}
