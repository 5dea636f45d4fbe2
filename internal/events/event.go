// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"fusioncaller_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created, whether through the
// form webhook or the admin API.
type LeadCreated struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	OrganizationID  uuid.UUID `json:"organizationId"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	ServiceType     string    `json:"serviceType"`
	DetectionSource string    `json:"detectionSource"`
	Confidence      float64   `json:"confidence"`
	PropertyType    string    `json:"propertyType"`
	Source          string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published when a lead's pipeline status is updated,
// either by an agent or by call-outcome processing.
type LeadStatusChanged struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	OldStatus      string    `json:"oldStatus"`
	NewStatus      string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// =============================================================================
// Webhook Domain Events
// =============================================================================

// WebhookLeadCreated is published when a lead is created via the form webhook.
type WebhookLeadCreated struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ServiceType    string    `json:"serviceType"`
	Confidence     float64   `json:"confidence"`
	CallQueued     bool      `json:"callQueued"`
}

func (e WebhookLeadCreated) EventName() string { return "webhook.lead.created" }

// =============================================================================
// Calls Domain Events
// =============================================================================

// CallInitiated is published when an outbound call has been accepted by the
// voice provider.
type CallInitiated struct {
	BaseEvent
	CallID         uuid.UUID `json:"callId"`
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ProviderCallID string    `json:"providerCallId"`
	Phone          string    `json:"phone"`
	Trigger        string    `json:"trigger"` // "webhook_auto", "manual", "campaign"
}

func (e CallInitiated) EventName() string { return "calls.call.initiated" }

// CallFailed is published when the voice provider rejects or cannot place a call.
type CallFailed struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Reason         string    `json:"reason"`
	Trigger        string    `json:"trigger"`
}

func (e CallFailed) EventName() string { return "calls.call.failed" }

// CallEnded is published when the provider reports a call has finished
// and the outcome has been recorded.
type CallEnded struct {
	BaseEvent
	CallID         uuid.UUID `json:"callId"`
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Outcome        string    `json:"outcome"` // "answered", "no_answer", "busy", "voicemail", "failed"
	DurationSec    int       `json:"durationSec"`
	RecordingKey   string    `json:"recordingKey,omitempty"`
}

func (e CallEnded) EventName() string { return "calls.call.ended" }

// =============================================================================
// Campaign Domain Events
// =============================================================================

// CampaignStarted is published when a dial campaign begins enqueueing calls.
type CampaignStarted struct {
	BaseEvent
	CampaignID     uuid.UUID `json:"campaignId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	LeadCount      int       `json:"leadCount"`
}

func (e CampaignStarted) EventName() string { return "campaigns.campaign.started" }

// CampaignCompleted is published when all leads in a campaign have been dialed.
type CampaignCompleted struct {
	BaseEvent
	CampaignID     uuid.UUID `json:"campaignId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Dialed         int       `json:"dialed"`
	Failed         int       `json:"failed"`
}

func (e CampaignCompleted) EventName() string { return "campaigns.campaign.completed" }

// =============================================================================
// Billing Domain Events
// =============================================================================

// CreditsDepleted is published when an organization's call credit balance
// reaches zero. Downstream handlers notify the owner.
type CreditsDepleted struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (e CreditsDepleted) EventName() string { return "billing.credits.depleted" }

// CreditsPurchased is published when a Stripe checkout completes and credits
// are added to the organization's balance.
type CreditsPurchased struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	Credits        int64     `json:"credits"`
	AmountCents    int64     `json:"amountCents"`
}

func (e CreditsPurchased) EventName() string { return "billing.credits.purchased" }
