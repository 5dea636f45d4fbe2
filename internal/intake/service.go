// Package intake provides the form-webhook orchestrator: it validates
// inbound submissions, runs service detection, creates the lead, and
// best-effort triggers the outbound call. Lead persistence is the durable
// side effect; call placement never fails the request.
package intake

import (
	"context"
	"crypto/subtle"

	"fusioncaller_backend/internal/detection"
	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/internal/leads"
	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

// IntakeSettings is the per-organization state the orchestrator needs.
type IntakeSettings struct {
	WebhookSecret   *string
	AutoCallDefault bool
}

// OrganizationReader supplies intake settings. Implemented by an adapter
// over the organizations service.
type OrganizationReader interface {
	IntakeSettings(ctx context.Context, orgID uuid.UUID) (IntakeSettings, error)
}

// LeadCreator creates leads. Satisfied by the leads service.
type LeadCreator interface {
	Create(ctx context.Context, req leads.CreateLeadRequest, orgID uuid.UUID) (leads.Lead, error)
}

// ServiceDetector classifies free text. Satisfied by *detection.Detector.
type ServiceDetector interface {
	Detect(ctx context.Context, text, explicitType string) detection.Result
}

// CallStarter places the automatic outbound call. Implemented by an
// adapter over the call initiator; the placed flag is the only signal,
// failures never propagate as errors.
type CallStarter interface {
	StartCall(ctx context.Context, orgID, leadID uuid.UUID, phone, name, serviceType string) (callID uuid.UUID, placed bool, reason string)
}

// Submission is the validated form payload handed to the orchestrator.
type Submission struct {
	Name         string
	Phone        string
	Email        string
	Address      string
	City         string
	State        string
	ZipCode      string
	ServiceType  string
	Message      string
	PropertyType string
	Budget       string
	Timeline     string
	Source       string
	AutoCall     *bool
	Metadata     map[string]string
}

// Outcome is returned to the webhook caller on success. CallID is nil
// when no call was placed.
type Outcome struct {
	LeadID      uuid.UUID
	CallID      *uuid.UUID
	ServiceType string
	Confidence  float64
	CallQueued  bool
}

// Service orchestrates form submissions into leads and calls.
type Service struct {
	orgs     OrganizationReader
	detector ServiceDetector
	creator  LeadCreator
	caller   CallStarter
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new intake orchestrator.
func NewService(orgs OrganizationReader, detector ServiceDetector, creator LeadCreator, caller CallStarter, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		orgs:     orgs,
		detector: detector,
		creator:  creator,
		caller:   caller,
		eventBus: eventBus,
		log:      log,
	}
}

// VerifySecret checks the provided webhook secret against the
// organization's configured one in constant time. When no secret is
// configured the check is disabled entirely (open mode).
func (s *Service) VerifySecret(settings IntakeSettings, provided string) error {
	if settings.WebhookSecret == nil || *settings.WebhookSecret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(*settings.WebhookSecret)) != 1 {
		return apperr.Unauthorized("invalid webhook secret")
	}
	return nil
}

// Settings loads the intake settings for an organization.
func (s *Service) Settings(ctx context.Context, orgID uuid.UUID) (IntakeSettings, error) {
	return s.orgs.IntakeSettings(ctx, orgID)
}

// Process runs the intake pipeline for a validated submission. The lead is
// created first; the outbound call is fire-and-forget and its failure is
// reflected only in Outcome.CallQueued.
func (s *Service) Process(ctx context.Context, orgID uuid.UUID, sub Submission, settings IntakeSettings) (Outcome, error) {
	result := s.detector.Detect(ctx, sub.Message, sub.ServiceType)

	propertyType := sub.PropertyType
	if propertyType == "" {
		propertyType = result.ExtractedDetails.PropertyType
	}

	lead, err := s.creator.Create(ctx, leads.CreateLeadRequest{
		Name:                sub.Name,
		Phone:               sub.Phone,
		Email:               sub.Email,
		Address:             sub.Address,
		City:                sub.City,
		State:               sub.State,
		ZipCode:             sub.ZipCode,
		ServiceType:         result.ServiceType,
		PropertyType:        propertyType,
		Message:             sub.Message,
		Budget:              sub.Budget,
		Timeline:            sub.Timeline,
		Source:              sub.Source,
		DetectedServices:    result.DetectedServices,
		DetectionConfidence: result.Confidence,
		Metadata:            sub.Metadata,
	}, orgID)
	if err != nil {
		return Outcome{}, err
	}

	autoCall := settings.AutoCallDefault
	if sub.AutoCall != nil {
		autoCall = *sub.AutoCall
	}

	callQueued := false
	var callID *uuid.UUID
	if autoCall {
		id, placed, reason := s.caller.StartCall(ctx, orgID, lead.ID, lead.Phone, lead.Name, lead.ServiceType)
		callQueued = placed
		if placed && id != uuid.Nil {
			callID = &id
		}
		if !placed {
			s.log.Warn("auto call not placed", "leadId", lead.ID, "reason", reason)
		}
	}

	s.eventBus.Publish(ctx, events.WebhookLeadCreated{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		OrganizationID: orgID,
		ServiceType:    lead.ServiceType,
		Confidence:     result.Confidence,
		CallQueued:     callQueued,
	})
	s.log.WebhookEvent(lead.Source, orgID.String(), true, "")

	return Outcome{
		LeadID:      lead.ID,
		CallID:      callID,
		ServiceType: lead.ServiceType,
		Confidence:  result.Confidence,
		CallQueued:  callQueued,
	}, nil
}
