package calls

import (
	"context"
	"strings"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

// RecordingStore persists call recordings fetched from the provider.
// Implemented by the storage module; nil when storage is not configured.
type RecordingStore interface {
	StoreRecording(ctx context.Context, orgID, attemptID uuid.UUID, sourceURL string) (string, error)
}

// LeadStatusWriter applies AI-derived call outcomes to the lead pipeline.
// Implemented by an adapter over the leads service.
type LeadStatusWriter interface {
	SetStatus(ctx context.Context, leadID, orgID uuid.UUID, status string) error
}

// ProviderStatusEvent is the normalized provider callback payload.
type ProviderStatusEvent struct {
	ProviderCallID string `json:"callId"`
	Status         string `json:"status"`
	EndedReason    string `json:"endedReason"`
	DurationSec    int    `json:"durationSeconds"`
	RecordingURL   string `json:"recordingUrl"`
	LeadStatus     string `json:"leadStatus"`
}

// Service processes call lifecycle updates and serves the call history API.
type Service struct {
	repo       *Repository
	recordings RecordingStore
	leadStatus LeadStatusWriter
	eventBus   events.Bus
	log        *logger.Logger
}

// NewService creates a new calls service.
func NewService(repo *Repository, recordings RecordingStore, leadStatus LeadStatusWriter, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		recordings: recordings,
		leadStatus: leadStatus,
		eventBus:   eventBus,
		log:        log,
	}
}

// Get retrieves a call attempt scoped to the organization.
func (s *Service) Get(ctx context.Context, id, orgID uuid.UUID) (Attempt, error) {
	return s.repo.GetByID(ctx, id, orgID)
}

// ListByLead returns the call history of a lead.
func (s *Service) ListByLead(ctx context.Context, leadID, orgID uuid.UUID) ([]Attempt, error) {
	return s.repo.ListByLead(ctx, leadID, orgID)
}

// ListRecent returns recent attempts for an organization.
func (s *Service) ListRecent(ctx context.Context, orgID uuid.UUID, limit int) ([]Attempt, error) {
	return s.repo.ListByOrganization(ctx, orgID, limit)
}

// ProcessProviderEvent applies a provider status callback to the matching
// attempt. Unknown provider call IDs are ignored: the provider retries
// callbacks and attempt creation may still be in flight.
func (s *Service) ProcessProviderEvent(ctx context.Context, event ProviderStatusEvent) error {
	attempt, err := s.repo.GetByProviderCallID(ctx, event.ProviderCallID)
	if err != nil {
		s.log.Warn("provider event for unknown call", "providerCallId", event.ProviderCallID)
		return err
	}

	switch event.Status {
	case "ringing":
		return s.repo.UpdateStatus(ctx, attempt.ID, AttemptRinging)
	case "in-progress", "in_progress":
		return s.repo.UpdateStatus(ctx, attempt.ID, AttemptInProgress)
	case "ended", "completed":
		return s.finishAttempt(ctx, attempt, event)
	default:
		s.log.Warn("unhandled provider call status", "status", event.Status, "providerCallId", event.ProviderCallID)
		return nil
	}
}

func (s *Service) finishAttempt(ctx context.Context, attempt Attempt, event ProviderStatusEvent) error {
	outcome := outcomeForEndedReason(event.EndedReason)

	var recordingKey *string
	if event.RecordingURL != "" && s.recordings != nil {
		key, err := s.recordings.StoreRecording(ctx, attempt.OrganizationID, attempt.ID, event.RecordingURL)
		if err != nil {
			s.log.Error("failed to store call recording", "error", err, "callId", attempt.ID)
		} else {
			recordingKey = &key
		}
	}

	status := AttemptCompleted
	if outcome == OutcomeFailed {
		status = AttemptFailed
	}
	if err := s.repo.Finish(ctx, attempt.ID, status, outcome, event.DurationSec, recordingKey); err != nil {
		return err
	}

	if event.LeadStatus != "" && s.leadStatus != nil {
		if err := s.leadStatus.SetStatus(ctx, attempt.LeadID, attempt.OrganizationID, event.LeadStatus); err != nil {
			s.log.Error("failed to apply call outcome to lead", "error", err, "leadId", attempt.LeadID)
		}
	}

	recordingKeyValue := ""
	if recordingKey != nil {
		recordingKeyValue = *recordingKey
	}
	s.eventBus.Publish(ctx, events.CallEnded{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         attempt.ID,
		LeadID:         attempt.LeadID,
		OrganizationID: attempt.OrganizationID,
		Outcome:        outcome,
		DurationSec:    event.DurationSec,
		RecordingKey:   recordingKeyValue,
	})

	return nil
}

// outcomeForEndedReason maps provider ended reasons onto the fixed outcome
// set stored on attempts.
func outcomeForEndedReason(reason string) string {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case "customer-ended-call", "assistant-ended-call", "assistant-said-end-call-phrase", "exceeded-max-duration":
		return OutcomeAnswered
	case "customer-did-not-answer", "no-answer":
		return OutcomeNoAnswer
	case "customer-busy", "busy":
		return OutcomeBusy
	case "voicemail":
		return OutcomeVoicemail
	default:
		return OutcomeFailed
	}
}
