package leads

import (
	"context"
	"strings"

	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/logger"
	"fusioncaller_backend/platform/phone"

	"github.com/google/uuid"
)

// Service contains lead business logic.
type Service struct {
	repo     *Repository
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates a new leads service.
func NewService(repo *Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Create persists a new lead with status "new". The notes field is
// synthesized from the source, the free-text message, and the detected
// services so agents see the full intake context in one place.
func (s *Service) Create(ctx context.Context, req CreateLeadRequest, orgID uuid.UUID) (Lead, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		return Lead{}, apperr.Validation("Name and phone are required")
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = DefaultSource
	}

	propertyType := req.PropertyType
	if propertyType == "" {
		propertyType = "unknown"
	}

	normalizedPhone := req.Phone
	if e164, err := phone.NormalizeE164(req.Phone); err == nil {
		normalizedPhone = e164
	}

	lead := Lead{
		OrganizationID:      orgID,
		Name:                strings.TrimSpace(req.Name),
		Phone:               normalizedPhone,
		Email:               strings.TrimSpace(req.Email),
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		ZipCode:             req.ZipCode,
		ServiceType:         req.ServiceType,
		PropertyType:        propertyType,
		Status:              StatusNew,
		Source:              source,
		Notes:               synthesizeNotes(source, req.Message, req.DetectedServices),
		Budget:              req.Budget,
		Timeline:            req.Timeline,
		Tags:                []string{},
		Metadata:            req.Metadata,
		DetectionConfidence: req.DetectionConfidence,
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		s.log.DatabaseError("create lead", err)
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          created.ID,
		OrganizationID:  orgID,
		Name:            created.Name,
		Phone:           created.Phone,
		Email:           created.Email,
		ServiceType:     created.ServiceType,
		Confidence:      created.DetectionConfidence,
		PropertyType:    created.PropertyType,
		Source:          created.Source,
		DetectionSource: detectionSourceForConfidence(created.DetectionConfidence),
	})

	return created, nil
}

// Get retrieves a lead scoped to the organization.
func (s *Service) Get(ctx context.Context, id, orgID uuid.UUID) (Lead, error) {
	return s.repo.GetByID(ctx, id, orgID)
}

// List returns leads for the organization.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, query ListLeadsQuery) ([]Lead, error) {
	if query.Status != "" && !ValidStatus(query.Status) {
		return nil, apperr.Validation("invalid lead status filter")
	}
	return s.repo.List(ctx, orgID, query)
}

// ListByIDs returns the subset of the given leads that belong to the
// organization.
func (s *Service) ListByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]Lead, error) {
	return s.repo.ListByIDs(ctx, orgID, ids)
}

// UpdateStatus transitions a lead to a new status and publishes the change.
func (s *Service) UpdateStatus(ctx context.Context, id, orgID uuid.UUID, status LeadStatus) (Lead, error) {
	if !ValidStatus(status) {
		return Lead{}, apperr.Validation("invalid lead status")
	}

	oldStatus, err := s.repo.UpdateStatus(ctx, id, orgID, status)
	if err != nil {
		return Lead{}, err
	}

	if oldStatus != status {
		s.eventBus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         id,
			OrganizationID: orgID,
			OldStatus:      string(oldStatus),
			NewStatus:      string(status),
		})
	}

	return s.repo.GetByID(ctx, id, orgID)
}

// AddTags appends tags to a lead. Used by the workflow update_tags action.
func (s *Service) AddTags(ctx context.Context, id, orgID uuid.UUID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	return s.repo.AddTags(ctx, id, orgID, tags)
}

// AppendNote appends a note line to a lead.
func (s *Service) AppendNote(ctx context.Context, id, orgID uuid.UUID, note string) error {
	if strings.TrimSpace(note) == "" {
		return nil
	}
	return s.repo.AppendNote(ctx, id, orgID, note)
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	return s.repo.Delete(ctx, id, orgID)
}

// synthesizeNotes builds the initial notes field from intake context.
func synthesizeNotes(source, message string, detectedServices []string) string {
	var parts []string
	parts = append(parts, "Source: "+source)
	if msg := strings.TrimSpace(message); msg != "" {
		parts = append(parts, "Message: "+msg)
	}
	if len(detectedServices) > 0 {
		parts = append(parts, "Detected services: "+strings.Join(detectedServices, ", "))
	}
	return strings.Join(parts, "\n")
}

// detectionSourceForConfidence maps the fixed cascade constants back to a
// human-readable tier name for event consumers.
func detectionSourceForConfidence(confidence float64) string {
	switch confidence {
	case 1.0:
		return "explicit"
	case 0.8:
		return "model"
	case 0.6:
		return "keyword"
	default:
		return "generic"
	}
}
