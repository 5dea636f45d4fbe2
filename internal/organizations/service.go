package organizations

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

// Service contains organization business logic.
type Service struct {
	repo *Repository
	log  *logger.Logger
}

// NewService creates a new organizations service.
func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Get retrieves an organization by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Organization, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a new organization.
func (s *Service) Create(ctx context.Context, name string) (Organization, error) {
	if name == "" {
		return Organization{}, apperr.Validation("organization name is required")
	}
	org, err := s.repo.Create(ctx, name)
	if err != nil {
		return Organization{}, apperr.Wrap(apperr.KindInternal, "failed to create organization", err)
	}
	s.log.Info("organization created", "organizationId", org.ID, "name", org.Name)
	return org, nil
}

// List returns all organizations.
func (s *Service) List(ctx context.Context) ([]Organization, error) {
	return s.repo.List(ctx)
}

// UpdateSettings updates call settings for an organization.
func (s *Service) UpdateSettings(ctx context.Context, id uuid.UUID, autoCallDefault bool, outboundPhone, assistantID string) (Organization, error) {
	return s.repo.UpdateSettings(ctx, id, autoCallDefault, outboundPhone, assistantID)
}

// RotateWebhookSecret generates a fresh webhook secret and returns the
// plaintext value. The caller shows it once; it is stored server-side for
// constant-time comparison on inbound webhooks.
func (s *Service) RotateWebhookSecret(ctx context.Context, id uuid.UUID) (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to generate webhook secret", err)
	}
	secret := "whs_" + hex.EncodeToString(bytes)
	if err := s.repo.SetWebhookSecret(ctx, id, &secret); err != nil {
		return "", err
	}
	s.log.Info("webhook secret rotated", "organizationId", id)
	return secret, nil
}

// DisableWebhookSecret removes the webhook secret requirement for an organization.
func (s *Service) DisableWebhookSecret(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetWebhookSecret(ctx, id, nil)
}
