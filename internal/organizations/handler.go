package organizations

import (
	"net/http"
	"time"

	"fusioncaller_backend/platform/httpkit"
	"fusioncaller_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles organization HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new organizations handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// OrganizationResponse is the API representation of an organization.
type OrganizationResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	AutoCallDefault     bool      `json:"autoCallDefault"`
	OutboundPhoneNumber string    `json:"outboundPhoneNumber,omitempty"`
	VoiceAssistantID    string    `json:"voiceAssistantId,omitempty"`
	CreditBalance       int64     `json:"creditBalance"`
	WebhookSecretSet    bool      `json:"webhookSecretSet"`
	CreatedAt           time.Time `json:"createdAt"`
}

func toOrganizationResponse(org Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                  org.ID,
		Name:                org.Name,
		AutoCallDefault:     org.AutoCallDefault,
		OutboundPhoneNumber: org.OutboundPhoneNumber,
		VoiceAssistantID:    org.VoiceAssistantID,
		CreditBalance:       org.CreditBalance,
		WebhookSecretSet:    org.WebhookSecret != nil,
		CreatedAt:           org.CreatedAt,
	}
}

// HandleGetCurrent returns the caller's organization.
// GET /api/v1/organizations/me
func (h *Handler) HandleGetCurrent(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}

	org, err := h.service.Get(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toOrganizationResponse(org))
}

// CreateOrganizationRequest is the request body for creating an organization.
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// HandleCreate creates a new organization.
// POST /api/v1/admin/organizations
func (h *Handler) HandleCreate(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	org, err := h.service.Create(c.Request.Context(), req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, toOrganizationResponse(org))
}

// HandleList lists all organizations.
// GET /api/v1/admin/organizations
func (h *Handler) HandleList(c *gin.Context) {
	orgs, err := h.service.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]OrganizationResponse, len(orgs))
	for i, org := range orgs {
		result[i] = toOrganizationResponse(org)
	}
	httpkit.OK(c, result)
}

// UpdateSettingsRequest is the request body for updating call settings.
type UpdateSettingsRequest struct {
	AutoCallDefault     *bool  `json:"autoCallDefault" validate:"required"`
	OutboundPhoneNumber string `json:"outboundPhoneNumber" validate:"max=20"`
	VoiceAssistantID    string `json:"voiceAssistantId" validate:"max=100"`
}

// HandleUpdateSettings updates call settings for the caller's organization.
// PUT /api/v1/organizations/settings
func (h *Handler) HandleUpdateSettings(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	org, err := h.service.UpdateSettings(c.Request.Context(), tenantID, *req.AutoCallDefault, req.OutboundPhoneNumber, req.VoiceAssistantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toOrganizationResponse(org))
}

// RotateSecretResponse carries the plaintext secret, shown only once.
type RotateSecretResponse struct {
	Secret string `json:"secret"`
}

// HandleRotateWebhookSecret generates a new webhook secret.
// POST /api/v1/organizations/webhook-secret
func (h *Handler) HandleRotateWebhookSecret(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}

	secret, err := h.service.RotateWebhookSecret(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, RotateSecretResponse{Secret: secret})
}

// HandleDisableWebhookSecret removes the webhook secret requirement.
// DELETE /api/v1/organizations/webhook-secret
func (h *Handler) HandleDisableWebhookSecret(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}

	if err := h.service.DisableWebhookSecret(c.Request.Context(), tenantID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func getTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusForbidden, "no organization context", nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}
