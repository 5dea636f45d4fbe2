package intake

import (
	"net/http"
	"strings"
	"time"

	"fusioncaller_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FormPayload is the raw webhook request body. Everything except name and
// phone is optional; malformed payloads are rejected at this boundary
// before any field is read downstream.
type FormPayload struct {
	OrganizationID string            `json:"organizationId"`
	Name           string            `json:"name"`
	Phone          string            `json:"phone"`
	Email          string            `json:"email"`
	Address        string            `json:"address"`
	City           string            `json:"city"`
	State          string            `json:"state"`
	ZipCode        string            `json:"zipCode"`
	ServiceType    string            `json:"serviceType"`
	Message        string            `json:"message"`
	Description    string            `json:"description"`
	Comments       string            `json:"comments"`
	PropertyType   string            `json:"propertyType"`
	Budget         string            `json:"budget"`
	Timeline       string            `json:"timeline"`
	Source         string            `json:"source"`
	AutoCall       *bool             `json:"autoCall"`
	Metadata       map[string]string `json:"metadata"`
}

// FormResponse is returned on a successful submission. CallID is omitted
// when no call was placed.
type FormResponse struct {
	Success     bool       `json:"success"`
	LeadID      uuid.UUID  `json:"leadId"`
	CallID      *uuid.UUID `json:"callId,omitempty"`
	Message     string     `json:"message"`
	ServiceType string     `json:"serviceType"`
	Confidence  float64    `json:"confidence"`
	CallQueued  bool       `json:"callQueued"`
}

// Handler handles webhook form intake requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new intake handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleHealth answers provider health probes on the webhook URL.
// GET /api/v1/webhook/forms
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Webhook endpoint is active",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleFormSubmission processes an inbound form submission.
// POST /api/v1/webhook/forms
func (h *Handler) HandleFormSubmission(c *gin.Context) {
	var payload FormPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	// Required-field gate: rejected before any organization or lead
	// lookup happens.
	if strings.TrimSpace(payload.Name) == "" || strings.TrimSpace(payload.Phone) == "" {
		httpkit.Error(c, http.StatusBadRequest, "Name and phone are required", nil)
		return
	}

	rawOrgID := resolveOrgID(
		c.Query("orgId"),
		c.GetHeader("X-Organization-Id"),
		payload.OrganizationID,
	)
	if rawOrgID == "" {
		httpkit.Error(c, http.StatusBadRequest, "organization id is required", nil)
		return
	}
	orgID, err := uuid.Parse(rawOrgID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid organization id", nil)
		return
	}

	settings, err := h.service.Settings(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	providedSecret := firstNonEmpty(c.GetHeader("X-Webhook-Secret"), c.Query("secret"))
	if err := h.service.VerifySecret(settings, providedSecret); httpkit.HandleError(c, err) {
		return
	}

	outcome, err := h.service.Process(c.Request.Context(), orgID, Submission{
		Name:         payload.Name,
		Phone:        payload.Phone,
		Email:        payload.Email,
		Address:      payload.Address,
		City:         payload.City,
		State:        payload.State,
		ZipCode:      payload.ZipCode,
		ServiceType:  payload.ServiceType,
		Message:      resolveMessage(payload.Message, payload.Description, payload.Comments),
		PropertyType: payload.PropertyType,
		Budget:       payload.Budget,
		Timeline:     payload.Timeline,
		Source:       payload.Source,
		AutoCall:     payload.AutoCall,
		Metadata:     payload.Metadata,
	}, settings)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, FormResponse{
		Success:     true,
		LeadID:      outcome.LeadID,
		CallID:      outcome.CallID,
		Message:     "Lead created successfully",
		ServiceType: outcome.ServiceType,
		Confidence:  outcome.Confidence,
		CallQueued:  outcome.CallQueued,
	})
}
