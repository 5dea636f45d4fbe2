package calls

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"fusioncaller_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LeadDialInfo is the lead snapshot needed to place a manual call.
type LeadDialInfo struct {
	Phone       string
	Name        string
	ServiceType string
}

// LeadReader supplies dial info for a lead. Implemented by an adapter over
// the leads service.
type LeadReader interface {
	DialInfo(ctx context.Context, leadID, orgID uuid.UUID) (LeadDialInfo, error)
}

// Handler handles call HTTP requests.
type Handler struct {
	service       *Service
	initiator     *Initiator
	leadReader    LeadReader
	webhookSecret string
}

// NewHandler creates a new calls handler. webhookSecret gates the provider
// status callback; empty disables the check.
func NewHandler(service *Service, initiator *Initiator, leadReader LeadReader, webhookSecret string) *Handler {
	return &Handler{
		service:       service,
		initiator:     initiator,
		leadReader:    leadReader,
		webhookSecret: webhookSecret,
	}
}

// AttemptResponse is the API representation of a call attempt.
type AttemptResponse struct {
	ID             uuid.UUID `json:"id"`
	LeadID         uuid.UUID `json:"leadId"`
	ProviderCallID string    `json:"providerCallId,omitempty"`
	Phone          string    `json:"phone"`
	Status         string    `json:"status"`
	Outcome        string    `json:"outcome,omitempty"`
	DurationSec    int       `json:"durationSec"`
	RecordingKey   string    `json:"recordingKey,omitempty"`
	Trigger        string    `json:"trigger"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toAttemptResponse(a Attempt) AttemptResponse {
	resp := AttemptResponse{
		ID:             a.ID,
		LeadID:         a.LeadID,
		ProviderCallID: a.ProviderCallID,
		Phone:          a.Phone,
		Status:         a.Status,
		DurationSec:    a.DurationSec,
		Trigger:        a.Trigger,
		CreatedAt:      a.CreatedAt,
	}
	if a.Outcome != nil {
		resp.Outcome = *a.Outcome
	}
	if a.RecordingKey != nil {
		resp.RecordingKey = *a.RecordingKey
	}
	if a.ErrorMessage != nil {
		resp.Error = *a.ErrorMessage
	}
	return resp
}

// InitiateCallResponse reports the outcome of a manual dial request.
type InitiateCallResponse struct {
	Placed         bool      `json:"placed"`
	CallID         uuid.UUID `json:"callId,omitempty"`
	ProviderCallID string    `json:"providerCallId,omitempty"`
	FailureReason  string    `json:"failureReason,omitempty"`
}

// HandleInitiate places a manual outbound call to a lead.
// POST /api/v1/leads/:leadId/call
func (h *Handler) HandleInitiate(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	info, err := h.leadReader.DialInfo(c.Request.Context(), leadID, orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	result := h.initiator.Initiate(c.Request.Context(), InitiateParams{
		OrganizationID: orgID,
		LeadID:         leadID,
		Phone:          info.Phone,
		LeadName:       info.Name,
		ServiceType:    info.ServiceType,
		Trigger:        TriggerManual,
	})

	status := http.StatusCreated
	if !result.Placed {
		status = http.StatusBadGateway
	}
	c.JSON(status, InitiateCallResponse{
		Placed:         result.Placed,
		CallID:         result.AttemptID,
		ProviderCallID: result.ProviderCallID,
		FailureReason:  result.FailureReason,
	})
}

// HandleListRecent lists recent call attempts for the organization.
// GET /api/v1/calls?limit=50
func (h *Handler) HandleListRecent(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	attempts, err := h.service.ListRecent(c.Request.Context(), orgID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAttemptResponses(attempts))
}

// HandleGet retrieves a single call attempt.
// GET /api/v1/calls/:callId
func (h *Handler) HandleGet(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	callID, err := uuid.Parse(c.Param("callId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid call ID", nil)
		return
	}

	attempt, err := h.service.Get(c.Request.Context(), callID, orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAttemptResponse(attempt))
}

// HandleListByLead lists a lead's call history.
// GET /api/v1/leads/:leadId/calls
func (h *Handler) HandleListByLead(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	attempts, err := h.service.ListByLead(c.Request.Context(), leadID, orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAttemptResponses(attempts))
}

// HandleProviderWebhook ingests call status callbacks from the voice
// platform.
// POST /api/v1/webhook/voice
func (h *Handler) HandleProviderWebhook(c *gin.Context) {
	if h.webhookSecret != "" {
		provided := c.GetHeader("X-Voice-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
			httpkit.Error(c, http.StatusUnauthorized, "invalid webhook secret", nil)
			return
		}
	}

	var event ProviderStatusEvent
	if err := c.ShouldBindJSON(&event); err != nil || event.ProviderCallID == "" {
		httpkit.Error(c, http.StatusBadRequest, "invalid provider event", nil)
		return
	}

	if err := h.service.ProcessProviderEvent(c.Request.Context(), event); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"received": true})
}

func toAttemptResponses(attempts []Attempt) []AttemptResponse {
	result := make([]AttemptResponse, len(attempts))
	for i, a := range attempts {
		result[i] = toAttemptResponse(a)
	}
	return result
}

func (h *Handler) getTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusForbidden, "no organization context", nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}
