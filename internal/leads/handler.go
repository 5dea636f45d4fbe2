package leads

import (
	"net/http"
	"strconv"

	"fusioncaller_backend/platform/httpkit"
	"fusioncaller_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errNoOrgContext   = "no organization context"
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
	errInvalidLeadID  = "invalid lead ID"
)

// Handler handles lead HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new leads handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleCreate creates a lead via the authenticated API.
// POST /api/v1/leads
func (h *Handler) HandleCreate(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	lead, err := h.service.Create(c.Request.Context(), req, orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, toLeadResponse(lead))
}

// HandleGet retrieves a single lead.
// GET /api/v1/leads/:leadId
func (h *Handler) HandleGet(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	leadID, ok := h.parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.service.Get(c.Request.Context(), leadID, orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(lead))
}

// HandleList lists leads, optionally filtered by status.
// GET /api/v1/leads?status=new&limit=50&offset=0
func (h *Handler) HandleList(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	query := ListLeadsQuery{
		Status: LeadStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}

	leads, err := h.service.List(c.Request.Context(), orgID, query)
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]LeadResponse, len(leads))
	for i, lead := range leads {
		result[i] = toLeadResponse(lead)
	}
	httpkit.OK(c, result)
}

// HandleUpdateStatus updates a lead's pipeline status.
// PATCH /api/v1/leads/:leadId/status
func (h *Handler) HandleUpdateStatus(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	leadID, ok := h.parseLeadID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}

	lead, err := h.service.UpdateStatus(c.Request.Context(), leadID, orgID, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(lead))
}

// HandleDelete removes a lead.
// DELETE /api/v1/leads/:leadId
func (h *Handler) HandleDelete(c *gin.Context) {
	orgID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	leadID, ok := h.parseLeadID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), leadID, orgID); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.GetIdentity(c)
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusForbidden, errNoOrgContext, nil)
		return uuid.Nil, false
	}
	return *tenantID, true
}

func (h *Handler) parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return leadID, true
}
