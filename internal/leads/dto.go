package leads

import (
	"time"

	"github.com/google/uuid"
)

// LeadStatus is the pipeline status of a lead.
type LeadStatus string

const (
	StatusNew           LeadStatus = "new"
	StatusInterested    LeadStatus = "interested"
	StatusNotInterested LeadStatus = "not_interested"
	StatusCallBack      LeadStatus = "call_back"
	StatusBooked        LeadStatus = "booked"
	StatusCustomer      LeadStatus = "customer"
)

// ValidStatus reports whether the given value is a known lead status.
func ValidStatus(s LeadStatus) bool {
	switch s {
	case StatusNew, StatusInterested, StatusNotInterested, StatusCallBack, StatusBooked, StatusCustomer:
		return true
	}
	return false
}

// DefaultSource is applied when a submission carries no source field.
const DefaultSource = "form"

// CreateLeadRequest carries the fields needed to create a lead.
type CreateLeadRequest struct {
	Name                string            `json:"name" validate:"required,min=1,max=200"`
	Phone               string            `json:"phone" validate:"required,min=4,max=30"`
	Email               string            `json:"email" validate:"omitempty,email"`
	Address             string            `json:"address" validate:"max=300"`
	City                string            `json:"city" validate:"max=100"`
	State               string            `json:"state" validate:"max=100"`
	ZipCode             string            `json:"zipCode" validate:"max=20"`
	ServiceType         string            `json:"serviceType" validate:"max=100"`
	PropertyType        string            `json:"propertyType" validate:"omitempty,oneof=residential commercial unknown"`
	Message             string            `json:"message"`
	Budget              string            `json:"budget" validate:"max=100"`
	Timeline            string            `json:"timeline" validate:"max=100"`
	Source              string            `json:"source" validate:"max=100"`
	DetectedServices    []string          `json:"detectedServices"`
	DetectionConfidence float64           `json:"detectionConfidence"`
	Metadata            map[string]string `json:"metadata"`
}

// UpdateStatusRequest is the request body for a status change.
type UpdateStatusRequest struct {
	Status LeadStatus `json:"status" validate:"required"`
}

// ListLeadsQuery carries list filters.
type ListLeadsQuery struct {
	Status LeadStatus
	Limit  int
	Offset int
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID                  uuid.UUID         `json:"id"`
	OrganizationID      uuid.UUID         `json:"organizationId"`
	Name                string            `json:"name"`
	Phone               string            `json:"phone"`
	Email               string            `json:"email,omitempty"`
	Address             string            `json:"address,omitempty"`
	City                string            `json:"city,omitempty"`
	State               string            `json:"state,omitempty"`
	ZipCode             string            `json:"zipCode,omitempty"`
	ServiceType         string            `json:"serviceType"`
	PropertyType        string            `json:"propertyType"`
	Status              LeadStatus        `json:"status"`
	Source              string            `json:"source"`
	Notes               string            `json:"notes,omitempty"`
	Budget              string            `json:"budget,omitempty"`
	Timeline            string            `json:"timeline,omitempty"`
	Tags                []string          `json:"tags"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	DetectionConfidence float64           `json:"detectionConfidence"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

func toLeadResponse(lead Lead) LeadResponse {
	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	return LeadResponse{
		ID:                  lead.ID,
		OrganizationID:      lead.OrganizationID,
		Name:                lead.Name,
		Phone:               lead.Phone,
		Email:               lead.Email,
		Address:             lead.Address,
		City:                lead.City,
		State:               lead.State,
		ZipCode:             lead.ZipCode,
		ServiceType:         lead.ServiceType,
		PropertyType:        lead.PropertyType,
		Status:              lead.Status,
		Source:              lead.Source,
		Notes:               lead.Notes,
		Budget:              lead.Budget,
		Timeline:            lead.Timeline,
		Tags:                tags,
		Metadata:            lead.Metadata,
		DetectionConfidence: lead.DetectionConfidence,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
	}
}
