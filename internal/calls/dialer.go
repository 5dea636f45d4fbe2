package calls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"fusioncaller_backend/platform/apperr"
	"fusioncaller_backend/platform/config"
)

// DialRequest carries everything the voice platform needs to place a call.
type DialRequest struct {
	Phone          string         `json:"phone"`
	OutboundNumber string         `json:"outboundNumber,omitempty"`
	AssistantID    string         `json:"assistantId,omitempty"`
	LeadName       string         `json:"leadName,omitempty"`
	ServiceType    string         `json:"serviceType,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ProviderCall is the provider's acknowledgement of a placed call.
type ProviderCall struct {
	ProviderCallID string
	Status         string
}

// Dialer places outbound calls on the voice platform.
type Dialer interface {
	PlaceCall(ctx context.Context, req DialRequest) (ProviderCall, error)
}

// HTTPDialer is the Vapi-style HTTP client implementation of Dialer.
type HTTPDialer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPDialer creates a dialer client from configuration. Returns nil
// when no API key is configured so callers can detect disabled dialing.
func NewHTTPDialer(cfg config.DialerConfig) *HTTPDialer {
	if !cfg.IsDialerEnabled() {
		return nil
	}
	return &HTTPDialer{
		baseURL: cfg.GetVoiceAPIURL(),
		apiKey:  cfg.GetVoiceAPIKey(),
		client:  &http.Client{Timeout: cfg.GetVoiceCallTimeout()},
	}
}

type providerCallPayload struct {
	AssistantID string           `json:"assistantId,omitempty"`
	PhoneNumber string           `json:"phoneNumber,omitempty"`
	Customer    providerCustomer `json:"customer"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

type providerCustomer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

type providerCallResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PlaceCall submits an outbound call to the voice platform.
func (d *HTTPDialer) PlaceCall(ctx context.Context, req DialRequest) (ProviderCall, error) {
	payload := providerCallPayload{
		AssistantID: req.AssistantID,
		PhoneNumber: req.OutboundNumber,
		Customer:    providerCustomer{Number: req.Phone, Name: req.LeadName},
		Metadata:    req.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ProviderCall{}, apperr.Wrap(apperr.KindInternal, "failed to encode call request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return ProviderCall{}, apperr.Wrap(apperr.KindInternal, "failed to build call request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return ProviderCall{}, apperr.Downstream("voice platform unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ProviderCall{}, apperr.Downstream(
			fmt.Sprintf("voice platform rejected call (status %d)", resp.StatusCode),
			fmt.Errorf("provider response: %s", string(raw)),
		)
	}

	var result providerCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ProviderCall{}, apperr.Downstream("unparseable voice platform response", err)
	}
	if result.ID == "" {
		return ProviderCall{}, apperr.Downstream("voice platform returned no call id", nil)
	}

	return ProviderCall{ProviderCallID: result.ID, Status: result.Status}, nil
}

// Compile-time check
var _ Dialer = (*HTTPDialer)(nil)
