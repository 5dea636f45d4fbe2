package intake

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fusioncaller_backend/internal/detection"
	"fusioncaller_backend/internal/events"
	"fusioncaller_backend/internal/leads"
	"fusioncaller_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeOrgReader struct {
	settings IntakeSettings
	err      error
	calls    int
}

func (f *fakeOrgReader) IntakeSettings(ctx context.Context, orgID uuid.UUID) (IntakeSettings, error) {
	f.calls++
	return f.settings, f.err
}

type fakeCreator struct {
	created []leads.CreateLeadRequest
	err     error
}

func (f *fakeCreator) Create(ctx context.Context, req leads.CreateLeadRequest, orgID uuid.UUID) (leads.Lead, error) {
	if f.err != nil {
		return leads.Lead{}, f.err
	}
	f.created = append(f.created, req)
	return leads.Lead{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           req.Name,
		Phone:          req.Phone,
		ServiceType:    req.ServiceType,
		Status:         leads.StatusNew,
		Source:         req.Source,
	}, nil
}

type fakeCaller struct {
	placed bool
	reason string
	callID uuid.UUID
	calls  int
}

func (f *fakeCaller) StartCall(ctx context.Context, orgID, leadID uuid.UUID, phone, name, serviceType string) (uuid.UUID, bool, string) {
	f.calls++
	if !f.placed {
		return uuid.Nil, false, f.reason
	}
	return f.callID, true, ""
}

type noopBus struct{}

func (noopBus) Publish(ctx context.Context, event events.Event)           {}
func (noopBus) PublishSync(ctx context.Context, event events.Event) error { return nil }
func (noopBus) Subscribe(eventName string, handler events.Handler)        {}

type intakeFixture struct {
	orgs    *fakeOrgReader
	creator *fakeCreator
	caller  *fakeCaller
	engine  *gin.Engine
}

func newFixture(t *testing.T, settings IntakeSettings, placed bool) *intakeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orgs := &fakeOrgReader{settings: settings}
	creator := &fakeCreator{}
	caller := &fakeCaller{placed: placed, reason: "provider down", callID: uuid.New()}
	detector := detection.NewDetector(nil, nil, logger.New("test"))
	service := NewService(orgs, detector, creator, caller, noopBus{}, logger.New("test"))
	handler := NewHandler(service)

	engine := gin.New()
	engine.GET("/api/v1/webhook/forms", handler.HandleHealth)
	engine.POST("/api/v1/webhook/forms", handler.HandleFormSubmission)

	return &intakeFixture{orgs: orgs, creator: creator, caller: caller, engine: engine}
}

func (f *intakeFixture) post(t *testing.T, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

var testOrgID = uuid.MustParse("22222222-2222-2222-2222-222222222222")

func openSettings() IntakeSettings {
	return IntakeSettings{AutoCallDefault: true}
}

func TestHealthEndpointReturnsMessageAndTimestamp(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhook/forms", nil)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["message"] == "" || body["timestamp"] == "" {
		t.Errorf("expected message and timestamp, got %v", body)
	}
}

func TestMissingNameOrPhoneReturns400BeforeAnyLookup(t *testing.T) {
	cases := []string{
		`{"phone":"+15551234567"}`,
		`{"name":"Jane Doe"}`,
		`{"name":"  ","phone":"+15551234567"}`,
		`{}`,
	}
	for _, body := range cases {
		f := newFixture(t, openSettings(), true)
		rec := f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Name and phone are required") {
			t.Errorf("body %s: unexpected error message %s", body, rec.Body.String())
		}
		if f.orgs.calls != 0 {
			t.Errorf("body %s: expected no organization lookup, got %d", body, f.orgs.calls)
		}
		if len(f.creator.created) != 0 {
			t.Errorf("body %s: expected no lead creation", body)
		}
	}
}

func TestDrivewayScenarioCreatesLeadWithKeywordDetection(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	body := `{"name":"Jane Doe","phone":"+15551234567","message":"need my driveway cleaned","source":"facebook"}`
	rec := f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp FormResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.LeadID == uuid.Nil {
		t.Error("expected leadId in response")
	}
	if resp.ServiceType != "Driveway Cleaning" {
		t.Errorf("expected Driveway Cleaning, got %q", resp.ServiceType)
	}
	if resp.Confidence != detection.ConfidenceKeyword {
		t.Errorf("expected keyword confidence, got %v", resp.Confidence)
	}
	if resp.Message != "Lead created successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.CallID == nil || *resp.CallID != f.caller.callID {
		t.Errorf("expected callId of placed call, got %v", resp.CallID)
	}
	if len(f.creator.created) != 1 {
		t.Fatalf("expected one lead, got %d", len(f.creator.created))
	}
	if f.creator.created[0].Source != "facebook" {
		t.Errorf("expected source preserved, got %q", f.creator.created[0].Source)
	}
}

func TestOrgIDResolutionOrderQueryThenHeaderThenBody(t *testing.T) {
	queryID := uuid.New()
	headerID := uuid.New()
	bodyID := uuid.New()

	resolved := resolveOrgID(queryID.String(), headerID.String(), bodyID.String())
	if resolved != queryID.String() {
		t.Errorf("expected query param to win, got %s", resolved)
	}
	resolved = resolveOrgID("", headerID.String(), bodyID.String())
	if resolved != headerID.String() {
		t.Errorf("expected header to win over body, got %s", resolved)
	}
	resolved = resolveOrgID("", "", bodyID.String())
	if resolved != bodyID.String() {
		t.Errorf("expected body fallback, got %s", resolved)
	}
}

func TestOrgIDFromHeaderAccepted(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	body := `{"name":"Jane Doe","phone":"+15551234567"}`
	rec := f.post(t, "/api/v1/webhook/forms", body, map[string]string{"X-Organization-Id": testOrgID.String()})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMissingOrgIDReturns400(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	rec := f.post(t, "/api/v1/webhook/forms", `{"name":"Jane Doe","phone":"+15551234567"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookSecretGateRejectsWrongSecret(t *testing.T) {
	secret := "whs_topsecret"
	f := newFixture(t, IntakeSettings{WebhookSecret: &secret, AutoCallDefault: true}, true)

	body := `{"name":"Jane Doe","phone":"+15551234567"}`
	rec := f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, map[string]string{"X-Webhook-Secret": "wrong"})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if len(f.creator.created) != 0 {
		t.Error("expected no lead created behind failed secret gate")
	}

	rec = f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, map[string]string{"X-Webhook-Secret": secret})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with correct secret, got %d", rec.Code)
	}
}

func TestNoConfiguredSecretDisablesCheck(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	body := `{"name":"Jane Doe","phone":"+15551234567"}`
	rec := f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected open mode to accept request, got %d", rec.Code)
	}
}

func TestAutoCallFalseSkipsDialer(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	body := `{"name":"Jane Doe","phone":"+15551234567","autoCall":false}`
	rec := f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.caller.calls != 0 {
		t.Errorf("expected no call attempt with autoCall=false, got %d", f.caller.calls)
	}
	var resp FormResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.CallID != nil {
		t.Errorf("expected no callId with autoCall=false, got %v", resp.CallID)
	}
}

func TestAutoCallDefaultsTrue(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	body := `{"name":"Jane Doe","phone":"+15551234567"}`
	f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, nil)

	if f.caller.calls != 1 {
		t.Errorf("expected one call attempt by default, got %d", f.caller.calls)
	}
}

func TestDialerFailureStillReturns200(t *testing.T) {
	f := newFixture(t, openSettings(), false)

	body := `{"name":"Jane Doe","phone":"+15551234567","message":"clean my driveway"}`
	rec := f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("dialer failure must not downgrade the response, got %d", rec.Code)
	}
	var resp FormResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.CallQueued {
		t.Error("expected callQueued=false after dialer failure")
	}
	if resp.CallID != nil {
		t.Errorf("expected no callId after dialer failure, got %v", resp.CallID)
	}
	if len(f.creator.created) != 1 {
		t.Error("expected lead to be persisted despite dialer failure")
	}
}

func TestIdenticalSubmissionsCreateTwoLeads(t *testing.T) {
	f := newFixture(t, openSettings(), true)

	body := `{"name":"Jane Doe","phone":"+15551234567","message":"need my driveway cleaned"}`
	for i := 0; i < 2; i++ {
		rec := f.post(t, "/api/v1/webhook/forms?orgId="+testOrgID.String(), body, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("submission %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	if len(f.creator.created) != 2 {
		t.Errorf("expected two leads from identical submissions, got %d", len(f.creator.created))
	}
}

func TestResolveMessageFirstNonEmptyWins(t *testing.T) {
	cases := []struct {
		message, description, comments, want string
	}{
		{"msg", "desc", "com", "msg"},
		{"", "desc", "com", "desc"},
		{"", "", "com", "com"},
		{"  ", "", "", ""},
	}
	for _, tc := range cases {
		if got := resolveMessage(tc.message, tc.description, tc.comments); got != tc.want {
			t.Errorf("resolveMessage(%q,%q,%q) = %q, want %q", tc.message, tc.description, tc.comments, got, tc.want)
		}
	}
}
