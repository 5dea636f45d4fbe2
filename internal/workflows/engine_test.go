package workflows

import (
	"context"
	"errors"
	"testing"

	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

type stubRuleSource struct {
	rules []Rule
	err   error
}

func (s *stubRuleSource) ListEnabledByTrigger(ctx context.Context, orgID uuid.UUID, triggerType string) ([]Rule, error) {
	return s.rules, s.err
}

type countingExecutor struct {
	calls []Action
	err   error
}

func (e *countingExecutor) Execute(ctx context.Context, action Action, trigger TriggerContext) error {
	e.calls = append(e.calls, action)
	return e.err
}

func triggerCtx(fields map[string]string) TriggerContext {
	return TriggerContext{
		OrganizationID: uuid.New(),
		LeadID:         uuid.New(),
		Fields:         fields,
	}
}

func TestTriggerExecutesMatchingRules(t *testing.T) {
	executor := &countingExecutor{}
	rules := &stubRuleSource{rules: []Rule{
		{
			Name:        "tag interested",
			TriggerType: TriggerStatusChanged,
			Conditions:  map[string]string{"status": "interested"},
			Actions:     []Action{{Type: ActionUpdateTags}},
		},
	}}
	engine := NewEngine(rules, map[string]ActionExecutor{ActionUpdateTags: executor}, logger.New("test"))

	summary := engine.Trigger(context.Background(), TriggerStatusChanged, triggerCtx(map[string]string{"status": "interested"}))

	if summary.Matched != 1 || summary.Executed != 1 || summary.ActionsFailed != 0 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(executor.calls) != 1 {
		t.Errorf("expected one action execution, got %d", len(executor.calls))
	}
}

func TestTriggerCountsRulesNotActions(t *testing.T) {
	executor := &countingExecutor{}
	rules := &stubRuleSource{rules: []Rule{
		{
			Actions: []Action{
				{Type: ActionUpdateTags},
				{Type: ActionWebhook},
			},
		},
	}}
	engine := NewEngine(rules, map[string]ActionExecutor{
		ActionUpdateTags: executor,
		ActionWebhook:    executor,
	}, logger.New("test"))

	summary := engine.Trigger(context.Background(), TriggerLeadCreated, triggerCtx(nil))

	if summary.Executed != 1 {
		t.Errorf("expected one rule executed, got %d", summary.Executed)
	}
	if summary.ActionsRun != 2 {
		t.Errorf("expected two actions run, got %d", summary.ActionsRun)
	}
}

func TestTriggerSkipsNonMatchingConditions(t *testing.T) {
	executor := &countingExecutor{}
	rules := &stubRuleSource{rules: []Rule{
		{
			Conditions: map[string]string{"status": "booked"},
			Actions:    []Action{{Type: ActionUpdateTags}},
		},
	}}
	engine := NewEngine(rules, map[string]ActionExecutor{ActionUpdateTags: executor}, logger.New("test"))

	summary := engine.Trigger(context.Background(), TriggerStatusChanged, triggerCtx(map[string]string{"status": "interested"}))

	if summary.Matched != 0 || len(executor.calls) != 0 {
		t.Errorf("expected no matches, got summary %+v with %d calls", summary, len(executor.calls))
	}
}

func TestTriggerActionFailureDoesNotStopRemainingActions(t *testing.T) {
	failing := &countingExecutor{err: errors.New("smtp down")}
	succeeding := &countingExecutor{}
	rules := &stubRuleSource{rules: []Rule{
		{
			Actions: []Action{
				{Type: ActionSendNotification},
				{Type: ActionUpdateTags},
			},
		},
	}}
	engine := NewEngine(rules, map[string]ActionExecutor{
		ActionSendNotification: failing,
		ActionUpdateTags:       succeeding,
	}, logger.New("test"))

	summary := engine.Trigger(context.Background(), TriggerLeadCreated, triggerCtx(nil))

	if summary.ActionsFailed != 1 || summary.ActionsRun != 1 || summary.Executed != 1 {
		t.Errorf("expected one action failure and one rule executed, got %+v", summary)
	}
	if len(succeeding.calls) != 1 {
		t.Error("expected second action to run despite first failing")
	}
}

func TestTriggerUnknownActionTypeCountsAsFailed(t *testing.T) {
	rules := &stubRuleSource{rules: []Rule{
		{Actions: []Action{{Type: "launch_rocket"}}},
	}}
	engine := NewEngine(rules, map[string]ActionExecutor{}, logger.New("test"))

	summary := engine.Trigger(context.Background(), TriggerLeadCreated, triggerCtx(nil))

	if summary.ActionsFailed != 1 || summary.Executed != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestMatchesIsCaseInsensitiveAndEmptyMatchesAll(t *testing.T) {
	if !matches(nil, map[string]string{"status": "new"}) {
		t.Error("nil conditions should match everything")
	}
	if !matches(map[string]string{"serviceType": "driveway cleaning"}, map[string]string{"serviceType": "Driveway Cleaning"}) {
		t.Error("expected case-insensitive match")
	}
	if matches(map[string]string{"outcome": "answered"}, map[string]string{}) {
		t.Error("missing field should not match")
	}
}

func TestSubstituteReplacesPlaceholders(t *testing.T) {
	trigger := TriggerContext{LeadID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Fields: map[string]string{"serviceType": "Roof Cleaning"}}

	got := substitute("New {{serviceType}} lead {{leadId}}", trigger)

	want := "New Roof Cleaning lead 11111111-1111-1111-1111-111111111111"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
