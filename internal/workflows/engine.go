package workflows

import (
	"context"
	"strings"

	"fusioncaller_backend/platform/logger"

	"github.com/google/uuid"
)

// TriggerContext is the normalized context a trigger carries into rule
// evaluation. Fields holds the matchable attributes (serviceType, status,
// outcome, source, propertyType).
type TriggerContext struct {
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Fields         map[string]string
}

// ActionExecutor runs one action type. Implementations live in actions.go.
type ActionExecutor interface {
	Execute(ctx context.Context, action Action, trigger TriggerContext) error
}

// RuleSource supplies the enabled rules for a trigger. Satisfied by *Repository.
type RuleSource interface {
	ListEnabledByTrigger(ctx context.Context, orgID uuid.UUID, triggerType string) ([]Rule, error)
}

// ExecutionSummary reports what a trigger pass did. Executed counts rules,
// not actions; the action tallies are observability detail.
type ExecutionSummary struct {
	Matched       int `json:"matched"`
	Executed      int `json:"executed"`
	ActionsRun    int `json:"actionsRun"`
	ActionsFailed int `json:"actionsFailed"`
}

// Engine evaluates workflow rules against trigger contexts and runs their
// actions. One failing action never stops the remaining actions or rules.
type Engine struct {
	rules     RuleSource
	executors map[string]ActionExecutor
	log       *logger.Logger
}

// NewEngine creates a workflow engine with the given action executors,
// keyed by action type.
func NewEngine(rules RuleSource, executors map[string]ActionExecutor, log *logger.Logger) *Engine {
	return &Engine{rules: rules, executors: executors, log: log}
}

// Trigger evaluates all enabled rules for the trigger type and executes
// the actions of every matching rule.
func (e *Engine) Trigger(ctx context.Context, triggerType string, trigger TriggerContext) ExecutionSummary {
	rules, err := e.rules.ListEnabledByTrigger(ctx, trigger.OrganizationID, triggerType)
	if err != nil {
		e.log.Error("failed to load workflow rules", "error", err, "trigger", triggerType)
		return ExecutionSummary{}
	}

	var summary ExecutionSummary
	for _, rule := range rules {
		if !matches(rule.Conditions, trigger.Fields) {
			continue
		}
		summary.Matched++

		for _, action := range rule.Actions {
			executor, ok := e.executors[action.Type]
			if !ok {
				e.log.Warn("unknown workflow action type", "type", action.Type, "ruleId", rule.ID)
				summary.ActionsFailed++
				continue
			}
			if err := executor.Execute(ctx, action, trigger); err != nil {
				e.log.Error("workflow action failed", "error", err, "type", action.Type, "ruleId", rule.ID)
				summary.ActionsFailed++
				continue
			}
			summary.ActionsRun++
		}
		summary.Executed++
	}

	return summary
}

// matches reports whether every condition key equals the corresponding
// trigger field, case-insensitively. Empty conditions match everything.
func matches(conditions, fields map[string]string) bool {
	for key, want := range conditions {
		got, ok := fields[key]
		if !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}
