package workflows

import (
	"context"
	"fmt"
	"strconv"

	"fusioncaller_backend/internal/events"
)

// RegisterHandlers subscribes the engine to the domain events that act as
// workflow triggers.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadCreated)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		m.engine.Trigger(ctx, TriggerLeadCreated, TriggerContext{
			OrganizationID: e.OrganizationID,
			LeadID:         e.LeadID,
			Fields: map[string]string{
				"serviceType":  e.ServiceType,
				"propertyType": e.PropertyType,
				"source":       e.Source,
				"status":       "new",
				"confidence":   strconv.FormatFloat(e.Confidence, 'f', -1, 64),
			},
		})
		return nil
	}))

	bus.Subscribe(events.CallEnded{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.CallEnded)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		m.engine.Trigger(ctx, TriggerCallCompleted, TriggerContext{
			OrganizationID: e.OrganizationID,
			LeadID:         e.LeadID,
			Fields: map[string]string{
				"outcome":     e.Outcome,
				"durationSec": strconv.Itoa(e.DurationSec),
			},
		})
		return nil
	}))

	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadStatusChanged)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		m.engine.Trigger(ctx, TriggerStatusChanged, TriggerContext{
			OrganizationID: e.OrganizationID,
			LeadID:         e.LeadID,
			Fields: map[string]string{
				"status":    e.NewStatus,
				"oldStatus": e.OldStatus,
			},
		})
		return nil
	}))
}
