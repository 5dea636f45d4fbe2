package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fusioncaller_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsAllHandlersAndReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	var order []string
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		order = append(order, "first")
		return errors.New("first failed")
	}))
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		order = append(order, "second")
		return errors.New("second failed")
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent()})

	if err == nil || err.Error() != "first failed" {
		t.Errorf("expected first handler error, got %v", err)
	}
	if len(order) != 2 {
		t.Errorf("expected both handlers to run, got %v", order)
	}
}

func TestPublishSyncSurvivesPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		var m map[string]int
		m["boom"] = 1
		return nil
	}))
	ran := false
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		ran = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent()})

	if err == nil {
		t.Error("expected panic to surface as an error")
	}
	if !ran {
		t.Error("expected second handler to run after the first panicked")
	}
}

func TestPublishSurvivesPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		panic("handler gone wrong")
	}))
	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		ran = true
		wg.Done()
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent()})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handlers")
	}
	if !ran {
		t.Error("expected second handler to run")
	}
}

func TestPublishDetachesFromCancelledContext(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	got := make(chan error, 1)
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		got <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{NewBaseEvent()})

	select {
	case err := <-got:
		if err != nil {
			t.Errorf("expected handler context to survive cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
}
