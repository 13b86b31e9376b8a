package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
)

type testEvent struct {
	BaseEvent
	Name string `json:"name"`
}

func (e testEvent) EventName() string { return e.Name }

func TestPublishSyncCallsNamedAndWildcardHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var named, all int32
	bus.Subscribe("deals.won", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&named, 1)
		return nil
	}))
	bus.SubscribeAll(HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&all, 1)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{Name: "deals.won"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bus.PublishSync(context.Background(), testEvent{Name: "deals.lost"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if named != 1 {
		t.Fatalf("expected named handler once, got %d", named)
	}
	if all != 2 {
		t.Fatalf("expected wildcard handler twice, got %d", all)
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	boom := errors.New("boom")
	bus.Subscribe("x", HandlerFunc(func(context.Context, Event) error { return boom }))

	err := bus.PublishSync(context.Background(), testEvent{Name: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
}

func TestPublishRunsAsync(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls int32
	bus.Subscribe("x", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("logged only")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{Name: "x"})
	cancel()
	bus.Wait()

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

type capturePublisher struct {
	subject string
	data    []byte
}

func (c *capturePublisher) Publish(subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return nil
}

func TestNATSForwarderSubject(t *testing.T) {
	pub := &capturePublisher{}
	fwd := NewNATSForwarder(pub, "crm.")

	if err := fwd.Handle(context.Background(), testEvent{Name: "deals.won"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.subject != "crm.deals.won" {
		t.Fatalf("unexpected subject %q", pub.subject)
	}
	var decoded map[string]any
	if err := json.Unmarshal(pub.data, &decoded); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if decoded["name"] != "deals.won" {
		t.Fatalf("unexpected payload %v", decoded)
	}
}
