package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*Event
	emitErr error
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEventEmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, context.Background(), NewEvent(EventOTPIssued, "s", "u"))

	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if emitter.count() != 0 {
		t.Errorf("expected 0 events, got %d", emitter.count())
	}
}

func TestEmitAsync_UsesBackgroundContext(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, NewEvent(EventOTPIssued, "s", "u"))
	waitFor(t, func() bool { return emitter.count() == 1 })
}

func TestEmitAsync_MultipleEvents(t *testing.T) {
	emitter := &mockEventEmitter{}
	for i := 0; i < 5; i++ {
		EmitAsync(emitter, context.Background(), NewEvent(EventOTPValidated, "s", "u"))
	}
	waitFor(t, func() bool { return emitter.count() == 5 })
}

func TestNewEvent_FillsDefaults(t *testing.T) {
	ev := NewEvent(EventPhoneUpdated, "", "user-1")
	if ev.ID == "" {
		t.Error("ID should be set")
	}
	if ev.Source != Source {
		t.Errorf("Source = %q, want %q", ev.Source, Source)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if ev.UserID != "user-1" || ev.EventType != EventPhoneUpdated {
		t.Errorf("event = %+v", ev)
	}
}

func TestFanout_EmitsToAllAndReturnsFirstError(t *testing.T) {
	errFirst := errors.New("first")
	a := &mockEventEmitter{emitErr: errFirst}
	b := &mockEventEmitter{emitErr: errors.New("second")}
	c := &mockEventEmitter{}

	err := Fanout{a, nil, b, c}.Emit(context.Background(), NewEvent(EventOTPIssued, "s", "u"))
	if !errors.Is(err, errFirst) {
		t.Errorf("err = %v, want %v", err, errFirst)
	}
	for i, m := range []*mockEventEmitter{a, b, c} {
		if m.count() != 1 {
			t.Errorf("emitter %d got %d events, want 1", i, m.count())
		}
	}
}
