package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"sms-otp-authenticator/internal/telemetry"
)

// recordCapture stores the last Record passed to Emit.
type recordCapture struct {
	rec otellog.Record
	n   int
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
	r.n++
}

func attrs(rec otellog.Record) map[string]string {
	out := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value.AsString()
		return true
	})
	return out
}

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if err := em.Emit(context.Background(), telemetry.NewEvent(telemetry.EventOTPIssued, "s1", "u1")); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestNewEventEmitter_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
}

func TestEmit_AttributeMapping(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	ev := telemetry.NewEvent(telemetry.EventOTPValidated, "sess-1", "user-1")
	ev.Result = "mismatch"

	if err := em.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	got := attrs(cap.rec)
	want := map[string]string{
		"event_id":   ev.ID,
		"event_type": telemetry.EventOTPValidated,
		"source":     telemetry.Source,
		"session_id": "sess-1",
		"user_id":    "user-1",
		"result":     "mismatch",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attr %q = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["detail"]; ok {
		t.Error("empty detail should not be emitted")
	}
	if cap.rec.Body().AsString() != telemetry.EventOTPValidated {
		t.Errorf("body = %q", cap.rec.Body().AsString())
	}
	if cap.rec.Severity() != otellog.SeverityInfo {
		t.Errorf("severity = %v, want info", cap.rec.Severity())
	}
}

func TestEmit_DeliveryFailure_IsWarning(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	ev := telemetry.NewEvent(telemetry.EventDeliveryFailed, "sess-1", "")
	ev.Detail = "gateway answered status=500"

	if err := em.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if cap.rec.Severity() != otellog.SeverityWarn {
		t.Errorf("severity = %v, want warn", cap.rec.Severity())
	}
	if attrs(cap.rec)["detail"] != ev.Detail {
		t.Errorf("detail attr = %q", attrs(cap.rec)["detail"])
	}
}

func TestEmit_ZeroCreatedAt_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	ev := &telemetry.Event{EventType: telemetry.EventOTPIssued}

	before := time.Now().UTC()
	if err := em.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()
	ts := cap.rec.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp = %v, want between %v and %v", ts, before, after)
	}
}

func TestEmit_NilEvent_DoesNotEmit(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if cap.n != 0 {
		t.Errorf("emitted %d records, want 0", cap.n)
	}
}
