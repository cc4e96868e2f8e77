package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"sms-otp-authenticator/internal/telemetry"
)

const loggerName = "sms-otp-authenticator.events"

// NewEventEmitter returns an EventEmitter that writes events as OTel log records through
// provider. A nil provider yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(loggerName))
}

// RecordEmitter is the part of otellog.Logger the event emitter uses.
type RecordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitterWithLogger returns an EventEmitter that writes to logger.
func NewEventEmitterWithLogger(logger RecordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger RecordEmitter
}

// Emit converts event to a log record. Empty fields are not added as attributes.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue(event.EventType))
	for _, kv := range []struct{ k, v string }{
		{"event_id", event.ID},
		{"event_type", event.EventType},
		{"source", event.Source},
		{"session_id", event.SessionID},
		{"user_id", event.UserID},
		{"result", event.Result},
		{"detail", event.Detail},
	} {
		if kv.v != "" {
			rec.AddAttributes(otellog.String(kv.k, kv.v))
		}
	}
	if event.Result == "fail" || event.EventType == telemetry.EventDeliveryFailed {
		rec.SetSeverity(otellog.SeverityWarn)
	}
	e.logger.Emit(ctx, rec)
	return nil
}
