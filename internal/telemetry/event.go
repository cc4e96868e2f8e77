// Package telemetry emits authentication events (code issued, code validated, delivery
// failed, phone updated) to OpenTelemetry logs and, when configured, Kafka.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the authenticator.
const (
	EventFactorEvaluated = "factor_evaluated"
	EventOTPIssued       = "otp_issued"
	EventOTPValidated    = "otp_validated"
	EventDeliveryFailed  = "sms_delivery_failed"
	EventPhoneUpdated    = "phone_updated"
	EventHTTPRequest     = "http_request"
)

// Source is the value of Event.Source for everything this service emits.
const Source = "sms-otp-authenticator"

// Event is one authentication event. Result holds the decision or outcome (e.g.
// "engage_sms", "mismatch", "retry"). An Event never carries the OTP itself.
type Event struct {
	ID        string    `json:"id"`
	EventType string    `json:"eventType"`
	Source    string    `json:"source"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Result    string    `json:"result,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent returns an Event with ID, Source and CreatedAt filled in.
func NewEvent(eventType, sessionID, userID string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		EventType: eventType,
		Source:    Source,
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}

// EventEmitter emits events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// Fanout emits each event to every emitter in order and returns the first error.
type Fanout []EventEmitter

// Emit sends event to all emitters, continuing past failures.
func (f Fanout) Emit(ctx context.Context, event *Event) error {
	var first error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
