// Package producer publishes authentication events to a message broker (Kafka) for the
// worker that forwards them to Loki.
package producer

import (
	"context"

	"sms-otp-authenticator/internal/telemetry"
)

// Producer emits events and owns a broker connection. Callers treat Emit as best-effort.
type Producer interface {
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close releases the broker connection. Safe to call if already closed.
	Close() error
}
