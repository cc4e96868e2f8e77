package sms

import (
	"context"
	"errors"
	"log"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sms-otp-authenticator/internal/mfa"
)

const (
	backendSimulation = "simulation"
	backendInhouse    = "inhouse"
)

// Dispatcher picks the delivery backend from a DeliveryConfig and sends through it.
// It keeps no per-call state and is shared by all sessions.
type Dispatcher struct {
	httpClient *http.Client
	outbox     Outbox
	sent       metric.Int64Counter
}

// NewDispatcher returns a Dispatcher that reuses httpClient for gateway calls and records
// simulated messages into outbox (may be nil).
func NewDispatcher(httpClient *http.Client, outbox Outbox) *Dispatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	d := &Dispatcher{httpClient: httpClient, outbox: outbox}
	sent, err := otel.Meter("sms-otp-authenticator/sms").Int64Counter("sms.sent",
		metric.WithDescription("SMS delivery attempts by backend and result"))
	if err != nil {
		log.Printf("sms: create counter: %v", err)
	}
	d.sent = sent
	return d
}

// Sender resolves cfg to its backend.
func (d *Dispatcher) Sender(cfg mfa.DeliveryConfig) (Sender, string) {
	if cfg.SimulationMode {
		return SimulationSender{Outbox: d.outbox}, backendSimulation
	}
	return NewInhouseClient(d.httpClient, cfg.GatewayURI, cfg.APIKey, cfg.SenderID), backendInhouse
}

// Send delivers message to phone using the backend cfg selects. Errors are always
// *DeliveryError.
func (d *Dispatcher) Send(ctx context.Context, cfg mfa.DeliveryConfig, phone, message string) error {
	sender, backend := d.Sender(cfg)
	err := sender.Send(ctx, phone, message)
	var de *DeliveryError
	if err != nil && !errors.As(err, &de) {
		err = &DeliveryError{Cause: "send failed", Err: err}
	}
	d.record(ctx, backend, err)
	if err != nil {
		log.Printf("sms: %s delivery failed: %v", backend, err)
	}
	return err
}

func (d *Dispatcher) record(ctx context.Context, backend string, err error) {
	if d.sent == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	d.sent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("result", result),
	))
}
