package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sms-otp-authenticator/internal/mfa"
)

type recordingOutbox struct {
	phone, message string
	n              int
}

func (o *recordingOutbox) Record(_ context.Context, phone, message string) {
	o.phone, o.message = phone, message
	o.n++
}

func gatewayConfig(uri string) mfa.DeliveryConfig {
	return mfa.DeliveryConfig{Length: 6, SenderID: "Acme", GatewayURI: uri, APIKey: "k"}
}

func TestDispatcher_SimulationMakesNoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	outbox := &recordingOutbox{}
	d := NewDispatcher(srv.Client(), outbox)
	cfg := gatewayConfig(srv.URL)
	cfg.SimulationMode = true

	if err := d.Send(context.Background(), cfg, "+12015550123", "code 123456"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("gateway called %d times in simulation mode", calls.Load())
	}
	if outbox.n != 1 || outbox.phone != "+12015550123" || outbox.message != "code 123456" {
		t.Errorf("outbox = %+v", outbox)
	}
}

func TestDispatcher_SimulationWithoutOutbox(t *testing.T) {
	d := NewDispatcher(nil, nil)
	if err := d.Send(context.Background(), mfa.DeliveryConfig{SimulationMode: true}, "1", "x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestDispatcher_Sender(t *testing.T) {
	d := NewDispatcher(nil, nil)
	if _, backend := d.Sender(mfa.DeliveryConfig{SimulationMode: true}); backend != backendSimulation {
		t.Errorf("backend = %q, want simulation", backend)
	}
	s, backend := d.Sender(gatewayConfig("https://sms.example.com"))
	if backend != backendInhouse {
		t.Errorf("backend = %q, want inhouse", backend)
	}
	c, ok := s.(*InhouseClient)
	if !ok || c.URI != "https://sms.example.com" || c.SenderID != "Acme" {
		t.Errorf("sender = %#v", s)
	}
}

func TestDispatcher_GatewaySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	outbox := &recordingOutbox{}
	d := NewDispatcher(srv.Client(), outbox)
	if err := d.Send(context.Background(), gatewayConfig(srv.URL), "+12015550123", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if outbox.n != 0 {
		t.Error("gateway delivery must not record into the dev outbox")
	}
}

func TestDispatcher_GatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	d := NewDispatcher(srv.Client(), nil)
	err := d.Send(context.Background(), gatewayConfig(srv.URL), "+12015550123", "hi")
	var de *DeliveryError
	if !errors.As(err, &de) || de.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err = %v, want DeliveryError with status 500", err)
	}
}

func TestDeliveryError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &DeliveryError{Cause: "gateway unreachable", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("DeliveryError should unwrap to its cause")
	}
	if err.Error() != "sms: gateway unreachable: dial tcp: refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}
