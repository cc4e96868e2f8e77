// Package server exposes the authenticator hooks to a host flow engine as a JSON HTTP API.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"sms-otp-authenticator/internal/authenticator"
	"sms-otp-authenticator/internal/devotp"
	healthhandler "sms-otp-authenticator/internal/health/handler"
	"sms-otp-authenticator/internal/mfa/domain"
	"sms-otp-authenticator/internal/telemetry"
	userrepo "sms-otp-authenticator/internal/user/repository"
)

// Authenticator is the set of hooks the HTTP surface drives.
type Authenticator interface {
	OnFactorEvaluate(ctx context.Context, userID string, attrs authenticator.Attributes) (domain.FactorDecision, error)
	OnChallengeRequested(ctx context.Context, sessionID, userID string, attrs authenticator.Attributes) (authenticator.ChallengeResult, error)
	OnSubmission(ctx context.Context, sessionID, userID string, code *string, req domain.Requirement) (domain.FlowDecision, error)
}

// PhoneUpdater stores a validated phone number for a user.
type PhoneUpdater interface {
	UpdatePhone(ctx context.Context, userID, phone string) error
}

// DevOutbox returns the last simulated SMS per phone number.
type DevOutbox interface {
	Latest(ctx context.Context, phone string) (devotp.Message, bool)
}

// Deps holds the handler dependencies.
type Deps struct {
	Auth  Authenticator
	Phone PhoneUpdater
	// Users supplies attributes for requests that do not carry them inline. If nil, such
	// requests see no attributes.
	Users userrepo.Repository
	// Events receives one http_request event per request. If nil, nothing is emitted.
	Events telemetry.EventEmitter
	// Health serves /healthz. If nil, an always-SERVING handler is used.
	Health http.Handler
	// DevOTP registers GET /dev/otp. Set only when the dev OTP endpoint is enabled and not production.
	DevOTP DevOutbox
}

// NewRouter builds the chi router with all routes and wraps it with otelhttp.
func NewRouter(deps Deps) (http.Handler, error) {
	v, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	h := &handlers{deps: deps, validate: v}
	health := deps.Health
	if health == nil {
		health = healthhandler.NewHandler(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(RequestTelemetry(deps.Events, map[string]bool{"/healthz": true}))

	r.Method(http.MethodGet, "/healthz", health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/factor/evaluate", h.evaluateFactor)
		r.Post("/challenge", h.requestChallenge)
		r.Post("/challenge/submit", h.submitChallenge)
		r.Post("/users/{userID}/phone", h.updatePhone)
		r.Get("/config/schema", h.configSchema)
	})
	if deps.DevOTP != nil {
		r.Get("/dev/otp", h.devOTP)
	}
	return otelhttp.NewHandler(r, "sms-otp-authenticator"), nil
}
