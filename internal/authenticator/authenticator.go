// Package authenticator implements the SMS second-factor step as the hooks a host flow
// engine calls: factor evaluation, challenge issuance and code submission.
package authenticator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sms-otp-authenticator/internal/mfa"
	"sms-otp-authenticator/internal/mfa/domain"
	"sms-otp-authenticator/internal/mfa/sms"
	"sms-otp-authenticator/internal/telemetry"
)

// TemplateCode is the page the host renders to ask for the SMS code.
const TemplateCode = "login-sms"

// DefaultMessage is the SMS text; it receives the code and the lifetime in whole minutes.
const DefaultMessage = "Your SMS code is %s and is valid for %d minutes."

// Error keys the host maps to localized messages.
const (
	ErrKeySmsNotSent  = "smsAuthSmsNotSent"
	ErrKeyCodeExpired = "smsAuthCodeExpired"
	ErrKeyCodeInvalid = "smsAuthCodeInvalid"
	ErrKeyInternal    = "internalError"
)

// Dispatcher delivers a message using the backend a DeliveryConfig selects.
type Dispatcher interface {
	Send(ctx context.Context, cfg mfa.DeliveryConfig, phone, message string) error
}

// Attributes are the user profile attributes the host passes in (single-valued).
type Attributes map[string]string

func (a Attributes) lookup(name string) *string {
	v, ok := a[name]
	if !ok {
		return nil
	}
	return &v
}

// ChallengeResult tells the host what to render after a challenge was requested.
// Exactly one of Render and Failure is set.
type ChallengeResult struct {
	Render  *RenderInstruction
	Failure *FailureInstruction
}

// RenderInstruction asks the host to render Template with the masked phone number.
type RenderInstruction struct {
	Template    string
	MaskedPhone string
}

// FailureInstruction asks the host to show an error page.
type FailureInstruction struct {
	ErrorKey string
	Detail   string
}

// Authenticator wires the OTP lifecycle, retry policy and SMS dispatch together. It is
// built once per authenticator configuration and shared by all sessions.
type Authenticator struct {
	cfg        mfa.DeliveryConfig
	lifecycle  *mfa.Lifecycle
	dispatcher Dispatcher
	events     telemetry.EventEmitter
	message    string
	now        func() time.Time

	issued      metric.Int64Counter
	validations metric.Int64Counter
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithMessage overrides DefaultMessage. The format takes a string and an int.
func WithMessage(format string) Option {
	return func(a *Authenticator) { a.message = format }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithEvents sets the authentication event emitter.
func WithEvents(e telemetry.EventEmitter) Option {
	return func(a *Authenticator) { a.events = e }
}

// New returns an Authenticator for cfg.
func New(cfg mfa.DeliveryConfig, lifecycle *mfa.Lifecycle, dispatcher Dispatcher, opts ...Option) *Authenticator {
	a := &Authenticator{
		cfg:        cfg,
		lifecycle:  lifecycle,
		dispatcher: dispatcher,
		message:    DefaultMessage,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	meter := otel.Meter("sms-otp-authenticator/authenticator")
	var err error
	if a.issued, err = meter.Int64Counter("otp.issued", metric.WithDescription("OTP challenges issued")); err != nil {
		log.Printf("authenticator: create counter: %v", err)
	}
	if a.validations, err = meter.Int64Counter("otp.validations", metric.WithDescription("OTP submissions by outcome")); err != nil {
		log.Printf("authenticator: create counter: %v", err)
	}
	return a
}

// ConfiguredFor reports whether the user can receive a code, i.e. has a phone attribute.
func (a *Authenticator) ConfiguredFor(attrs Attributes) bool {
	return attrs[mfa.AttrPhone] != ""
}

// OnFactorEvaluate decides from the two_factor_auth attribute whether this step applies.
// A malformed attribute returns a *mfa.ConfigError, never Skip.
func (a *Authenticator) OnFactorEvaluate(ctx context.Context, userID string, attrs Attributes) (domain.FactorDecision, error) {
	decision, err := mfa.SelectFactor(attrs.lookup(mfa.AttrTwoFactor))
	ev := telemetry.NewEvent(telemetry.EventFactorEvaluated, "", userID)
	if err != nil {
		log.Printf("authenticator: user %s: %v", userID, err)
		ev.Result = "config_error"
		ev.Detail = err.Error()
		telemetry.EmitAsync(a.events, ctx, ev)
		return domain.Skip, err
	}
	ev.Result = decision.String()
	telemetry.EmitAsync(a.events, ctx, ev)
	return decision, nil
}

// OnChallengeRequested issues a new code for the session, sends it to the user's phone and
// returns the page to render. A delivery failure aborts the attempt and removes the code.
func (a *Authenticator) OnChallengeRequested(ctx context.Context, sessionID, userID string, attrs Attributes) (ChallengeResult, error) {
	phone := attrs[mfa.AttrPhone]
	masked, err := mfa.MaskPhone(phone)
	if err != nil {
		return failure(ErrKeyInternal, "user has no usable phone number"), fmt.Errorf("authenticator: %w", err)
	}

	ch, err := a.lifecycle.Issue(ctx, sessionID, a.cfg, a.now())
	if err != nil {
		return failure(ErrKeyInternal, ""), err
	}
	a.count(ctx, a.issued)

	text := fmt.Sprintf(a.message, ch.Code, a.cfg.TTLSeconds()/60)
	if err := a.dispatcher.Send(ctx, a.cfg, phone, text); err != nil {
		if derr := a.lifecycle.Discard(ctx, sessionID); derr != nil {
			log.Printf("authenticator: discard challenge for session %s: %v", sessionID, derr)
		}
		ev := telemetry.NewEvent(telemetry.EventDeliveryFailed, sessionID, userID)
		ev.Detail = deliveryCause(err)
		telemetry.EmitAsync(a.events, ctx, ev)
		return failure(ErrKeySmsNotSent, deliveryCause(err)), err
	}

	telemetry.EmitAsync(a.events, ctx, telemetry.NewEvent(telemetry.EventOTPIssued, sessionID, userID))
	return ChallengeResult{Render: &RenderInstruction{Template: TemplateCode, MaskedPhone: masked}}, nil
}

// OnSubmission validates the submitted code against the session's challenge and maps the
// outcome to a flow decision for the step's requirement. The challenge is discarded once
// the attempt concludes; a Retry keeps it so the same code can be entered again.
func (a *Authenticator) OnSubmission(ctx context.Context, sessionID, userID string, code *string, req domain.Requirement) (domain.FlowDecision, error) {
	stored, err := a.lifecycle.Stored(ctx, sessionID)
	if err != nil {
		log.Printf("authenticator: session %s: %v", sessionID, err)
		stored = nil
	}
	outcome := mfa.Validate(code, stored, a.now())
	decision := mfa.Decide(outcome, req)

	a.count(ctx, a.validations, attribute.String("outcome", outcome.String()))
	ev := telemetry.NewEvent(telemetry.EventOTPValidated, sessionID, userID)
	ev.Result = decision.Action.String()
	ev.Detail = outcome.String()
	telemetry.EmitAsync(a.events, ctx, ev)

	if decision.Action != domain.Retry && outcome != domain.MissingState {
		if derr := a.lifecycle.Discard(ctx, sessionID); derr != nil {
			log.Printf("authenticator: discard challenge for session %s: %v", sessionID, derr)
		}
	}
	return decision, err
}

// ErrorKey returns the message key the host shows for decision, or "" on success.
func ErrorKey(decision domain.FlowDecision) string {
	switch decision.Action {
	case domain.Retry:
		return ErrKeyCodeInvalid
	case domain.FailHard:
		if decision.Reason == domain.ReasonExpired {
			return ErrKeyCodeExpired
		}
		return ErrKeyInternal
	}
	return ""
}

func (a *Authenticator) count(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func failure(key, detail string) ChallengeResult {
	return ChallengeResult{Failure: &FailureInstruction{ErrorKey: key, Detail: detail}}
}

func deliveryCause(err error) string {
	var de *sms.DeliveryError
	if errors.As(err, &de) {
		return de.Cause
	}
	return err.Error()
}
