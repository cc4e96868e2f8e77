package domain

import "strings"

// FactorKind is the second factor a user has chosen in the two_factor_auth attribute.
type FactorKind string

const (
	FactorNone FactorKind = ""
	FactorSMS  FactorKind = "sms"
	FactorApp  FactorKind = "app"
)

// FactorDecision tells the host whether the SMS step applies to the user.
type FactorDecision int

const (
	// Skip means the step is satisfied immediately.
	Skip FactorDecision = iota
	// EngageSMS means an SMS code must be issued and validated.
	EngageSMS
	// EngageApp means the user authenticates with an app-based OTP instead.
	EngageApp
)

func (d FactorDecision) String() string {
	switch d {
	case EngageSMS:
		return "engage_sms"
	case EngageApp:
		return "engage_app"
	default:
		return "skip"
	}
}

// Outcome is the result of comparing a submitted code with the stored challenge.
type Outcome int

const (
	Valid Outcome = iota
	Expired
	Mismatch
	MissingState
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	case Mismatch:
		return "mismatch"
	default:
		return "missing_state"
	}
}

// Requirement is the host's execution requirement for the authenticator step.
type Requirement string

const (
	Required    Requirement = "REQUIRED"
	Alternative Requirement = "ALTERNATIVE"
	Conditional Requirement = "CONDITIONAL"
	Disabled    Requirement = "DISABLED"
)

// ParseRequirement parses s case-insensitively. ok is false for unknown values.
func ParseRequirement(s string) (Requirement, bool) {
	r := Requirement(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case Required, Alternative, Conditional, Disabled:
		return r, true
	}
	return "", false
}

// FlowAction is what the host flow engine should do after a submission.
type FlowAction int

const (
	// Success completes the step.
	Success FlowAction = iota
	// FailHard aborts the step; Reason says why.
	FailHard
	// Retry re-presents the challenge for the same code.
	Retry
	// Attempted defers to another factor in the flow.
	Attempted
)

func (a FlowAction) String() string {
	switch a {
	case Success:
		return "success"
	case FailHard:
		return "fail"
	case Retry:
		return "retry"
	default:
		return "attempted"
	}
}

// FailReason qualifies a FailHard decision.
type FailReason string

const (
	ReasonNone     FailReason = ""
	ReasonExpired  FailReason = "expired"
	ReasonInternal FailReason = "internal"
)

// FlowDecision is the result returned to the host after validating a submission.
type FlowDecision struct {
	Action FlowAction
	Reason FailReason
}
