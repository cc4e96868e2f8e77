package mfa

import "sms-otp-authenticator/internal/mfa/domain"

// Decide maps a validation outcome and the step's execution requirement to the flow
// decision returned to the host. A mismatch under REQUIRED keeps the issued code; no new
// code is generated.
func Decide(outcome domain.Outcome, req domain.Requirement) domain.FlowDecision {
	switch outcome {
	case domain.Valid:
		return domain.FlowDecision{Action: domain.Success}
	case domain.Expired:
		return domain.FlowDecision{Action: domain.FailHard, Reason: domain.ReasonExpired}
	case domain.Mismatch:
		switch req {
		case domain.Required:
			return domain.FlowDecision{Action: domain.Retry}
		case domain.Alternative, domain.Conditional:
			return domain.FlowDecision{Action: domain.Attempted}
		}
	}
	// MissingState, and a mismatch for a step the host should not have run.
	return domain.FlowDecision{Action: domain.FailHard, Reason: domain.ReasonInternal}
}
