package domain

import (
	"testing"
	"time"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		in   string
		want Requirement
		ok   bool
	}{
		{"REQUIRED", Required, true},
		{"alternative", Alternative, true},
		{" Conditional ", Conditional, true},
		{"DISABLED", Disabled, true},
		{"OPTIONAL", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRequirement(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRequirement(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestChallenge_Expired(t *testing.T) {
	exp := time.Date(2026, 5, 1, 9, 5, 0, 0, time.UTC)
	c := &Challenge{Code: "123456", ExpiresAt: exp}
	if c.Expired(exp.Add(-time.Millisecond)) {
		t.Error("challenge should be live just before expiry")
	}
	if !c.Expired(exp) || !c.Expired(exp.Add(time.Second)) {
		t.Error("challenge should be expired at and after expiry")
	}
}

func TestDecisionStrings(t *testing.T) {
	if EngageSMS.String() != "engage_sms" || Skip.String() != "skip" {
		t.Errorf("FactorDecision strings: %s %s", EngageSMS, Skip)
	}
	if MissingState.String() != "missing_state" || Expired.String() != "expired" {
		t.Errorf("Outcome strings: %s %s", MissingState, Expired)
	}
	if FailHard.String() != "fail" || Attempted.String() != "attempted" {
		t.Errorf("FlowAction strings: %s %s", FailHard, Attempted)
	}
}
