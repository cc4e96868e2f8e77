package mfa

import (
	"encoding/json"
	"errors"
	"strings"

	"sms-otp-authenticator/internal/mfa/domain"
)

// AttrTwoFactor is the user attribute holding the two-factor preference as JSON.
const AttrTwoFactor = "two_factor_auth"

// preference accepts every known shape of the two_factor_auth attribute:
// {"type":"sms"}, {"kind":"sms"} and the older {"required":true,"set":"sms"}.
type preference struct {
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Set      string `json:"set"`
	Required *bool  `json:"required"`
}

func (p preference) kind() domain.FactorKind {
	for _, v := range []string{p.Type, p.Kind, p.Set} {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			return domain.FactorKind(v)
		}
	}
	return domain.FactorNone
}

// ParsePreference decodes the raw two_factor_auth attribute. A nil raw value yields
// FactorNone. Malformed JSON is a *ConfigError. {"required":false} disables only the
// legacy {"set":..} shape.
func ParsePreference(raw *string) (domain.FactorKind, error) {
	if raw == nil {
		return domain.FactorNone, nil
	}
	var p preference
	if err := json.Unmarshal([]byte(*raw), &p); err != nil {
		return domain.FactorNone, &ConfigError{Key: AttrTwoFactor, Err: err}
	}
	// required only gates the legacy set-keyed shape; it is ignored next to type or kind.
	legacy := strings.TrimSpace(p.Type) == "" && strings.TrimSpace(p.Kind) == ""
	if legacy && p.Required != nil && !*p.Required {
		return domain.FactorNone, nil
	}
	return p.kind(), nil
}

// SelectFactor decides whether the SMS step applies for the stored preference.
// A malformed attribute is returned as an error and must not be treated as Skip.
func SelectFactor(raw *string) (domain.FactorDecision, error) {
	kind, err := ParsePreference(raw)
	if err != nil {
		return domain.Skip, err
	}
	switch kind {
	case domain.FactorSMS:
		return domain.EngageSMS, nil
	case domain.FactorApp:
		return domain.EngageApp, nil
	}
	return domain.Skip, nil
}

// IsConfigError reports whether err is (or wraps) a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
