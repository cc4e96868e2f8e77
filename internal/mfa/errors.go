package mfa

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for arguments that violate a precondition (e.g. a phone number
// shorter than the unmasked suffix).
var ErrInvalidInput = errors.New("mfa: invalid input")

// ConfigError reports a malformed or missing configuration value or user attribute.
// It is never shown to the user as a retry prompt.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mfa: config %q: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
