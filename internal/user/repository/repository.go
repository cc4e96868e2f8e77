// Package repository stores user profile attributes (phone, two_factor_auth) read by the
// authenticator and written by the update-phone required action.
package repository

import "context"

// Repository reads and writes single-valued user attributes.
type Repository interface {
	// Attributes returns all attributes of userID. An unknown user has no attributes.
	Attributes(ctx context.Context, userID string) (map[string]string, error)
	// SetAttribute creates or replaces one attribute.
	SetAttribute(ctx context.Context, userID, name, value string) error
}
