package domain

import "time"

// Challenge is the OTP issued for a single authentication attempt. It lives in the
// session's notes and is replaced whenever a new code is issued.
type Challenge struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the challenge is no longer valid at now. A challenge expires
// exactly at ExpiresAt.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
