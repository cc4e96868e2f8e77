package authenticator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sms-otp-authenticator/internal/mfa"
	"sms-otp-authenticator/internal/telemetry"
	userrepo "sms-otp-authenticator/internal/user/repository"
)

// ErrKeyPhoneInvalid is the form error shown when an entered phone number is rejected.
const ErrKeyPhoneInvalid = "phoneAuthInvalid"

// ErrInvalidPhone is returned by UpdatePhone for numbers the phone library rejects.
var ErrInvalidPhone = errors.New("authenticator: invalid phone number")

// PhoneUpdater is the update-phone required action: it lets a user without a usable
// number enter one before the SMS step runs.
type PhoneUpdater struct {
	users  userrepo.Repository
	events telemetry.EventEmitter
	valid  func(string) bool
}

// NewPhoneUpdater returns a PhoneUpdater storing numbers in users. events may be nil.
func NewPhoneUpdater(users userrepo.Repository, events telemetry.EventEmitter) *PhoneUpdater {
	return &PhoneUpdater{users: users, events: events, valid: mfa.ValidPhone}
}

// UpdatePhone validates phone and stores it as the user's phone attribute.
func (u *PhoneUpdater) UpdatePhone(ctx context.Context, userID, phone string) error {
	phone = strings.TrimSpace(phone)
	if !u.valid(phone) {
		return ErrInvalidPhone
	}
	if err := u.users.SetAttribute(ctx, userID, mfa.AttrPhone, phone); err != nil {
		return fmt.Errorf("authenticator: store phone: %w", err)
	}
	telemetry.EmitAsync(u.events, ctx, telemetry.NewEvent(telemetry.EventPhoneUpdated, "", userID))
	return nil
}
