package authenticator

import (
	"context"
	"errors"
	"testing"

	"sms-otp-authenticator/internal/mfa"
	"sms-otp-authenticator/internal/telemetry"
	userrepo "sms-otp-authenticator/internal/user/repository"
)

type failingRepo struct{ userrepo.Repository }

func (failingRepo) SetAttribute(context.Context, string, string, string) error {
	return errors.New("db down")
}

func TestUpdatePhone_Stores(t *testing.T) {
	users := userrepo.NewMemoryRepository()
	events := &captureEmitter{}
	u := NewPhoneUpdater(users, events)

	if err := u.UpdatePhone(context.Background(), "u1", " +12015550123 "); err != nil {
		t.Fatalf("UpdatePhone: %v", err)
	}
	attrs, _ := users.Attributes(context.Background(), "u1")
	if attrs[mfa.AttrPhone] != "+12015550123" {
		t.Errorf("phone = %q", attrs[mfa.AttrPhone])
	}
	if ev := events.waitFor(t, telemetry.EventPhoneUpdated); ev.UserID != "u1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestUpdatePhone_Invalid(t *testing.T) {
	users := userrepo.NewMemoryRepository()
	u := NewPhoneUpdater(users, nil)
	if err := u.UpdatePhone(context.Background(), "u1", "12345"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("err = %v, want ErrInvalidPhone", err)
	}
	if attrs, _ := users.Attributes(context.Background(), "u1"); len(attrs) != 0 {
		t.Errorf("invalid phone stored: %v", attrs)
	}
}

func TestUpdatePhone_RepositoryError(t *testing.T) {
	u := NewPhoneUpdater(failingRepo{}, nil)
	err := u.UpdatePhone(context.Background(), "u1", "+12015550123")
	if err == nil || errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("err = %v, want wrapped repository error", err)
	}
}
