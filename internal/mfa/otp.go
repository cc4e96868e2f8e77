package mfa

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"sms-otp-authenticator/internal/mfa/domain"
	"sms-otp-authenticator/internal/session"
)

// Session note keys holding the issued challenge.
const (
	NoteCode = "code"
	NoteTTL  = "ttl"
)

// maxUniformByte is the largest multiple of 10 that fits in a byte; bytes at or above it
// are rejected so every digit is equally likely.
const maxUniformByte = 250

// GenerateOTP returns a numeric code of the given length read from r.
// r must be a cryptographically strong source (crypto/rand.Reader in production).
func GenerateOTP(r io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: otp length %d", ErrInvalidInput, length)
	}
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxUniformByte {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// OTPEqual compares the submitted code with the stored one in constant time.
func OTPEqual(submitted, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}

// Lifecycle issues and loads OTP challenges for authentication sessions. It holds no
// per-session state and is safe for concurrent use.
type Lifecycle struct {
	notes session.Store
	rand  io.Reader
}

// NewLifecycle returns a Lifecycle that keeps challenges in notes. A nil random source
// falls back to crypto/rand.Reader.
func NewLifecycle(notes session.Store, random io.Reader) *Lifecycle {
	if random == nil {
		random = rand.Reader
	}
	return &Lifecycle{notes: notes, rand: random}
}

// Issue generates a new challenge for sessionID and stores it, replacing any earlier one.
func (l *Lifecycle) Issue(ctx context.Context, sessionID string, cfg DeliveryConfig, now time.Time) (domain.Challenge, error) {
	code, err := GenerateOTP(l.rand, cfg.Length)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("mfa: generate otp: %w", err)
	}
	ch := domain.Challenge{Code: code, ExpiresAt: now.Add(cfg.TTL)}
	if err := l.notes.Put(ctx, sessionID, challengeNotes(ch)); err != nil {
		return domain.Challenge{}, fmt.Errorf("mfa: store challenge: %w", err)
	}
	return ch, nil
}

// Stored returns the challenge recorded for sessionID, or nil when the notes are missing
// or unreadable.
func (l *Lifecycle) Stored(ctx context.Context, sessionID string) (*domain.Challenge, error) {
	notes, err := l.notes.Get(ctx, sessionID, NoteCode, NoteTTL)
	if err != nil {
		return nil, fmt.Errorf("mfa: load challenge: %w", err)
	}
	return challengeFromNotes(notes), nil
}

// Discard removes the challenge notes for sessionID once the attempt has concluded.
func (l *Lifecycle) Discard(ctx context.Context, sessionID string) error {
	return l.notes.Remove(ctx, sessionID, NoteCode, NoteTTL)
}

// Validate compares submitted with stored at now. A wrong code is a Mismatch even after
// the challenge expired; only a matching code can be reported as Expired.
func Validate(submitted *string, stored *domain.Challenge, now time.Time) domain.Outcome {
	if stored == nil {
		return domain.MissingState
	}
	if submitted == nil || !OTPEqual(*submitted, stored.Code) {
		return domain.Mismatch
	}
	if stored.Expired(now) {
		return domain.Expired
	}
	return domain.Valid
}

func challengeNotes(ch domain.Challenge) session.Notes {
	return session.Notes{
		NoteCode: ch.Code,
		NoteTTL:  strconv.FormatInt(ch.ExpiresAt.UnixMilli(), 10),
	}
}

func challengeFromNotes(n session.Notes) *domain.Challenge {
	code, ttl := n[NoteCode], n[NoteTTL]
	if code == "" || ttl == "" {
		return nil
	}
	ms, err := strconv.ParseInt(ttl, 10, 64)
	if err != nil {
		log.Printf("mfa: unreadable ttl note %q: %v", ttl, err)
		return nil
	}
	return &domain.Challenge{Code: code, ExpiresAt: time.UnixMilli(ms)}
}
