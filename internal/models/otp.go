package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OTPLength      = 6
	OTPMaxAttempts = 3
	OTPLifetime    = 10 * time.Minute
)

type OTP struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
	Attempts  int       `json:"attempts"`
}

// NewOTP builds an unverified passcode that expires OTPLifetime after now.
func NewOTP(userID uuid.UUID, code string, now time.Time) *OTP {
	return &OTP{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(OTPLifetime),
	}
}

// IsValid reports whether the code may still be checked: not verified, not
// past its expiry and under the attempt limit.
func (o *OTP) IsValid(now time.Time) bool {
	return !o.Verified && !now.After(o.ExpiresAt) && o.Attempts < OTPMaxAttempts
}

func (o *OTP) RemainingAttempts() int {
	if r := OTPMaxAttempts - o.Attempts; r > 0 {
		return r
	}
	return 0
}
