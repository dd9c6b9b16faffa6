// Package common holds sentinel errors shared by repositories, services and
// handlers. Match them with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrForbidden  = errors.New("forbidden")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is not active")
	ErrInvalidToken       = errors.New("invalid token")

	// OTP lifecycle.
	ErrOTPExpired          = errors.New("OTP expired or too many attempts")
	ErrOTPAttemptsExceeded = errors.New("Maximum attempts exceeded")
	ErrInvalidOTP          = errors.New("invalid OTP")
	ErrTooManyRequests     = errors.New("too many OTP requests, try again later")

	// Outbound SMS or email could not be handed to the provider.
	ErrDeliveryFailure = errors.New("delivery failure")
)

// ValidationError reports a rejected input field. Rule names the failed
// check (a validate tag such as "required") when one applies.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// HasRule reports whether err is a ValidationError for the given rule.
func HasRule(err error, rule string) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Rule == rule
}

// ConflictError names the unique attribute that is already taken.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

// InvalidOTPError is returned for a mismatched code while attempts remain.
type InvalidOTPError struct {
	Remaining int
}

func (e *InvalidOTPError) Error() string {
	return fmt.Sprintf("Invalid OTP. %d attempts remaining", e.Remaining)
}

func (e *InvalidOTPError) Is(target error) bool {
	return target == ErrInvalidOTP
}
