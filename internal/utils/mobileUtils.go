package utils

import (
	"fmt"
	"strings"
)

// NormalizeMobile canonicalizes a phone number to "+<countryCode><digits>".
// Whitespace is removed, a leading "+" is ensured, and numbers that do not
// already carry countryCode get it inserted ahead of their digits. Malformed
// input still yields a canonical-looking string.
func NormalizeMobile(raw, countryCode string) string {
	mobile := strings.Join(strings.Fields(raw), "")
	if !strings.HasPrefix(mobile, "+") {
		mobile = "+" + mobile
	}
	if !strings.HasPrefix(mobile, countryCode) {
		mobile = countryCode + strings.TrimLeft(mobile, "+")
	}
	return mobile
}

// UsernameFromMobile derives the base username for an account provisioned
// from a mobile number.
func UsernameFromMobile(mobile string) string {
	return strings.NewReplacer("+", "", " ", "").Replace(mobile)
}

// MaxMobileLength is the widest normalized number a profile can store.
const MaxMobileLength = 20

var mobileMessages = Messages{"mobile.max": "Enter a valid mobile number"}

// ValidateMobile rejects a normalized number longer than MaxMobileLength.
func ValidateMobile(mobile string) error {
	return ValidateVar("mobile", mobile, fmt.Sprintf("max=%d", MaxMobileLength), mobileMessages)
}
