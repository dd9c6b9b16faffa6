package utils

import (
	"crypto/rand"
	"math/big"
)

// GenerateSecureOTP returns a numeric code of the given length drawn from
// crypto/rand. Each digit is sampled uniformly.
func GenerateSecureOTP(length int) (string, error) {
	const otpChars = "0123456789"
	max := big.NewInt(int64(len(otpChars)))

	buffer := make([]byte, length)
	for i := range buffer {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buffer[i] = otpChars[n.Int64()]
	}

	return string(buffer), nil
}
