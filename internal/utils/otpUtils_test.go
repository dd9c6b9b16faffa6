package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureOTP(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{6}$`)
	seen := make(map[string]struct{})

	for i := 0; i < 200; i++ {
		code, err := GenerateSecureOTP(6)
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 150)
}
