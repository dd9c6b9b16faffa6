package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"konnectia/internal/common"
)

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+919999999999", "+919999999999"},
		{"919999999999", "+919999999999"},
		{"9999999999", "+919999999999"},
		{"+9999999999", "+919999999999"},
		{"  +91 99999 99999 ", "+919999999999"},
		{"++9999999999", "+919999999999"},
		{"", "+91"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMobile(tt.in, "+91"))
		})
	}
}

func TestNormalizeMobileIsIdempotent(t *testing.T) {
	inputs := []string{"9876543210", "+14155550100", " 91 98765 43210", "abc", "+", "+91"}
	for _, in := range inputs {
		once := NormalizeMobile(in, "+91")
		assert.Equal(t, once, NormalizeMobile(once, "+91"), "input %q", in)
	}
}

func TestNormalizeMobileOtherCountry(t *testing.T) {
	assert.Equal(t, "+14155550100", NormalizeMobile("4155550100", "+1"))
	assert.Equal(t, "+14155550100", NormalizeMobile("+14155550100", "+1"))
}

func TestUsernameFromMobile(t *testing.T) {
	assert.Equal(t, "919999999999", UsernameFromMobile("+919999999999"))
	assert.Equal(t, "919999999999", UsernameFromMobile("+91 99999 99999"))
}

func TestValidateMobile(t *testing.T) {
	assert.NoError(t, ValidateMobile(NormalizeMobile("98765 43210", "+91")))
	assert.NoError(t, ValidateMobile("+91"+strings.Repeat("9", 17)))

	err := ValidateMobile(NormalizeMobile(strings.Repeat("9", 25), "+91"))
	require.ErrorIs(t, err, common.ErrValidation)
	assert.EqualError(t, err, "Enter a valid mobile number")
	assert.True(t, common.HasRule(err, "max"))
}
