package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP(6)
	require.NoError(t, err)
	require.Len(t, otp, 6)

	for _, c := range otp {
		assert.True(t, c >= '0' && c <= '9', "otp must be digits only, got %q", otp)
	}
}
