package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseAccessToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-1", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
}

func TestParseRejectsExpiredToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("user-1", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.Error(t, err)
}

func TestPasswordResetTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := SignPasswordReset("a@example.com", time.Hour)
	require.NoError(t, err)

	email, err := ParsePasswordReset(token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	SetSecret("test-secret")

	reset, err := SignPasswordReset("a@example.com", time.Hour)
	require.NoError(t, err)
	_, err = Parse(reset)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	access, err := Sign("user-1", time.Hour)
	require.NoError(t, err)
	_, err = ParsePasswordReset(access)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	SetSecret("one")
	token, err := Sign("user-1", time.Hour)
	require.NoError(t, err)

	SetSecret("two")
	_, err = Parse(token)
	assert.Error(t, err)
}
