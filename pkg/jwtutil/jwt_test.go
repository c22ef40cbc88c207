package jwtutil

import (
	"errors"
	"testing"
	"time"

	"agrointel-service/pkg/config"

	"github.com/stretchr/testify/require"
)

func initTestConfig(t *testing.T, key string) {
	t.Helper()
	Initialize(&config.JWTConfig{SigningKey: key, ExpirationHours: 168})
	t.Cleanup(func() { Initialize(nil) })
}

func TestGenerateAndValidateToken(t *testing.T) {
	initTestConfig(t, "test-signing-key")

	token, err := GenerateToken("farmer@example.com", 42, 7, "admin", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "farmer@example.com", claims.Email)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, uint(7), claims.FarmID)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "42", claims.Subject)
}

func TestDefaultTTLFollowsConfig(t *testing.T) {
	initTestConfig(t, "test-signing-key")
	require.Equal(t, 168*time.Hour, DefaultTTL())
}

func TestValidateExpiredToken(t *testing.T) {
	initTestConfig(t, "test-signing-key")

	// Expired beyond the 30 second leeway
	token, err := GenerateToken("farmer@example.com", 1, 1, "admin", -2*time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateRecentlyExpiredTokenWithinLeeway(t *testing.T) {
	initTestConfig(t, "test-signing-key")

	// Expired 10 seconds ago, still inside the clock-skew window
	token, err := GenerateToken("farmer@example.com", 1, 1, "admin", -10*time.Second)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	require.NoError(t, err)
}

func TestValidateTamperedToken(t *testing.T) {
	initTestConfig(t, "test-signing-key")

	token, err := GenerateToken("farmer@example.com", 1, 1, "admin", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token[:len(token)-2] + "xx")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateTokenSignedWithDifferentKey(t *testing.T) {
	initTestConfig(t, "key-one")
	token, err := GenerateToken("farmer@example.com", 1, 1, "admin", time.Hour)
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 168})
	_, err = ValidateToken(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateMalformedToken(t *testing.T) {
	initTestConfig(t, "test-signing-key")

	_, err := ValidateToken("not-a-jwt")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestUninitializedConfigFails(t *testing.T) {
	Initialize(nil)

	_, err := GenerateToken("farmer@example.com", 1, 1, "admin", time.Hour)
	require.Error(t, err)

	_, err = ValidateToken("anything")
	require.Error(t, err)
}
