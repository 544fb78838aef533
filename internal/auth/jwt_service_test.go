package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "https://id.example.com",
		Audience:       "huddle",
		AccessTokenTTL: time.Hour,
		Clock:          now,
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-123", Email: "ada@example.com"})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "ada@example.com", claims.Email)
	require.Equal(t, jwt.ClaimStrings{"huddle"}, claims.Audience)
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))

	_, err = svc.GenerateAccessToken(AccessTokenInput{})
	require.Error(t, err)
}

func TestValidateAccessTokenFallsBackToSubject(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{Secret: "provider-secret", Clock: func() time.Time { return now }})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "provider-user",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte("provider-secret"))
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, "provider-user", claims.UserID)
}

func TestValidateAccessTokenRejections(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Issuer: "a", Audience: "huddle", AccessTokenTTL: time.Minute, Clock: clock})
	require.NoError(t, err)
	token, err := issuer.GenerateAccessToken(AccessTokenInput{UserID: "user"})
	require.NoError(t, err)

	wrongSecret, err := NewJWTService(JWTConfig{Secret: "other", Issuer: "a", Audience: "huddle", Clock: clock})
	require.NoError(t, err)
	_, err = wrongSecret.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	wrongIssuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Issuer: "b", Clock: clock})
	require.NoError(t, err)
	_, err = wrongIssuer.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	wrongAudience, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Audience: "other", Clock: clock})
	require.NoError(t, err)
	_, err = wrongAudience.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)

	later, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: func() time.Time { return current.Add(time.Hour) }})
	require.NoError(t, err)
	_, err = later.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, &Claims{
		UserID: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "a",
			Audience:  jwt.ClaimStrings{"huddle"},
			ExpiresAt: jwt.NewNumericDate(current.Add(time.Minute)),
		},
	}).SignedString([]byte("issuer-secret"))
	require.NoError(t, err)
	_, err = issuer.ValidateAccessToken(hs384)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = issuer.ValidateAccessToken("")
	require.Error(t, err)
}
