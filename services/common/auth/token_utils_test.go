package auth_test

import (
	"testing"
	"time"

	"github.com/b2bconnect/commerce-backend/services/common/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairRoundTrip(t *testing.T) {
	auth.SetSecret("unit-test-secret")

	pair, err := auth.GenerateTokenPair("65f0c0ffee0000000000beef", "+919999999999", time.Minute, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseAndValidateToken(pair.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	id, err := auth.BusinessID(claims)
	require.NoError(t, err)
	assert.Equal(t, "65f0c0ffee0000000000beef", id)

	_, err = auth.ParseAndValidateToken(pair.AccessToken, auth.TokenTypeRefresh)
	assert.ErrorIs(t, err, auth.ErrInvalidTokenType)

	claims, err = auth.ParseAndValidateToken(pair.RefreshToken, auth.TokenTypeRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, claims["jti"])
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	auth.SetSecret("unit-test-secret")

	expired, err := auth.GenerateTokenPair("b1", "", -time.Minute, -time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseAndValidateToken(expired.AccessToken, "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "b1", "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := foreign.SignedString([]byte("someone-else"))
	require.NoError(t, err)
	_, err = auth.ParseAndValidateToken(signed, "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMissingSecret(t *testing.T) {
	auth.SetSecret("")
	defer auth.SetSecret("unit-test-secret")

	_, err := auth.GenerateTokenPair("b1", "", time.Minute, time.Hour)
	assert.ErrorIs(t, err, auth.ErrSecretNotConfigured)
	_, err = auth.ParseAndValidateToken("x", "")
	assert.ErrorIs(t, err, auth.ErrSecretNotConfigured)
}

func TestBusinessIDFallsBackToSub(t *testing.T) {
	id, err := auth.BusinessID(jwt.MapClaims{"sub": "b2"})
	require.NoError(t, err)
	assert.Equal(t, "b2", id)

	_, err = auth.BusinessID(jwt.MapClaims{})
	assert.ErrorIs(t, err, auth.ErrMissingSubject)
}
