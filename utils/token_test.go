package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")

	token, err := JwtGenerate(42, "Maria Santos", true)
	require.NoError(t, err)

	claims, err := JwtValidate(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.ID)
	assert.Equal(t, "Maria Santos", claims.Name)
	assert.True(t, claims.Admin)
}

func TestJwtValidate_RejectsOtherSecret(t *testing.T) {
	t.Setenv("API_SECRET", "first")
	token, err := JwtGenerate(1, "a", false)
	require.NoError(t, err)

	t.Setenv("API_SECRET", "second")
	_, err = JwtValidate(token)
	assert.Error(t, err)
}

func TestJwtValidate_RejectsExpired(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID: 1,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	})
	token, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = JwtValidate(token)
	assert.Error(t, err)
}
