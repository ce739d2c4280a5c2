package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret", Issuer: "uniframes-api", Expiry: time.Hour})

	token, jti, err := m.GenerateAccessToken("ops@example.com", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, jti, claims.ID)
}

func TestValidateToken_Rejects(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret", Issuer: "uniframes-api", Expiry: time.Hour})

	other := NewJWTManager(JWTConfig{Secret: "other", Issuer: "uniframes-api"})
	forged, _, err := other.GenerateAccessToken("x", RoleAdmin)
	require.NoError(t, err)
	_, err = m.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewJWTManager(JWTConfig{Secret: "s3cret", Issuer: "someone-else"})
	token, _, err := wrongIssuer.GenerateAccessToken("x", RoleAdmin)
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret"})

	claims := Claims{
		Role:      RoleAdmin,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestMissingSecret(t *testing.T) {
	m := NewJWTManager(JWTConfig{})
	_, _, err := m.GenerateAccessToken("x", RoleAdmin)
	assert.Error(t, err)
	_, err = m.ValidateToken("anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
