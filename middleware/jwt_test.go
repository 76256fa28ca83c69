package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-32bytes-padded!!"

func TestGenerateToken_Valid(t *testing.T) {
	tok, err := GenerateToken("s-42", testSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestParseToken_Valid(t *testing.T) {
	tok, err := GenerateToken("s-99", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "s-99", claims.SessionID)
	assert.Equal(t, "player", claims.Subject)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("s-1", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, "wrong-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	tok, err := GenerateToken("s-1", testSecret, -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, testSecret)
	assert.Error(t, err)
}

func TestParseToken_Malformed(t *testing.T) {
	_, err := ParseToken("not.a.jwt", testSecret)
	assert.Error(t, err)
}

func TestParseToken_Empty(t *testing.T) {
	_, err := ParseToken("", testSecret)
	assert.Error(t, err)
}

func TestGenerateToken_DifferentSessions(t *testing.T) {
	t1, _ := GenerateToken("s-1", testSecret, time.Hour)
	t2, _ := GenerateToken("s-2", testSecret, time.Hour)
	assert.NotEqual(t, t1, t2)

	c1, _ := ParseToken(t1, testSecret)
	c2, _ := ParseToken(t2, testSecret)
	assert.Equal(t, "s-1", c1.SessionID)
	assert.Equal(t, "s-2", c2.SessionID)
}

func TestParseToken_EmptySessionRejected(t *testing.T) {
	tok, err := GenerateToken("", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(tok, testSecret)
	assert.Error(t, err)
}

func TestGenerateToken_EmptySecretRefused(t *testing.T) {
	_, err := GenerateToken("s-1", "", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = ParseToken("x.y.z", "")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestParseToken_ForeignIssuerRejected(t *testing.T) {
	claims := &Claims{
		SessionID: "s-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "s-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseToken(tok, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestParseToken_OtherAlgorithmRejected(t *testing.T) {
	claims := &Claims{
		SessionID: "s-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "s-1",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseToken(tok, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseToken_MissingExpiryRejected(t *testing.T) {
	claims := &Claims{SessionID: "s-1", RegisteredClaims: jwt.RegisteredClaims{ID: "s-1", Issuer: Issuer}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseToken(tok, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}
