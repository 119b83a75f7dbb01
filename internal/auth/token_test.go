package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewCodec("round-trip-secret")
	claims := Claims{
		Subject:   "alice",
		ExpiresAt: time.Now().UTC().Add(time.Hour).Truncate(time.Second),
		Type:      TokenTypeAccess,
	}

	token, err := codec.Encode(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, decoded.Subject)
	assert.Equal(t, claims.Type, decoded.Type)
	assert.True(t, claims.ExpiresAt.Equal(decoded.ExpiresAt), "expiry mismatch: %v vs %v", claims.ExpiresAt, decoded.ExpiresAt)
}

func TestCodec_RoundTripRefreshType(t *testing.T) {
	t.Parallel()

	codec := NewCodec("round-trip-secret")
	token, err := codec.Encode(Claims{
		Subject:   "bob",
		ExpiresAt: time.Now().UTC().Add(7 * 24 * time.Hour),
		Type:      TokenTypeRefresh,
	})
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, decoded.Type)
	assert.Equal(t, "bob", decoded.Subject)
}

func TestCodec_Deterministic(t *testing.T) {
	t.Parallel()

	codec := NewCodec("same-secret")
	claims := Claims{
		Subject:   "alice",
		ExpiresAt: time.Unix(4102444800, 0).UTC(),
		Type:      TokenTypeAccess,
	}

	first, err := codec.Encode(claims)
	require.NoError(t, err)
	second, err := codec.Encode(claims)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewCodec("right-secret").Encode(Claims{
		Subject:   "alice",
		ExpiresAt: time.Now().Add(time.Hour),
		Type:      TokenTypeAccess,
	})
	require.NoError(t, err)

	_, err = NewCodec("wrong-secret").Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewCodec("secret")
	for _, tokenString := range []string{"", "garbage", "a.b.c", "not.a.jwt"} {
		_, err := codec.Decode(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tokenString)
	}
}

func TestCodec_MissingSubject(t *testing.T) {
	t.Parallel()

	secret := "secret"
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":  time.Now().Add(time.Hour).Unix(),
		"type": "access",
	})
	token, err := raw.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewCodec(secret).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_UnknownType(t *testing.T) {
	t.Parallel()

	secret := "secret"
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"type": "reset_password",
	})
	token, err := raw.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewCodec(secret).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_RejectsUnsignedAlgorithm(t *testing.T) {
	t.Parallel()

	raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"type": "access",
	})
	token, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewCodec("secret").Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
