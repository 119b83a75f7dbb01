package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload carried inside a token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Type      TokenType
}

// Codec signs claims into compact JWT strings and verifies them back. The
// signing key is process-wide: rotating it invalidates every outstanding
// token at once.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  claims.Subject,
		"exp":  claims.ExpiresAt.Unix(),
		"type": string(claims.Type),
	})

	encoded, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return encoded, nil
}

// Decode verifies the signature and parses the claims. It fails with
// ErrInvalidToken on a bad signature, a malformed payload, a missing subject
// or an unknown token type.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	parsed := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	subject, _ := parsed["sub"].(string)
	if subject == "" {
		return Claims{}, ErrInvalidToken
	}

	tokenType := TokenType(fmt.Sprint(parsed["type"]))
	if !tokenType.Valid() {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{Subject: subject, Type: tokenType}
	if expiresAt, err := parsed.GetExpirationTime(); err == nil && expiresAt != nil {
		claims.ExpiresAt = expiresAt.Time.UTC()
	}

	return claims, nil
}
