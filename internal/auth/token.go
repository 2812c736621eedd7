package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// TokenClaims are the claims carried by an issued session token
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs session tokens with an HMAC secret
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer. An empty secret generates a random one,
// which makes tokens unverifiable by any other process.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		// 64 hex characters = 32 bytes of randomness
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		secret = hex.EncodeToString(secretBytes)
	}
	return &TokenIssuer{secret: []byte(secret)}, nil
}

// Issue creates a new token for email. Every call yields a distinct token.
func (i *TokenIssuer) Issue(email string, now time.Time) (string, error) {
	claims := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates a token issued by this issuer and returns its claims
func (i *TokenIssuer) Parse(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
