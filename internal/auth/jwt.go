// Package auth verifies bearer tokens and extracts the user identity.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken reports an operation requiring a user with no
	// Authorization header present.
	ErrMissingToken = errors.New("authentication required")

	// ErrInvalidToken reports a token that failed verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the verified identity carried by a token.
type Claims struct {
	UserID string
}

// Verifier verifies HMAC-signed bearer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier with the shared signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ParseBearer extracts and verifies the token from an Authorization header
// value ("Bearer <token>"). An empty header yields ErrMissingToken so
// callers can refuse the operation without attempting it.
func (v *Verifier) ParseBearer(header string) (Claims, error) {
	if header == "" {
		return Claims{}, ErrMissingToken
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header || raw == "" {
		return Claims{}, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return v.Parse(raw)
}

// Parse verifies a raw token string and returns its claims.
func (v *Verifier) Parse(raw string) (Claims, error) {
	token, err := gojwt.Parse(raw, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{}
	if userID, ok := claims["userId"].(string); ok {
		out.UserID = userID
	}
	if out.UserID == "" {
		return Claims{}, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	return out, nil
}

// Sign issues a token for a user id, for tests and local tooling.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(v.secret)
}
