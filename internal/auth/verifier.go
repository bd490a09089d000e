// Package auth validates verifier bearer tokens at the HTTP boundary. The
// engine itself only needs the verifier identity; token issuance belongs to
// the verifier onboarding system.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// VerifierClaims are the claims expected from a verifier token.
type VerifierClaims struct {
	VerifierID string `json:"verifier_id"`
	jwt.RegisteredClaims
}

// Validator validates HMAC-signed verifier tokens.
type Validator struct {
	signingKey []byte
}

// NewValidator constructs a Validator. The signing key must not be empty.
func NewValidator(signingKey string) (*Validator, error) {
	if signingKey == "" {
		return nil, errors.New("signing key is required")
	}
	return &Validator{signingKey: []byte(signingKey)}, nil
}

// ValidateToken parses and verifies a verifier token, returning its claims.
func (v *Validator) ValidateToken(tokenString string) (*VerifierClaims, error) {
	claims := &VerifierClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse verifier token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid verifier token")
	}
	if claims.VerifierID == "" {
		return nil, errors.New("verifier token missing verifier_id claim")
	}
	return claims, nil
}
