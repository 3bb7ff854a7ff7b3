// Package identity resolves the viewer's own email address from the
// stored credential. The address is used as the From of composed
// messages and for reply-all self-exclusion.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoIdentity indicates no usable credential is available. Callers
// treat it as "not logged in": composition is blocked, nothing crashes.
var ErrNoIdentity = errors.New("identity: no viewer address available")

// Provider yields the viewer's address.
type Provider interface {
	Address() (string, error)
}

// TokenIdentity extracts the viewer address from a webmail session JWT.
// The token is parsed without signature verification: the client only
// reads its own email claim for display and prefill; the server is the
// one that verifies the token on every API call.
type TokenIdentity struct {
	token string
}

// NewTokenIdentity creates a provider over the given JWT string.
func NewTokenIdentity(token string) *TokenIdentity {
	return &TokenIdentity{token: token}
}

// Address returns the email claim of the token.
func (t *TokenIdentity) Address() (string, error) {
	if t.token == "" {
		return "", ErrNoIdentity
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(t.token, claims); err != nil {
		return "", fmt.Errorf("%w: parsing token: %v", ErrNoIdentity, err)
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("%w: token has no email claim", ErrNoIdentity)
	}

	return email, nil
}

// StaticIdentity is a fixed viewer address, used by the IMAP backend
// where the account username is the address.
type StaticIdentity string

// Address returns the fixed address.
func (s StaticIdentity) Address() (string, error) {
	if s == "" {
		return "", ErrNoIdentity
	}
	return string(s), nil
}
