// Package auth verifies bearer tokens and exposes the authenticated principal
// to huma operations.
package auth

import (
	"context"
	"errors"
	"strings"
)

// Authentication failures. Transport maps all of them to 401 except
// ErrCertificateFetch, which is a 503.
var (
	ErrNoToken          = errors.New("missing authorization header")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrUserDisabled     = errors.New("user disabled")
	ErrCertificateFetch = errors.New("failed to fetch certificates")
)

// Principal is the verified caller. Subject is the profile identity.
type Principal struct {
	Subject  string
	Username string
	Email    string
}

// Verifier validates an access token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}
