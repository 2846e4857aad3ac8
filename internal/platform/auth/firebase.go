package auth

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseVerifier validates Firebase ID tokens. The Firebase UID is the
// profile identity, so records must be provisioned under the same ID.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier creates a verifier over an Admin SDK auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify validates idToken and checks it has not been revoked.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Principal, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		switch {
		case fbauth.IsCertificateFetchFailed(err):
			return nil, ErrCertificateFetch
		case fbauth.IsIDTokenExpired(err):
			return nil, ErrTokenExpired
		case fbauth.IsIDTokenRevoked(err):
			return nil, ErrTokenRevoked
		case fbauth.IsUserDisabled(err):
			return nil, ErrUserDisabled
		default:
			return nil, ErrInvalidToken
		}
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	return &Principal{Subject: token.UID, Username: name, Email: email}, nil
}

var _ Verifier = (*FirebaseVerifier)(nil)
