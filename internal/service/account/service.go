// Package account authenticates advisors and provisions their credentials.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/integra/advisor-profile/internal/platform/auth"
	applog "github.com/integra/advisor-profile/internal/platform/logging"
	"github.com/integra/advisor-profile/internal/service/profile"
)

// Account errors
var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrWeakPassword       = errors.New("password must be 8 to 72 bytes long")
)

const minPasswordLength = 8

// Store is the persistence an account service needs.
type Store interface {
	profile.Registrar
	profile.CredentialStore
}

// Service issues tokens against stored bcrypt credentials.
type Service struct {
	store  Store
	tokens *auth.TokenIssuer
	cost   int
}

// NewService wires a credential store to a token issuer.
func NewService(store Store, tokens *auth.TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens, cost: bcrypt.DefaultCost}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy spends the same bcrypt work for unknown usernames so response
// timing does not reveal which accounts exist.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Login checks username and password and returns a fresh token pair.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	creds, err := s.store.Credentials(ctx, username)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		compareDummy(password)
		s.auditLogin(ctx, username, "", applog.AuditFailure, "unknown_user")
		return auth.TokenPair{}, ErrInvalidCredentials
	case err != nil:
		return auth.TokenPair{}, fmt.Errorf("load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(creds.PasswordHash, []byte(password)); err != nil {
		s.auditLogin(ctx, username, creds.ID, applog.AuditFailure, "bad_password")
		return auth.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(auth.Principal{Subject: creds.ID, Username: creds.Username})
	if err != nil {
		return auth.TokenPair{}, err
	}
	s.auditLogin(ctx, username, creds.ID, applog.AuditSuccess, "")
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(*claims.Principal())
}

// Register hashes password and provisions rec.
func (s *Service) Register(ctx context.Context, rec profile.NewRecord, password string) (*profile.Record, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrWeakPassword
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	rec.PasswordHash = hash

	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	applog.Audit(ctx, applog.AuditEvent{
		Action:       "create",
		Actor:        "operator",
		ResourceType: "profile",
		ResourceID:   created.ID,
		Result:       applog.AuditSuccess,
	})
	return created, nil
}

func (s *Service) auditLogin(ctx context.Context, username, id, result, reason string) {
	applog.Audit(ctx, applog.AuditEvent{
		Action:       "login",
		Actor:        username,
		ResourceType: "session",
		ResourceID:   id,
		Result:       result,
		Reason:       reason,
	})
}
