package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

// Claims is the JWT payload for both token types.
type Claims struct {
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	Access  string
	Refresh string
}

// IssuerConfig configures a TokenIssuer.
type IssuerConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenIssuer signs and parses HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer validates cfg and fills default lifetimes.
func NewTokenIssuer(cfg IssuerConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	ti := &TokenIssuer{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	if ti.accessTTL <= 0 {
		ti.accessTTL = DefaultAccessTTL
	}
	if ti.refreshTTL <= 0 {
		ti.refreshTTL = DefaultRefreshTTL
	}
	return ti, nil
}

// IssuePair signs a fresh access and refresh token for p.
func (ti *TokenIssuer) IssuePair(p Principal) (TokenPair, error) {
	refresh, err := ti.sign(p, TokenTypeRefresh, ti.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := ti.sign(p, TokenTypeAccess, ti.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs an access token for p.
func (ti *TokenIssuer) IssueAccess(p Principal) (string, error) {
	return ti.sign(p, TokenTypeAccess, ti.accessTTL)
}

func (ti *TokenIssuer) sign(p Principal, tokenType string, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := &Claims{
		TokenType: tokenType,
		UserID:    p.Subject,
		Username:  p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse verifies signature, expiry, issuer and token type.
func (ti *TokenIssuer) Parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if ti.issuer != "" && !claims.VerifyIssuer(ti.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}
	if claims.TokenType != wantType || claims.UserID == "" {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, wantType)
	}
	return claims, nil
}

// Principal rebuilds the caller identity from verified claims.
func (c *Claims) Principal() *Principal {
	return &Principal{Subject: c.UserID, Username: c.Username}
}

// JWTVerifier accepts access tokens signed by a TokenIssuer.
type JWTVerifier struct {
	issuer *TokenIssuer
}

// NewJWTVerifier wraps issuer.
func NewJWTVerifier(issuer *TokenIssuer) *JWTVerifier {
	return &JWTVerifier{issuer: issuer}
}

// Verify rejects refresh tokens presented as bearer credentials.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	claims, err := v.issuer.Parse(token, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}

var _ Verifier = (*JWTVerifier)(nil)
