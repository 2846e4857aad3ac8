// Package token serves the login and token refresh endpoints.
package token

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/integra/advisor-profile/internal/platform/auth"
	applog "github.com/integra/advisor-profile/internal/platform/logging"
	"github.com/integra/advisor-profile/internal/service/account"
)

// Endpoint paths.
const (
	LoginPath   = "/api/auth/login/"
	RefreshPath = "/api/auth/refresh/"
)

const msgRefreshInvalid = "Token is invalid or expired"

// Service is the account behaviour the handlers need.
type Service interface {
	Login(ctx context.Context, username, password string) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Register registers login and refresh.
func Register(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        LoginPath,
		Summary:     "Obtain a token pair",
		Description: "Exchanges username and password for an access and a refresh token.",
		Tags:        []string{"Auth"},
		Errors:      []int{http.StatusUnauthorized, http.StatusTooManyRequests},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		pair, err := svc.Login(ctx, input.Body.Username, input.Body.Password)
		if err != nil {
			if errors.Is(err, account.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("No active account found with the given credentials")
			}
			applog.LogError(ctx, "login failed", err)
			return nil, huma.Error500InternalServerError("internal server error")
		}
		out := &LoginOutput{}
		out.Body.Access = pair.Access
		out.Body.Refresh = pair.Refresh
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        RefreshPath,
		Summary:     "Refresh the access token",
		Description: "Exchanges a valid refresh token for a new access token.",
		Tags:        []string{"Auth"},
		Errors:      []int{http.StatusUnauthorized, http.StatusTooManyRequests},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		access, err := svc.Refresh(ctx, input.Body.Refresh)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenExpired) {
				return nil, huma.Error401Unauthorized(msgRefreshInvalid)
			}
			applog.LogError(ctx, "token refresh failed", err)
			return nil, huma.Error500InternalServerError("internal server error")
		}
		out := &RefreshOutput{}
		out.Body.Access = access
		return out, nil
	})
}
