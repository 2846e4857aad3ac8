// Package routes wires the v1 HTTP operations into a huma API.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/integra/advisor-profile/internal/http/v1/profile"
	"github.com/integra/advisor-profile/internal/http/v1/token"
	"github.com/integra/advisor-profile/internal/platform/auth"
	appmiddleware "github.com/integra/advisor-profile/internal/platform/middleware"
)

// Dependencies are the services behind the v1 routes.
type Dependencies struct {
	Verifier auth.Verifier
	Profiles profile.Service
	// Accounts is nil when tokens come from an external identity provider;
	// the login and refresh endpoints are then not served.
	Accounts token.Service
	// Limiter throttles the token endpoints per client. Nil disables throttling.
	Limiter *appmiddleware.RateLimiter
}

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, deps Dependencies) {
	api.UseMiddleware(auth.NewAuthMiddleware(api, deps.Verifier))
	if deps.Limiter != nil && deps.Accounts != nil {
		api.UseMiddleware(deps.Limiter.Operation(api, token.LoginPath, token.RefreshPath))
	}

	profile.Register(api, deps.Profiles)
	if deps.Accounts != nil {
		token.Register(api, deps.Accounts)
	}
}
