package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/integra/advisor-profile/internal/config"
	"github.com/integra/advisor-profile/internal/http/health"
	"github.com/integra/advisor-profile/internal/http/v1/routes"
	"github.com/integra/advisor-profile/internal/platform/auth"
	applog "github.com/integra/advisor-profile/internal/platform/logging"
	appmiddleware "github.com/integra/advisor-profile/internal/platform/middleware"
	"github.com/integra/advisor-profile/internal/platform/respond"
	"github.com/integra/advisor-profile/internal/service/account"
	profilesvc "github.com/integra/advisor-profile/internal/service/profile"
	"github.com/integra/advisor-profile/internal/storage"
)

const (
	openAPIPath = "/api/schema"
	docsPath    = "/api/schema/swagger-ui/"

	limiterPruneInterval = time.Minute
)

// newHandler assembles the router, middleware stack and API.
func newHandler(cfg config.Config, deps routes.Dependencies, checks ...health.Check) http.Handler {
	respond.Install()

	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(openAPIPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.CORSAllowedOrigins...),
		appmiddleware.RequestID(),
		// RealIP trusts X-Real-IP and X-Forwarded-For. Only deploy behind a proxy
		// that overwrites them; the login throttle keys on this address.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		applog.RequestLogger(cfg.ProjectID),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	router.Get("/health", health.Handler(checks...))
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respond.WriteRedirect(w, r, docsPath, http.StatusMovedPermanently)
	})

	humaCfg := huma.DefaultConfig("Advisor Profile API", Version)
	humaCfg.OpenAPIPath = openAPIPath
	humaCfg.DocsPath = docsPath
	if humaCfg.Components.SecuritySchemes == nil {
		humaCfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	humaCfg.Components.SecuritySchemes[auth.SchemeName] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	api := humachi.New(router, humaCfg)

	// Add CBOR content type to OpenAPI requests and responses
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)

	routes.Register(api, deps)
	return router
}

// buildDependencies opens the configured store, cache and verifier. The
// returned handle owns every opened resource, the cache included.
func buildDependencies(ctx context.Context, cfg config.Config) (routes.Dependencies, []health.Check, *storage.Handle, error) {
	var deps routes.Dependencies

	h, err := storage.Open(ctx, cfg)
	if err != nil {
		return deps, nil, nil, err
	}
	var checks []health.Check
	if h.Ping != nil {
		checks = append(checks, health.Check{Name: cfg.StoreDriver, Probe: h.Ping})
	}

	opts := []profilesvc.Option{profilesvc.WithCacheTTL(cfg.CacheTTL)}
	if cfg.CacheEnabled {
		cache, err := profilesvc.NewBuntCache()
		if err != nil {
			_ = h.Close()
			return deps, nil, nil, fmt.Errorf("profile cache: %w", err)
		}
		h.OnClose(cache.Close)
		opts = append(opts, profilesvc.WithCache(cache))
	}
	deps.Profiles = profilesvc.NewService(h.Repo, opts...)

	switch cfg.AuthProvider {
	case config.AuthFirebase:
		deps.Verifier = auth.NewFirebaseVerifier(h.Firebase.Auth)
	default:
		issuer, err := auth.NewTokenIssuer(auth.IssuerConfig{
			Secret:     []byte(cfg.JWTSecret),
			Issuer:     cfg.JWTIssuer,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		})
		if err != nil {
			_ = h.Close()
			return routes.Dependencies{}, nil, nil, err
		}
		deps.Verifier = auth.NewJWTVerifier(issuer)
		deps.Accounts = account.NewService(h.Repo, issuer)
		deps.Limiter = appmiddleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)
	}
	return deps, checks, h, nil
}
