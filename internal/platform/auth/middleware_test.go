package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
)

type whoamiOutput struct {
	Body struct {
		Subject string `json:"subject"`
	}
}

func setupTestAPI(verifier Verifier, requireAuth bool) *chi.Mux {
	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(NewAuthMiddleware(api, verifier))

	var security []map[string][]string
	if requireAuth {
		security = []map[string][]string{{SchemeName: {}}}
	}

	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Security:    security,
	}, func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		out := &whoamiOutput{}
		if p := PrincipalFromContext(ctx); p != nil {
			out.Body.Subject = p.Subject
		}
		return out, nil
	})
	return router
}

func serve(router http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareSkipsUnsecuredOperations(t *testing.T) {
	rec := serve(setupTestAPI(&MockVerifier{Error: ErrInvalidToken}, false), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMiddlewareRequiresHeader(t *testing.T) {
	rec := serve(setupTestAPI(&MockVerifier{Principal: TestPrincipal()}, true), "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate: Bearer, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), msgNoCredentials) {
		t.Fatalf("expected generic reason, got %s", rec.Body.String())
	}
}

func TestMiddlewareRejectsBasicAuth(t *testing.T) {
	rec := serve(setupTestAPI(&MockVerifier{Principal: TestPrincipal()}, true), "Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsInvalidTokens(t *testing.T) {
	for _, err := range []error{ErrInvalidToken, ErrTokenExpired, ErrTokenRevoked, ErrUserDisabled} {
		rec := serve(setupTestAPI(&MockVerifier{Error: err}, true), "Bearer token")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%v: expected 401, got %d", err, rec.Code)
		}
		if got := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer") {
			t.Fatalf("%v: expected Bearer challenge, got %q", err, got)
		}
		if strings.Contains(rec.Body.String(), err.Error()) {
			t.Fatalf("%v: internal reason leaked: %s", err, rec.Body.String())
		}
	}
}

func TestMiddlewareCertificateFetchIsUnavailable(t *testing.T) {
	rec := serve(setupTestAPI(&MockVerifier{Error: ErrCertificateFetch}, true), "Bearer token")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected Retry-After: 30, got %q", got)
	}
}

func TestMiddlewareStoresPrincipal(t *testing.T) {
	rec := serve(setupTestAPI(&MockVerifier{Principal: &Principal{Subject: "u-789"}}, true), "Bearer valid")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Subject string `json:"subject"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Subject != "u-789" {
		t.Fatalf("expected subject u-789, got %q", body.Subject)
	}
}

func TestMiddlewareWithJWTVerifier(t *testing.T) {
	ti := newTestIssuer(t)
	router := setupTestAPI(NewJWTVerifier(ti), true)
	pair, _ := ti.IssuePair(Principal{Subject: "u-1"})

	if rec := serve(router, "Bearer "+pair.Access); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for access token, got %d", rec.Code)
	}
	if rec := serve(router, "Bearer "+pair.Refresh); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token, got %d", rec.Code)
	}
}

func TestPrincipalContext(t *testing.T) {
	if PrincipalFromContext(context.Background()) != nil {
		t.Fatal("expected nil principal")
	}
	p := TestPrincipal()
	if got := PrincipalFromContext(WithPrincipal(context.Background(), p)); got != p {
		t.Fatalf("expected %v, got %v", p, got)
	}
}
