package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

func serveRequestID(t *testing.T, incoming string, set bool) (captured string, header string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if set {
		req.Header.Set(chimiddleware.RequestIDHeader, incoming)
	}
	resp := httptest.NewRecorder()
	RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = chimiddleware.GetReqID(r.Context())
	})).ServeHTTP(resp, req)
	return captured, resp.Header().Get(chimiddleware.RequestIDHeader)
}

func TestRequestIDGeneratesUUIDv4(t *testing.T) {
	captured, header := serveRequestID(t, "", false)

	if captured == "" || header != captured {
		t.Fatalf("expected matching context and header IDs, got %q and %q", captured, header)
	}
	parsed, err := uuid.Parse(captured)
	if err != nil {
		t.Fatalf("request ID %q is not a valid UUID: %v", captured, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected UUIDv4, got version %d", parsed.Version())
	}
}

func TestRequestIDPreservesValidIncomingHeader(t *testing.T) {
	for _, id := range []string{"external-id", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", strings.Repeat("a", maxRequestIDLength)} {
		captured, header := serveRequestID(t, id, true)
		if captured != id || header != id {
			t.Fatalf("expected %q to be reused, got %q / %q", id, captured, header)
		}
	}
}

func TestRequestIDReplacesInvalidIncomingHeader(t *testing.T) {
	tests := map[string]string{
		"too long":      strings.Repeat("a", maxRequestIDLength+1),
		"newline":       "abc\ninjected",
		"tab":           "abc\tdef",
		"delete":        "abc\x7f",
		"non-ascii":     "ïd",
		"null byte":     "abc\x00",
		"carriage ret.": "abc\rdef",
	}
	for name, id := range tests {
		t.Run(name, func(t *testing.T) {
			captured, _ := serveRequestID(t, id, true)
			if captured == id {
				t.Fatalf("expected invalid ID to be replaced")
			}
			if _, err := uuid.Parse(captured); err != nil {
				t.Fatalf("expected generated UUID, got %q", captured)
			}
		})
	}
}

func TestIsValidRequestIDBoundaries(t *testing.T) {
	if isValidRequestID("") {
		t.Fatal("empty ID should be invalid")
	}
	if !isValidRequestID(" ") || !isValidRequestID("~") {
		t.Fatal("space and tilde are printable and should be valid")
	}
	if isValidRequestID("\x1f") || isValidRequestID("\x80") {
		t.Fatal("control and high bytes should be invalid")
	}
}
