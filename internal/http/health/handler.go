// Package health serves the liveness endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	applog "github.com/integra/advisor-profile/internal/platform/logging"
)

// Response is the payload for the health endpoint.
type Response struct {
	Status string `json:"status"`
}

// Check reports whether a dependency is usable.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

const probeTimeout = 2 * time.Second

// Handler answers 200 {"status":"healthy"} when every check passes and 503
// {"status":"unhealthy"} otherwise. Failed checks are logged, not returned.
func Handler(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		status, code := "healthy", http.StatusOK
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				applog.LogError(ctx, "health check failed", err, zap.String("check", c.Name))
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(Response{Status: status})
	}
}
