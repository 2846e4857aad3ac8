package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/integra/advisor-profile/internal/platform/logging"
)

// DefaultIdleTTL is how long an unused client bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter is a per-client token bucket keyed by remote IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter allows perMinute requests per client with the given burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   limit,
		burst:   burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes a token for key. When none is available it reports how long the
// client should wait.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := b.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// Prune drops buckets idle for longer than the idle TTL and returns how many went.
func (rl *RateLimiter) Prune() int {
	cutoff := rl.now().Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// Run prunes idle buckets every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Prune(); n > 0 {
				logging.Logger().Debug("rate limiter pruned idle clients", zap.Int("count", n))
			}
		}
	}
}

// Operation returns huma middleware that throttles the operations registered
// at paths. Throttled calls get 429 with a Retry-After header.
func (rl *RateLimiter) Operation(api huma.API, paths ...string) func(huma.Context, func(huma.Context)) {
	limited := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		limited[p] = struct{}{}
	}
	return func(ctx huma.Context, next func(huma.Context)) {
		if _, ok := limited[ctx.Operation().Path]; !ok {
			next(ctx)
			return
		}
		key := clientIP(ctx.RemoteAddr())
		ok, wait := rl.Allow(key)
		if ok {
			next(ctx)
			return
		}
		seconds := int(math.Ceil(wait.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		logging.LogWarn(ctx.Context(), "request throttled",
			zap.String("client", key),
			zap.String("path", ctx.Operation().Path),
			zap.Int("retry_after", seconds),
		)
		ctx.SetHeader("Retry-After", strconv.Itoa(seconds))
		_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests,
			fmt.Sprintf("Request was throttled. Expected available in %d seconds.", seconds))
	}
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
