package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	applog "github.com/integra/advisor-profile/internal/platform/logging"
)

// Service mediates every profile read and write: field partitioning,
// validation and the cache-aside read path.
type Service struct {
	store Store
	cache Cache
	ttl   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables cache-aside reads through c.
func WithCache(c Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService builds a Service over store. Without WithCache every read goes to the store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, cache: NopCache{}, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns the profile for id, serving from cache when possible.
// Cache failures degrade to a store read.
func (s *Service) Retrieve(ctx context.Context, id string) (*Record, error) {
	key := CacheKey(id)

	rec, hit, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		applog.LogWarn(ctx, "profile cache read failed", zap.String("key", key), zap.Error(err))
	case hit:
		return rec, nil
	}

	rec, err = s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}

	if err := s.cache.Set(ctx, key, rec, s.ttl); err != nil {
		applog.LogWarn(ctx, "profile cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rec, nil
}

// Update validates payload in full, applies only its editable fields and
// invalidates the cached profile after the write succeeds. A failed
// validation returns *ValidationError and changes nothing.
func (s *Service) Update(ctx context.Context, id string, payload Payload) (*Record, error) {
	delta, err := payload.Validate()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			applog.Audit(ctx, applog.AuditEvent{
				Action:       "update",
				Actor:        id,
				ResourceType: "profile",
				ResourceID:   id,
				Result:       applog.AuditFailure,
				Fields:       verr.FieldNames(),
				Reason:       "validation",
			})
		}
		return nil, err
	}

	rec, err := s.store.Update(ctx, id, delta)
	if err != nil {
		applog.Audit(ctx, applog.AuditEvent{
			Action:       "update",
			Actor:        id,
			ResourceType: "profile",
			ResourceID:   id,
			Result:       applog.AuditFailure,
			Fields:       delta.Fields(),
			Reason:       failureReason(err),
		})
		return nil, fmt.Errorf("update profile %s: %w", id, err)
	}

	key := CacheKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		applog.LogError(ctx, "profile cache invalidation failed", err, zap.String("key", key))
	}

	applog.Audit(ctx, applog.AuditEvent{
		Action:       "update",
		Actor:        id,
		ResourceType: "profile",
		ResourceID:   id,
		Result:       applog.AuditSuccess,
		Fields:       delta.Fields(),
	})
	return rec, nil
}

// failureReason converts store errors to audit-safe categories.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConstraintViolation):
		return "constraint_violation"
	default:
		return "internal_error"
	}
}
