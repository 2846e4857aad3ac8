// Package config loads server and CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

// Auth providers.
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port  string
	Debug bool

	StoreDriver string
	SQLiteDSN   string

	ProjectID       string
	CredentialsFile string

	AuthProvider    string
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CacheEnabled bool
	CacheTTL     time.Duration

	CORSAllowedOrigins []string

	LoginRateLimit int // requests per minute per client IP
	LoginRateBurst int
}

// Load reads the optional dotenv files, then the environment.
// Variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults and validation.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		Port:               r.str("PORT", "8080"),
		Debug:              r.boolean("DEBUG", false),
		StoreDriver:        strings.ToLower(r.str("STORE_DRIVER", StoreMemory)),
		SQLiteDSN:          r.str("SQLITE_DSN", "file:advisor.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
		ProjectID:          r.first("FIREBASE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		CredentialsFile:    r.str("GOOGLE_APPLICATION_CREDENTIALS", ""),
		AuthProvider:       strings.ToLower(r.str("AUTH_PROVIDER", AuthJWT)),
		JWTSecret:          r.str("JWT_SECRET", ""),
		JWTIssuer:          r.str("JWT_ISSUER", "advisor-profile"),
		AccessTokenTTL:     r.duration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTokenTTL:    r.duration("REFRESH_TOKEN_TTL", 24*time.Hour),
		CacheEnabled:       r.boolean("CACHE_ENABLED", true),
		CacheTTL:           r.duration("CACHE_TTL", 5*time.Minute),
		CORSAllowedOrigins: r.list("CORS_ALLOWED_ORIGINS"),
		LoginRateLimit:     r.integer("LOGIN_RATE_LIMIT", 10),
		LoginRateBurst:     r.integer("LOGIN_RATE_BURST", 5),
	}
	if err := errors.Join(append(r.errs, cfg.Validate())...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StoreFirestore:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of memory, sqlite, firestore", c.StoreDriver))
	}
	switch c.AuthProvider {
	case AuthJWT:
		if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
		}
	case AuthFirebase:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for firebase auth"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER %q is not one of jwt, firebase", c.AuthProvider))
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.LoginRateBurst < 1 {
		errs = append(errs, errors.New("LOGIN_RATE_BURST must be at least 1"))
	}
	return errors.Join(errs...)
}

// FirebaseClients reports which Firebase clients the configuration needs.
func (c Config) FirebaseClients() (needAuth, needFirestore bool) {
	return c.AuthProvider == AuthFirebase, c.StoreDriver == StoreFirestore
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) first(keys ...string) string {
	for _, k := range keys {
		if v := r.str(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) list(key string) []string {
	var out []string
	for part := range strings.SplitSeq(r.str(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
