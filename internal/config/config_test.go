package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"JWT_SECRET": secret}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != StoreMemory || cfg.AuthProvider != AuthJWT {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.CacheEnabled || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected cache enabled with 5m TTL, got %v %s", cfg.CacheEnabled, cfg.CacheTTL)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token lifetimes: %s %s", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestFromLookupParsesValues(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PORT":                 "9000",
		"DEBUG":                "true",
		"STORE_DRIVER":         "SQLite",
		"SQLITE_DSN":           "file::memory:",
		"JWT_SECRET":           secret,
		"CACHE_TTL":            "90s",
		"CORS_ALLOWED_ORIGINS": " https://a.example.com, ,https://b.example.com ",
		"LOGIN_RATE_LIMIT":     "30",
		"GOOGLE_CLOUD_PROJECT": "demo-project",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || !cfg.Debug || cfg.StoreDriver != StoreSQLite || cfg.SQLiteDSN != "file::memory:" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CacheTTL != 90*time.Second || cfg.LoginRateLimit != 30 {
		t.Fatalf("unexpected cache/rate values: %s %d", cfg.CacheTTL, cfg.LoginRateLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ProjectID != "demo-project" {
		t.Fatalf("expected GOOGLE_CLOUD_PROJECT fallback, got %q", cfg.ProjectID)
	}
}

func TestFromLookupRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"short secret":          {"JWT_SECRET": "short"},
		"unknown store":         {"JWT_SECRET": secret, "STORE_DRIVER": "redis"},
		"firestore no project":  {"JWT_SECRET": secret, "STORE_DRIVER": "firestore"},
		"firebase no project":   {"AUTH_PROVIDER": "firebase"},
		"unknown auth provider": {"AUTH_PROVIDER": "saml"},
		"bad bool":              {"JWT_SECRET": secret, "DEBUG": "maybe"},
		"bad duration":          {"JWT_SECRET": secret, "CACHE_TTL": "five minutes"},
		"bad int":               {"JWT_SECRET": secret, "LOGIN_RATE_LIMIT": "many"},
		"zero burst":            {"JWT_SECRET": secret, "LOGIN_RATE_BURST": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := FromLookup(lookupFrom(env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFirebaseClients(t *testing.T) {
	cfg := Config{AuthProvider: AuthFirebase, StoreDriver: StoreSQLite}
	needAuth, needFirestore := cfg.FirebaseClients()
	if !needAuth || needFirestore {
		t.Fatalf("unexpected clients: auth=%v firestore=%v", needAuth, needFirestore)
	}
}

func TestLoadReadsDotenvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := strings.Join([]string{
		"JWT_SECRET=" + secret,
		"PORT=7000",
		"CACHE_TTL=2m",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PORT", "7100")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CACHE_TTL", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("CACHE_TTL")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7100" {
		t.Fatalf("environment should win over dotenv, got %q", cfg.Port)
	}
	if cfg.CacheTTL != 2*time.Minute || cfg.JWTSecret != secret {
		t.Fatalf("expected dotenv values, got %s %q", cfg.CacheTTL, cfg.JWTSecret)
	}
}
