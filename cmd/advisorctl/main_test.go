package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/integra/advisor-profile/internal/config"
)

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "advisors.db")
	cfg, err := config.FromLookup(func(key string) (string, bool) {
		switch key {
		case "STORE_DRIVER":
			return config.StoreSQLite, true
		case "SQLITE_DSN":
			return dsn, true
		case "JWT_SECRET":
			return "0123456789abcdef0123456789abcdef", true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func runCLI(t *testing.T, cfg config.Config, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), cfg, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCreateThenShow(t *testing.T) {
	cfg := sqliteConfig(t)

	code, out, errOut := runCLI(t, cfg, "create",
		"--username", "jdoe",
		"--email", "JDoe@Example.com",
		"--password", "s3cret-password",
		"--advisor-id", "ADV-7",
		"--firm", "Integra Wealth",
		"--first-name", "John",
		"--last-name", "Doe",
	)
	if code != exitOK {
		t.Fatalf("create exited %d: %s", code, errOut)
	}
	var created recordJSON
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("unmarshal create output: %v\n%s", err, out)
	}
	if created.ID == "" || created.Username != "jdoe" || created.AdvisorID == nil || *created.AdvisorID != "ADV-7" {
		t.Fatalf("unexpected record %+v", created)
	}

	// A second invocation opens the same database file.
	code, out, errOut = runCLI(t, cfg, "show", "--id", created.ID)
	if code != exitOK {
		t.Fatalf("show exited %d: %s", code, errOut)
	}
	var shown recordJSON
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("unmarshal show output: %v", err)
	}
	if shown.ID != created.ID || shown.FirmName != "Integra Wealth" || shown.FirstName != "John" {
		t.Fatalf("unexpected record %+v", shown)
	}
}

func TestCreateRequiresFlags(t *testing.T) {
	code, _, errOut := runCLI(t, sqliteConfig(t), "create", "--username", "jdoe")
	if code != exitUsage {
		t.Fatalf("expected usage exit, got %d", code)
	}
	if !strings.Contains(errOut, "required") {
		t.Fatalf("expected required message, got %q", errOut)
	}
}

func TestCreateRejectsWeakPassword(t *testing.T) {
	code, _, errOut := runCLI(t, sqliteConfig(t), "create",
		"--username", "jdoe", "--email", "jdoe@example.com", "--password", "short")
	if code != exitError {
		t.Fatalf("expected error exit, got %d", code)
	}
	if !strings.Contains(errOut, "password") {
		t.Fatalf("expected password message, got %q", errOut)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	cfg := sqliteConfig(t)
	args := []string{"create", "--username", "jdoe", "--email", "jdoe@example.com", "--password", "s3cret-password"}
	if code, _, errOut := runCLI(t, cfg, args...); code != exitOK {
		t.Fatalf("first create exited %d: %s", code, errOut)
	}
	if code, _, _ := runCLI(t, cfg, args...); code != exitError {
		t.Fatalf("expected duplicate to fail, got %d", code)
	}
}

func TestShowUnknownID(t *testing.T) {
	code, _, errOut := runCLI(t, sqliteConfig(t), "show", "--id", "missing")
	if code != exitError {
		t.Fatalf("expected error exit, got %d", code)
	}
	if !strings.Contains(errOut, "show advisor") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	cfg := sqliteConfig(t)
	cases := [][]string{
		nil,
		{"delete"},
		{"show"},
		{"show", "--bogus"},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, cfg, args...); code != exitUsage {
			t.Fatalf("args %v: expected usage exit, got %d", args, code)
		}
	}
	if code, out, _ := runCLI(t, cfg, "help"); code != exitOK || !strings.Contains(out, "usage:") {
		t.Fatalf("help: code %d out %q", code, out)
	}
}

func TestRejectsMemoryStore(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.StoreDriver = config.StoreMemory
	code, _, errOut := runCLI(t, cfg, "show", "--id", "x")
	if code != exitUsage || !strings.Contains(errOut, "does not persist") {
		t.Fatalf("expected memory store refusal, got %d %q", code, errOut)
	}
}
