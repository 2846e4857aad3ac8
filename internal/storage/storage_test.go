package storage

import (
	"context"
	"testing"

	"github.com/integra/advisor-profile/internal/config"
	profilesvc "github.com/integra/advisor-profile/internal/service/profile"
)

func TestOpenMemory(t *testing.T) {
	h, err := Open(context.Background(), config.Config{StoreDriver: config.StoreMemory})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()
	if _, ok := h.Repo.(*profilesvc.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", h.Repo)
	}
	if h.Ping != nil {
		t.Fatal("memory store should have no ping")
	}
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	h, err := Open(ctx, config.Config{StoreDriver: config.StoreSQLite, SQLiteDSN: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	if err := h.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	rec, err := h.Repo.Create(ctx, profilesvc.NewRecord{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: []byte("hash"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := h.Repo.Get(ctx, rec.ID)
	if err != nil || got.Username != "jdoe" {
		t.Fatalf("get: %+v %v", got, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Config{StoreDriver: "mongo"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestHandleCloseIsIdempotent(t *testing.T) {
	h, err := Open(context.Background(), config.Config{StoreDriver: config.StoreSQLite, SQLiteDSN: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	var nilHandle *Handle
	if err := nilHandle.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestPersistent(t *testing.T) {
	if Persistent(config.StoreMemory) {
		t.Fatal("memory is not persistent")
	}
	if !Persistent(config.StoreSQLite) || !Persistent(config.StoreFirestore) {
		t.Fatal("sqlite and firestore are persistent")
	}
}

func TestHandleOnCloseRunsInReverse(t *testing.T) {
	h, err := Open(context.Background(), config.Config{StoreDriver: config.StoreMemory})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var order []int
	h.OnClose(func() error { order = append(order, 1); return nil })
	h.OnClose(func() error { order = append(order, 2); return nil })
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("expected reverse order, got %v", order)
	}
}
