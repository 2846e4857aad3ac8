// Package storage opens the profile repository selected by configuration.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/integra/advisor-profile/internal/config"
	"github.com/integra/advisor-profile/internal/platform/database"
	"github.com/integra/advisor-profile/internal/platform/firebase"
	profilesvc "github.com/integra/advisor-profile/internal/service/profile"
)

// Handle is an opened repository plus whatever must be released with it.
type Handle struct {
	Repo profilesvc.Repository
	// Firebase is set when any Firebase client was requested.
	Firebase *firebase.Clients
	// Ping probes the backing database. Nil for stores without a connection.
	Ping func(ctx context.Context) error

	closers []func() error
}

// OnClose registers fn to run when the handle is closed.
func (h *Handle) OnClose(fn func() error) {
	h.closers = append(h.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// Open builds the repository for cfg.StoreDriver and the Firebase clients
// cfg needs. The SQLite schema is created when missing.
func Open(ctx context.Context, cfg config.Config) (*Handle, error) {
	h := &Handle{}

	needAuth, needFirestore := cfg.FirebaseClients()
	if needAuth || needFirestore {
		clients, err := firebase.InitializeClients(ctx, firebase.Config{
			ProjectID:                    cfg.ProjectID,
			GoogleApplicationCredentials: cfg.CredentialsFile,
			Auth:                         needAuth,
			Firestore:                    needFirestore,
		})
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, clients.Close)
		h.Firebase = clients
	}

	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err := database.Open(ctx, database.Options{DSN: cfg.SQLiteDSN, Debug: cfg.Debug})
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		h.closers = append(h.closers, db.Close)
		store := profilesvc.NewSQLStore(db)
		if err := store.CreateSchema(ctx); err != nil {
			_ = h.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
		h.Repo = store
		h.Ping = db.PingContext
	case config.StoreFirestore:
		h.Repo = profilesvc.NewFirestoreStore(h.Firebase.Firestore)
	case config.StoreMemory:
		h.Repo = profilesvc.NewMemoryStore()
	default:
		_ = h.Close()
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return h, nil
}

// Persistent reports whether records outlive the process.
func Persistent(driver string) bool {
	return driver == config.StoreSQLite || driver == config.StoreFirestore
}
