// Package firebase initializes the Admin SDK clients the server needs.
package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Config selects the project, credentials and which clients to build.
type Config struct {
	ProjectID                    string
	GoogleApplicationCredentials string // service account JSON path, optional
	Auth                         bool
	Firestore                    bool
}

// Enabled reports whether any client is requested.
func (c Config) Enabled() bool {
	return c.Auth || c.Firestore
}

// Clients holds the initialized clients. Unrequested clients are nil.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// InitializeClients builds the clients cfg asks for.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	var opts []option.ClientOption
	if cfg.GoogleApplicationCredentials != "" {
		creds, err := os.ReadFile(cfg.GoogleApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("read firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	c := &Clients{}
	if cfg.Auth {
		if c.Auth, err = app.Auth(ctx); err != nil {
			return nil, fmt.Errorf("firebase auth client: %w", err)
		}
	}
	if cfg.Firestore {
		if c.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
	}
	return c, nil
}

// Close closes the Firestore client when one was created.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
