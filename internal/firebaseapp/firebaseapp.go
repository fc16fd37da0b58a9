// Package firebaseapp initializes the Firebase Admin SDK shared by the
// Firebase record store and the Firebase token verifier.
package firebaseapp

import (
	"context"
	"fmt"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"spendlens/internal/config"
	"spendlens/internal/logger"
)

// App wraps a Firebase app and lazily creates its clients.
type App struct {
	app *firebase.App

	authOnce   sync.Once
	authClient *auth.Client
	authErr    error

	dbOnce   sync.Once
	dbClient *db.Client
	dbErr    error
}

// ClientOptions chooses how the SDK authenticates: inline credentials first,
// then a credentials file, else application default credentials.
func ClientOptions(cfg *config.Config) []option.ClientOption {
	switch {
	case len(cfg.FirebaseCredentials) > 0:
		return []option.ClientOption{option.WithCredentialsJSON(cfg.FirebaseCredentials)}
	case cfg.FirebaseCredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseCredentialsFile)}
	default:
		return nil
	}
}

// New initializes the Firebase app described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.Named("firebase")

	opts := ClientOptions(cfg)
	if len(opts) == 0 {
		log.Info("No Firebase credentials configured, using application default credentials")
	}

	fbConfig := &firebase.Config{
		ProjectID:   cfg.FirebaseProjectID,
		DatabaseURL: cfg.FirebaseDatabaseURL,
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	log.Infow("Firebase Admin SDK initialized", "project_id", cfg.FirebaseProjectID, "database_url", cfg.FirebaseDatabaseURL)
	return &App{app: app}, nil
}

// Auth returns the app's Auth client.
func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	a.authOnce.Do(func() {
		a.authClient, a.authErr = a.app.Auth(ctx)
		if a.authErr != nil {
			a.authErr = fmt.Errorf("firebase auth client: %w", a.authErr)
		}
	})
	return a.authClient, a.authErr
}

// Database returns the Realtime Database client for the configured URL.
func (a *App) Database(ctx context.Context) (*db.Client, error) {
	a.dbOnce.Do(func() {
		a.dbClient, a.dbErr = a.app.Database(ctx)
		if a.dbErr != nil {
			a.dbErr = fmt.Errorf("firebase database client: %w", a.dbErr)
		}
	})
	return a.dbClient, a.dbErr
}
