package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/pins/backend/internal/identity"
	"github.com/anonto42/pins/backend/internal/logger"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/router"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/internal/storage"
	"github.com/anonto42/pins/backend/pkg/config"
	"github.com/anonto42/pins/backend/pkg/firebase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Env,
		Level:       logger.ParseLevel(cfg.Log.Level),
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.CloseDB(log)

	if cfg.Database.AutoMigrate {
		if err := models.Migrate(db.SQL); err != nil {
			return err
		}
		log.Info("database migrations completed")
	}

	// Initialize Firebase when a provider or the storage backend needs it
	var fb *firebase.App
	if cfg.Auth.Provider == "firebase" || cfg.Storage.Backend == "firebase" {
		fb, err = firebase.InitFirebase(ctx, cfg.Firebase.CredentialsPath, cfg.Firebase.StorageBucket)
		if err != nil {
			return err
		}
		log.Info("firebase initialized")
	}

	store, err := storage.Open(ctx, cfg, db.Mongo, fb)
	if err != nil {
		return err
	}
	log.Info("object storage ready", "backend", cfg.Storage.Backend)

	var provider identity.Provider
	switch cfg.Auth.Provider {
	case "firebase":
		provider = identity.NewFirebaseProvider(fb.AuthClient)
	default:
		provider = identity.NewArcProvider(cfg.Auth.IdentityBaseURL, cfg.Auth.IdentityTimeout)
	}

	e, release := router.New(router.Dependencies{
		Config:   cfg,
		DB:       db.SQL,
		Mongo:    db.Mongo,
		Store:    store,
		Identity: provider,
		Sessions: session.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		Logger:   log,
	})
	defer release()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
