package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/anonto42/pins/backend/internal/logger"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/seed"
	"github.com/anonto42/pins/backend/internal/storage"
	"github.com/anonto42/pins/backend/pkg/config"
	"github.com/anonto42/pins/backend/pkg/firebase"
)

var (
	withImages bool
	timeout    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "seed",
		Short:         "Load the demo communities, user, pins and comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSeed,
	}

	rootCmd.Flags().BoolVar(&withImages, "images", false, "Download the demo images into the configured storage backend")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Abort the run after this long")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Env,
		Level:       logger.ParseLevel(cfg.Log.Level),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.CloseDB(log)

	if err := models.Migrate(db.SQL); err != nil {
		return err
	}

	opts := seed.Options{BaseFolder: cfg.Storage.BaseFolder, Logger: log}
	if withImages {
		if cfg.Storage.Backend == "memory" {
			return fmt.Errorf("--images needs a persistent storage backend, not %q", cfg.Storage.Backend)
		}
		var fb *firebase.App
		if cfg.Storage.Backend == "firebase" {
			if fb, err = firebase.InitFirebase(ctx, cfg.Firebase.CredentialsPath, cfg.Firebase.StorageBucket); err != nil {
				return err
			}
		}
		if opts.Store, err = storage.Open(ctx, cfg, db.Mongo, fb); err != nil {
			return err
		}
	}

	summary, err := seed.Run(ctx, db.SQL, opts)
	if err != nil {
		return err
	}
	log.Info("seed complete",
		"communities", summary.Communities,
		"pins", summary.Pins,
		"comments", summary.Comments,
		"images", summary.Images)
	return nil
}
