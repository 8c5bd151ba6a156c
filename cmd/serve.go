package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/fixtures"
	"github.com/hmans/larder/internal/logging"
	"github.com/hmans/larder/internal/search"
	"github.com/hmans/larder/internal/server"
)

var (
	servePort     int
	serveFixtures string
	serveWatch    bool
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the web server",
	Long: `Start an HTTP server that serves the GraphQL API.

The server exposes:
  - GraphQL endpoint at /graphql (POST, GET, multipart uploads)
  - GraphQL Playground at /graphql (GET without a query)
  - Uploaded media at /media (filesystem storage only)
  - Health check at /healthz and Prometheus metrics at /metrics

Examples:
  # Start server on the configured port (default 22880)
  larder serve

  # Load fixtures on startup and re-apply them when they change
  larder serve --fixtures ./fixtures --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func runServer(ctx context.Context) error {
	if serveWatch && serveFixtures == "" {
		return errors.New("--watch requires --fixtures")
	}

	var loaded []*fixtures.Fixture
	if serveFixtures != "" {
		var err error
		if loaded, err = fixtures.LoadDir(serveFixtures); err != nil {
			return err
		}
		applied, err := fixtures.Apply(ctx, db, storage, loaded, logging.Component(logger, "fixtures"))
		if err != nil {
			return fmt.Errorf("applying fixtures: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"ingredients": len(applied.Ingredients),
			"cuisines":    len(applied.Cuisines),
		}).Info("fixtures loaded")
	}

	resolver, err := newResolver(ctx)
	if err != nil {
		return err
	}
	defer resolver.Index.Close()

	if serveWatch {
		w := fixtures.NewWatcher(serveFixtures, db, storage, logging.Component(logger, "fixtures"))
		w.Seed(loaded)
		if err := w.Start(); err != nil {
			return fmt.Errorf("watching fixtures: %w", err)
		}
		defer w.Close()
		go syncIndex(w, resolver.Index)
	}

	opts := server.Options{
		Resolver:      resolver,
		Logger:        logger,
		Version:       Version,
		MaxUploadSize: cfg.Server.MaxUploadSize,
	}
	if cfg.Storage.Backend == config.BackendFileSystem {
		opts.MediaRoot = cfg.MediaRoot()
		opts.MediaURL = cfg.Storage.BaseURL
	}

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	fmt.Printf("Starting server at http://localhost:%d/\n", port)
	fmt.Printf("GraphQL Playground: http://localhost:%d/graphql\n", port)
	return server.New(opts).Run(ctx, fmt.Sprintf(":%d", port))
}

// syncIndex keeps the search index in line with fixture changes until the
// watcher is closed.
func syncIndex(w *fixtures.Watcher, idx *search.Index) {
	events, unsubscribe := w.Subscribe()
	defer unsubscribe()

	log := logging.Component(logger, "search")
	for batch := range events {
		if err := indexFixtureEvents(idx, batch); err != nil {
			log.WithError(err).Warn("failed to update search index")
		}
	}
}

// indexFixtureEvents applies fixture changes to the search index.
func indexFixtureEvents(idx *search.Index, events []fixtures.Event) error {
	var errs []error
	for _, ev := range events {
		switch ev.Type {
		case fixtures.EventApplied:
			if ev.Applied != nil {
				errs = append(errs, idx.IndexIngredients(ev.Applied.Ingredients))
			}
		case fixtures.EventRemoved:
			if ev.Fixture != nil && ev.Fixture.Model == fixtures.ModelIngredient {
				errs = append(errs, idx.DeleteIngredient(ev.Fixture.ID))
			}
		}
	}
	return errors.Join(errs...)
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, fmt.Sprintf("Port to listen on (default from config, %d)", config.DefaultPort))
	serveCmd.Flags().StringVar(&serveFixtures, "fixtures", "", "Load fixtures from this directory on startup")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Re-apply fixtures when files change (requires --fixtures)")
	rootCmd.AddCommand(serveCmd)
}
