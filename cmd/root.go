package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hmans/larder/internal/assets"
	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/graph"
	"github.com/hmans/larder/internal/logging"
	"github.com/hmans/larder/internal/output"
	"github.com/hmans/larder/internal/search"
	"github.com/hmans/larder/internal/store"
)

// Version is set at build time.
var Version = "dev"

var (
	cfg     *config.Config
	logger  *logrus.Logger
	db      *store.Store
	storage assets.Storage

	configPath string
	logLevel   string
)

// Commands that run without a database.
var offlineCommands = map[string]bool{
	"init":       true,
	"total":      true,
	"help":       true,
	"completion": true,
}

var rootCmd = &cobra.Command{
	Use:   "larder",
	Short: "A GraphQL catalog of ingredients and cuisines",
	Long: `Larder keeps a relational catalog of ingredients and cuisines and serves it
over a GraphQL API. The same API can be queried in-process from the command
line, and the catalog can be managed interactively from the terminal.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			var wd string
			if wd, err = os.Getwd(); err == nil {
				cfg, err = config.LoadFromDirectory(wd)
			}
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger = logging.New(cfg.Log)

		if offlineCommands[cmd.Name()] {
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return openBackends(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db == nil {
			return nil
		}
		err := db.Close()
		db = nil
		return err
	},
}

// openBackends connects the store and the asset storage. SQLite databases are
// migrated on open; other drivers are migrated explicitly with "larder migrate".
func openBackends(ctx context.Context) error {
	var err error
	db, err = store.Open(ctx, cfg.Database.Driver, cfg.ResolveDSN(), logger)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	storage, err = assets.New(ctx, cfg, logger)
	return err
}

// newResolver builds the GraphQL root resolver with a search index seeded
// from the store.
func newResolver(ctx context.Context) (*graph.Resolver, error) {
	idx, err := search.NewIndex()
	if err != nil {
		return nil, err
	}
	ingredients, err := db.Ingredients(ctx)
	if err != nil {
		idx.Close()
		return nil, err
	}
	if err := idx.IndexIngredients(ingredients); err != nil {
		idx.Close()
		return nil, err
	}
	logger.WithField("count", len(ingredients)).Debug("search index built")

	return &graph.Resolver{
		Store:  db,
		Assets: storage,
		Index:  idx,
		Log:    logging.Component(logger, "graph"),
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to .larder.yml (overrides auto-detection)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, output.ErrReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
