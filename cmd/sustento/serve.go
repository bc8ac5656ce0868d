package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/foodsearch"
	"github.com/thiagoisdead/sustento-back/internal/oracle"
	"github.com/thiagoisdead/sustento-back/internal/planner"
	"github.com/thiagoisdead/sustento-back/internal/server"
	"github.com/thiagoisdead/sustento-back/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and MCP tool endpoint",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	suggester, err := newSuggester(ctx, store)
	if err != nil {
		return err
	}

	srv := server.New(cfg, store, suggester, logger)
	logger.Info("starting sustento",
		zap.String("version", version),
		zap.String("db", cfg.Database.Path),
		zap.String("oracle", cfg.Oracle.Provider))
	return srv.Run(ctx)
}

// newSuggester wires the generation pipeline from the loaded configuration.
func newSuggester(ctx context.Context, store planner.SuggestStore) (*planner.Suggester, error) {
	o, err := oracle.New(ctx, cfg.Oracle, cfg.GetOracleTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle: %w", err)
	}
	search := foodsearch.NewClient(cfg.FoodSearch, cfg.GetFoodSearchTimeout(), logger)
	opts := planner.OptionsFromConfig(cfg)

	return planner.NewSuggester(store,
		planner.NewBrainstormer(o, opts, logger),
		planner.NewResolver(search, opts, logger),
		planner.NewGenerator(o, opts, logger),
		logger,
	), nil
}
