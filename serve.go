package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/krshsl/sensai/backend/repository"
	svc "github.com/krshsl/sensai/backend/services"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the coaching and user endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Run database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	config := svc.LoadConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer database.Close()

	store := repository.NewStore(database.DB)
	if serveMigrate {
		if err := store.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("Database migrations completed")
	}

	g, gCtx := errgroup.WithContext(ctx)

	server := svc.NewServer(config)
	server.SetDatabase(store, database.Pool)
	if err := server.InitializeServices(gCtx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	g.Go(func() error {
		return server.Start(gCtx)
	})

	return g.Wait()
}

func openDatabase(ctx context.Context, config *svc.Config) (*repository.Database, error) {
	if config.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database, err := repository.Open(initCtx, repository.PostgresConfig{
		DSN:          config.Database.URL,
		LogLevel:     config.Database.LogLevel,
		MaxOpenConns: int32(config.Database.MaxOpenConns),
		MaxIdleConns: int32(config.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return nil, err
	}
	slog.Info("Connected to database")
	return database, nil
}
