package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/rama26012004/moodtunes/internal/feed"
	"github.com/rama26012004/moodtunes/internal/repositories"
	"github.com/rama26012004/moodtunes/internal/server"
	"github.com/rama26012004/moodtunes/internal/services"
	"github.com/rama26012004/moodtunes/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, migrateCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reloads configuration from the command's --config flag when the
// file exists, falling back to the runner's config.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	if _, err := os.Stat(path); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config file", "path", path, "error", err)
		return r.config
	}
	return config
}

// Serve wires the full service graph and runs the HTTP server until the
// process receives an interrupt.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	users := repositories.NewUserRepository(db)

	spotify, err := services.NewSpotifyService(config.Credentials.Spotify, users, shared.WithLogger(r.logger, "service", "spotify"))
	if err != nil {
		return err
	}
	youtube, err := services.NewYouTubeService(config.Credentials.YouTube.APIKey, shared.WithLogger(r.logger, "service", "youtube"))
	if err != nil {
		return err
	}
	fitbit, err := services.NewFitbitService(config.Credentials.Fitbit, users, shared.WithLogger(r.logger, "service", "fitbit"))
	if err != nil {
		return err
	}
	weather, err := services.NewWeatherService(config.Credentials.Weather.APIKey, shared.WithLogger(r.logger, "service", "weather"))
	if err != nil {
		return err
	}

	bundles := services.NewBundleService(spotify, youtube, r.logger)
	sources := services.NewFeedSources(spotify, youtube, fitbit, bundles, users, r.logger)
	generator := feed.NewGenerator(sources, r.logger)

	router := server.NewBasicRouter()
	router.Use(
		server.LoggingMiddleware(r.logger),
		server.CORSMiddleware(config.Server.ClientOrigin),
	)
	router.Handler(server.NewSpotifyAuthHandler(spotify, users, config.Server.ClientOrigin, r.logger))
	router.Handler(server.NewFitbitAuthHandler(fitbit, users, config.Server.ClientOrigin, r.logger))
	router.Handler(server.NewAPIHandler(generator, spotify, youtube, fitbit, weather, bundles, users, r.logger))

	port := config.Server.Port
	if cmd.Int("port") != 0 {
		port = cmd.Int("port")
	}
	addr := fmt.Sprintf("%s:%d", config.Server.Host, port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", addr, "clientOrigin", config.Server.ClientOrigin)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// Migrate applies pending migrations, or rolls back the latest one when the
// rollback flag is set.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		r.logger.Info("rolled back latest migration")
		return nil
	}

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	r.logger.Info("migrations applied", "database", config.Database.Path)
	return nil
}

// SetupConfig writes the example configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	r.logger.Info("wrote example config", "path", path)
	return nil
}

// SetupDatabase creates the database file and applies all migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Info("database ready", "path", config.Database.Path)
	return nil
}
