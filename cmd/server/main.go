// Package main implements the entry point for the SiXu Recall server,
// which turns markdown notes into spaced repetition flashcard decks and
// schedules their reviews.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/yayaysya/sixu-recall/db/migrations"
	"github.com/yayaysya/sixu-recall/internal/api"
	"github.com/yayaysya/sixu-recall/internal/config"
	"github.com/yayaysya/sixu-recall/internal/domain/srs"
	"github.com/yayaysya/sixu-recall/internal/pipeline"
	"github.com/yayaysya/sixu-recall/internal/platform/gemini"
	"github.com/yayaysya/sixu-recall/internal/platform/logger"
	"github.com/yayaysya/sixu-recall/internal/platform/postgres"
	"github.com/yayaysya/sixu-recall/internal/service"
	"github.com/yayaysya/sixu-recall/internal/splitter"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// run wires configuration, storage, services and the HTTP server, then
// blocks until shutdown. Kept separate from main so every exit path
// returns an error instead of calling os.Exit mid-stack.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName)

	if err := runMigrations(cfg.Database.URL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	deckStore := postgres.NewDeckStore(pool, appLogger)
	srsService := srs.NewDefaultService()
	deckService := service.NewDeckService(deckStore, srsService, appLogger)

	generator, err := gemini.NewGenerator(ctx, appLogger, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create card generator: %w", err)
	}

	pipe := pipeline.New(splitter.NewMarkdownSplitter(), generator, cfg.Generation, appLogger)
	notes := service.NewFileNoteReader(cfg.Generation.NotesDir)
	generateService := service.NewGenerateService(pipe, deckService, notes, cfg.Study, appLogger)

	router := api.NewRouter(
		api.NewDeckHandler(deckService, appLogger),
		api.NewGenerateHandler(generateService, appLogger),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// runMigrations applies pending schema migrations from the embedded
// filesystem. Goose drives a database/sql connection, so this opens a
// short-lived one through the pgx stdlib adapter.
func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	goose.SetBaseFS(migrations.Files)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	var version int64
	if version, err = goose.GetDBVersion(db); err == nil {
		slog.Info("database migrated", "version", version)
	}

	return nil
}
