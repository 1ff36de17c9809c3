// Package main is the entry point for the train directory shell.
// Its sole responsibility is wiring dependencies together and starting the
// interactive loop. No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/tkoster/traindir/internal/cli"
	"github.com/tkoster/traindir/internal/config"
	"github.com/tkoster/traindir/internal/repo"
	"github.com/tkoster/traindir/internal/service"
	"github.com/tkoster/traindir/migrations"
)

func main() {
	ctx := context.Background()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// Logs go to stderr so they interleave cleanly with the interactive
	// prompts on stdout.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Migrations -------------------------------------------------------
	// goose needs database/sql, not a pgx pool; a short-lived connection is
	// enough. Already-applied versions are skipped, so this is safe against
	// an initialized or partially-upgraded store.
	if err := migrate(ctx, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before starting the shell.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Services & shell -------------------------------------------------
	trains := repo.NewTrainRepo(pool)
	schedule := service.NewScheduleService(trains)
	query := service.NewQueryService(trains)

	shell := cli.New(os.Stdin, os.Stdout, logger, schedule, query)
	if err := shell.Run(ctx); err != nil {
		slog.Error("shell error", "error", err)
		os.Exit(1)
	}
	slog.Info("shell exited")
}

// migrate applies all pending migrations from the embedded FS.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}
