package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docingest/internal/adapter/outbound/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// newMigrateCmd creates and returns the migrate command.
func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending SQL migrations to the configured database.

Migration files are applied in lexical order. Each applied file is recorded
in the schema_migrations table and skipped on subsequent runs.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMigrations(dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./migrations", "Directory containing migration SQL files")
	return cmd
}

func runMigrations(dir string) error {
	cfg := GetConfig()

	pool, err := repository.NewDatabaseConnection(databaseConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := ensureMigrationTable(ctx, pool); err != nil {
		return err
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	applied := 0
	for _, file := range files {
		done, err := applyMigration(ctx, pool, dir, file)
		if err != nil {
			return fmt.Errorf("apply %s: %w", file, err)
		}
		if done {
			applied++
			log.Printf("Applied migration %s", file)
		}
	}

	log.Printf("Migrations complete: %d applied, %d already current", applied, len(files)-applied)
	return nil
}

func ensureMigrationTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// applyMigration runs one migration file inside a transaction and records it.
// Returns false when the file was already applied.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, dir, file string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)", file,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration state: %w", err)
	}
	if exists {
		return false, nil
	}

	sql, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return false, fmt.Errorf("read migration file: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (filename) VALUES ($1)", file,
	); err != nil {
		return false, fmt.Errorf("record migration: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return true, nil
}

func init() {
	rootCmd.AddCommand(newMigrateCmd())
}
