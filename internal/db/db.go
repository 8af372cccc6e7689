package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DanielFallaP/airport-weather/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the airport catalog at cfg.SeedSQLitePath. When logger has debug
// enabled every statement is logged through a tracing connector.
func Open(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.SeedSQLitePath == "" {
		return nil, errors.New("db open: SEED_SQLITE_PATH not set")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn, err := buildDSN(cfg.SeedSQLitePath)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.Driver == "sqlite3" && logger.Enabled(context.Background(), slog.LevelDebug) {
		db = sql.OpenDB(NewTracingConnector(dsn, logger))
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(path string) (string, error) {
	// - foreign_keys=on: enforce FK constraints
	// - busy_timeout: the loader and the service may share the file
	// - journal_mode=WAL: readers do not block the loader
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
