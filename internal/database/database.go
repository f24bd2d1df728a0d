package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"pos_backend/internal/config"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

// InitDB opens the connection pool, verifies it, and applies the schema when enabled.
func InitDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Info().Int("max_open_conns", cfg.MaxOpenConns).Msg("Successfully connected to the database")

	if cfg.ApplySchema {
		if err := applySchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// applySchema executes the embedded schema. Every statement is idempotent.
func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	log.Info().Msg("Database schema applied successfully")
	return nil
}
