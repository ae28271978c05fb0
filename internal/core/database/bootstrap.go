package db

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"text/template"
	"time"
)

// schemaVersion is recorded in docscope_meta once the bootstrap script has run.
const schemaVersion = 1

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// EnsureBootstrapped creates the schema on first start and checks that an
// existing schema was built for the configured embedding dimension.
func EnsureBootstrapped(ctx context.Context, db *sql.DB, embedDim int) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'docscope_meta'
		)`).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}
	if !exists {
		return runBootstrap(ctxBoot, db, embedDim)
	}

	var storedDim int
	err = db.QueryRowContext(ctxBoot, `SELECT embed_dim FROM docscope_meta WHERE version = $1`, schemaVersion).Scan(&storedDim)
	if err == sql.ErrNoRows {
		return runBootstrap(ctxBoot, db, embedDim)
	}
	if err != nil {
		return fmt.Errorf("meta version check failed: %w", err)
	}
	if storedDim != embedDim {
		return fmt.Errorf("schema was created for %d-dimensional embeddings, EMBED_DIM is %d", storedDim, embedDim)
	}

	slog.Debug("database schema already bootstrapped", "version", schemaVersion, "embed_dim", storedDim)
	return nil
}

// renderBootstrap fills the embedding dimension into the bootstrap script.
func renderBootstrap(embedDim int) (string, error) {
	if embedDim <= 0 {
		return "", fmt.Errorf("embedding dimension must be positive, got %d", embedDim)
	}
	raw, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return "", fmt.Errorf("read initdb.sql: %w", err)
	}
	tmpl, err := template.New("initdb").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse initdb.sql: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Dim, Version int }{Dim: embedDim, Version: schemaVersion}); err != nil {
		return "", fmt.Errorf("render initdb.sql: %w", err)
	}
	return buf.String(), nil
}

func runBootstrap(ctx context.Context, db *sql.DB, embedDim int) error {
	script, err := renderBootstrap(embedDim)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	slog.Info("database schema bootstrapped", "version", schemaVersion, "embed_dim", embedDim)
	return nil
}
