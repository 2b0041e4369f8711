// Package migrations embeds the scan history schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed mysql/*.sql postgres/*.sql
var embedded embed.FS

// Up applies pending migrations for dialect ("mysql" or "postgres").
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	switch dialect {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, dialect); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
