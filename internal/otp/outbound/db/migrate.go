package db

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/0001_otp_tokens.sql
var schemaSQL string

// Migrate applies the token schema. Every statement is idempotent, so running
// it on boot against an already-migrated database is a no-op.
func Migrate(ctx context.Context, conn *pgxpool.Pool) error {
	_, err := conn.Exec(ctx, schemaSQL)
	return err
}
