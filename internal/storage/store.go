// Package storage provides the PostgreSQL-backed collaborators of the
// ingestion pipeline: attachment metadata with on-disk payloads, column
// configurations, and the segment store with its uniqueness constraint.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// schema is applied on startup. Statements are idempotent so repeated boots
// are safe. The UNIQUE constraints here are load-bearing: (project_id,
// file_id) gives configurations their single-slot upsert semantics, and
// (project_id, segment_key) is the final dedup guarantee for concurrent
// parses.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id            UUID PRIMARY KEY,
		project_id    UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		original_name TEXT NOT NULL,
		mime_type     TEXT NOT NULL,
		size_bytes    BIGINT NOT NULL,
		disk_path     TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS column_configurations (
		id          UUID PRIMARY KEY,
		project_id  UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		file_id     UUID NOT NULL REFERENCES attachments(id) ON DELETE CASCADE,
		name        TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		sheet_name  TEXT NOT NULL DEFAULT '',
		is_default  BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (project_id, file_id)
	)`,
	`CREATE TABLE IF NOT EXISTS column_mappings (
		id               UUID PRIMARY KEY,
		configuration_id UUID NOT NULL REFERENCES column_configurations(id) ON DELETE CASCADE,
		position         INT NOT NULL,
		column_index     INT NOT NULL,
		column_name      TEXT NOT NULL,
		role             TEXT NOT NULL,
		language_code    TEXT NOT NULL DEFAULT '',
		is_required      BOOLEAN NOT NULL DEFAULT false,
		custom_settings  JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS segments (
		id          UUID PRIMARY KEY,
		project_id  UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		segment_key TEXT NOT NULL,
		source_text TEXT NOT NULL,
		target_text TEXT,
		context     TEXT,
		notes       TEXT,
		status      TEXT NOT NULL DEFAULT 'new',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (project_id, segment_key)
	)`,
}

// Bootstrap creates the schema if it does not exist yet.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
