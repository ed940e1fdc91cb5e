package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the route history table. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS route_history (
		id                     UUID PRIMARY KEY,
		request_id             TEXT NOT NULL UNIQUE,
		user_id                TEXT,
		source_type            TEXT NOT NULL CHECK (source_type IN ('text', 'map')),
		input_text             TEXT,
		preference             TEXT NOT NULL,
		selected_route_type    TEXT,
		origin_name            TEXT,
		destination_name       TEXT,
		origin_lat             DOUBLE PRECISION,
		origin_lon             DOUBLE PRECISION,
		destination_lat        DOUBLE PRECISION,
		destination_lon        DOUBLE PRECISION,
		status                 TEXT NOT NULL CHECK (status IN ('success', 'failed')),
		error_code             TEXT,
		error_message          TEXT,
		unresolved_reason      TEXT,
		total_distance_meters  DOUBLE PRECISION,
		total_duration_seconds DOUBLE PRECISION,
		step_count             INTEGER,
		estimated_fare         DOUBLE PRECISION,
		walk_distance_meters   DOUBLE PRECISION,
		has_result             BOOLEAN NOT NULL DEFAULT FALSE,
		extraction_latency_ms  BIGINT,
		routing_latency_ms     BIGINT,
		total_latency_ms       BIGINT,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS route_history_user_created_idx
		ON route_history (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS route_history_destination_created_idx
		ON route_history (created_at DESC)
		WHERE destination_name IS NOT NULL AND destination_lat IS NOT NULL AND destination_lon IS NOT NULL`,
}

// EnsureSchema creates the tables the service needs if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
