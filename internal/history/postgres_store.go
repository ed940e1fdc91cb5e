package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL history store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const recordColumns = `
	id, request_id, user_id,
	source_type, input_text, preference, selected_route_type,
	origin_name, destination_name, origin_lat, origin_lon, destination_lat, destination_lon,
	status, error_code, error_message, unresolved_reason,
	total_distance_meters, total_duration_seconds, step_count, estimated_fare, walk_distance_meters, has_result,
	extraction_latency_ms, routing_latency_ms, total_latency_ms,
	created_at`

// Create inserts a record. Duplicate request ids are ignored.
func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	prepare(rec)

	query := `
		INSERT INTO route_history (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		ON CONFLICT (request_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.RequestID,
		nullString(rec.UserID),
		string(rec.SourceType),
		nullString(rec.InputText),
		rec.Preference,
		nullString(rec.SelectedRouteType),
		nullString(rec.OriginName),
		nullString(rec.DestinationName),
		rec.OriginLat,
		rec.OriginLon,
		rec.DestinationLat,
		rec.DestinationLon,
		string(rec.Status),
		nullString(rec.ErrorCode),
		nullString(rec.ErrorMessage),
		nullString(rec.UnresolvedReason),
		rec.TotalDistanceMeters,
		rec.TotalDurationSeconds,
		rec.StepCount,
		rec.EstimatedFare,
		rec.WalkDistanceMeters,
		rec.HasResult,
		rec.ExtractionLatencyMS,
		rec.RoutingLatencyMS,
		rec.TotalLatencyMS,
		rec.CreatedAt,
	)
	return err
}

// RecordSelection sets the selected route type on the caller's record.
func (s *PostgresStore) RecordSelection(ctx context.Context, requestID, userID, routeType string) error {
	query := `
		UPDATE route_history
		SET selected_route_type = $3
		WHERE request_id = $1 AND user_id = $2
	`

	tag, err := s.pool.Exec(ctx, query, requestID, userID, routeType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// QueryRecentDestinations returns recent named destinations, newest first.
func (s *PostgresStore) QueryRecentDestinations(ctx context.Context, limit int) ([]Destination, error) {
	query := `
		SELECT destination_name, destination_lat, destination_lon
		FROM route_history
		WHERE destination_name IS NOT NULL AND destination_name <> ''
			AND destination_lat IS NOT NULL AND destination_lon IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var destinations []Destination
	for rows.Next() {
		var d Destination
		if err := rows.Scan(&d.Name, &d.Lat, &d.Lon); err != nil {
			return nil, err
		}
		destinations = append(destinations, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return destinations, nil
}

// ListByUser returns the user's records, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM route_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec                                       Record
		userID, inputText, selected               *string
		originName, destinationName               *string
		errorCode, errorMessage, unresolvedReason *string
		sourceType, status                        string
	)

	err := row.Scan(
		&rec.ID,
		&rec.RequestID,
		&userID,
		&sourceType,
		&inputText,
		&rec.Preference,
		&selected,
		&originName,
		&destinationName,
		&rec.OriginLat,
		&rec.OriginLon,
		&rec.DestinationLat,
		&rec.DestinationLon,
		&status,
		&errorCode,
		&errorMessage,
		&unresolvedReason,
		&rec.TotalDistanceMeters,
		&rec.TotalDurationSeconds,
		&rec.StepCount,
		&rec.EstimatedFare,
		&rec.WalkDistanceMeters,
		&rec.HasResult,
		&rec.ExtractionLatencyMS,
		&rec.RoutingLatencyMS,
		&rec.TotalLatencyMS,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	rec.SourceType = Source(sourceType)
	rec.Status = Status(status)
	rec.UserID = deref(userID)
	rec.InputText = deref(inputText)
	rec.SelectedRouteType = deref(selected)
	rec.OriginName = deref(originName)
	rec.DestinationName = deref(destinationName)
	rec.ErrorCode = deref(errorCode)
	rec.ErrorMessage = deref(errorMessage)
	rec.UnresolvedReason = deref(unresolvedReason)

	return &rec, nil
}

// prepare fills the generated fields of a new record.
func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
