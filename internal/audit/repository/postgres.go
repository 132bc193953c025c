package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"startup-dataroom/backend/internal/audit/domain"
)

type entryRow struct {
	Timestamp       time.Time      `db:"ts"`
	Action          string         `db:"action"`
	DocumentID      string         `db:"document_id"`
	SessionID       sql.NullString `db:"session_id"`
	Actor           string         `db:"actor"`
	Success         bool           `db:"success"`
	DurationSeconds sql.NullInt64  `db:"duration_seconds"`
	DeviceType      sql.NullString `db:"device_type"`
}

// PostgresRepository is an access log backed by Postgres via sqlx. Insertion
// order is preserved by a sequence column, so List is ORDER BY seq DESC.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an access log repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append stores one entry at the tail of the log.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.Entry) error {
	var sessionID sql.NullString
	if e.SessionID != "" {
		sessionID = sql.NullString{String: e.SessionID, Valid: true}
	}
	var duration sql.NullInt64
	if e.DurationSeconds != nil {
		duration = sql.NullInt64{Int64: int64(*e.DurationSeconds), Valid: true}
	}
	var device sql.NullString
	if e.DeviceType != nil {
		device = sql.NullString{String: *e.DeviceType, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_log (ts, action, document_id, session_id, actor, success, duration_seconds, device_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.Timestamp, string(e.Action), e.DocumentID, sessionID, e.Actor, e.Success, duration, device)
	return err
}

// List returns all entries newest-first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	var rows []entryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT ts, action, document_id, session_id, actor, success, duration_seconds, device_type
		 FROM access_log ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Entry, len(rows))
	for i := range rows {
		out[i] = rowToEntry(&rows[i])
	}
	return out, nil
}

// Clear drops all entries.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM access_log`)
	return err
}

func rowToEntry(row *entryRow) *domain.Entry {
	e := &domain.Entry{
		Timestamp:  row.Timestamp,
		Action:     domain.Action(row.Action),
		DocumentID: row.DocumentID,
		Actor:      row.Actor,
		Success:    row.Success,
	}
	if row.SessionID.Valid {
		e.SessionID = row.SessionID.String
	}
	if row.DurationSeconds.Valid {
		d := int(row.DurationSeconds.Int64)
		e.DurationSeconds = &d
	}
	if row.DeviceType.Valid {
		dt := row.DeviceType.String
		e.DeviceType = &dt
	}
	return e
}
