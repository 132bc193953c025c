package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"startup-dataroom/backend/internal/sharesession/domain"
)

type sessionRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	DocumentIDs pq.StringArray `db:"document_ids"`
	Link        string         `db:"link"`
	Active      bool           `db:"active"`
	NDARequired bool           `db:"nda_required"`
	AccessCount int64          `db:"access_count"`
	ExpiresAt   sql.NullTime   `db:"expires_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

// PostgresRepository is a share session repository backed by Postgres via sqlx.
// Access count increments use a single UPDATE so they are atomic without
// application-level locking.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, name, document_ids, link, active, nda_required, access_count, expires_at, created_at
		 FROM share_sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToSession(&row), nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	var expiresAt sql.NullTime
	if s.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *s.ExpiresAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO share_sessions (id, name, document_ids, link, active, nda_required, access_count, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Name, pq.StringArray(s.DocumentIDs), s.Link, s.Active, s.NDARequired, s.AccessCount, expiresAt, s.CreatedAt)
	return err
}

// Revoke sets active = false. Idempotent; unknown ids are a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE share_sessions SET active = FALSE WHERE id = $1`, id)
	return err
}

// IncrementAccessCount atomically adds one to the session's access count.
func (r *PostgresRepository) IncrementAccessCount(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`UPDATE share_sessions SET access_count = access_count + 1 WHERE id = $1 RETURNING access_count`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func rowToSession(row *sessionRow) *domain.Session {
	if row == nil {
		return nil
	}
	s := &domain.Session{
		ID:          row.ID,
		Name:        row.Name,
		DocumentIDs: []string(row.DocumentIDs),
		Link:        row.Link,
		Active:      row.Active,
		NDARequired: row.NDARequired,
		AccessCount: row.AccessCount,
		CreatedAt:   row.CreatedAt,
	}
	if row.ExpiresAt.Valid {
		t := row.ExpiresAt.Time
		s.ExpiresAt = &t
	}
	return s
}
