package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"startup-dataroom/backend/internal/document/domain"
)

type documentRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Category       string    `db:"category"`
	Visibility     string    `db:"visibility"`
	Representative bool      `db:"representative"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// PostgresRepository is a document repository backed by Postgres via sqlx.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a document repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the document for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var row documentRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, category, visibility, representative, created_at, updated_at FROM documents WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

// ListByIDs returns the documents for the given ids, skipping unknown ids.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, category, visibility, representative, created_at, updated_at FROM documents WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []documentRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Document, len(rows))
	for i := range rows {
		out[i] = rowToDomain(&rows[i])
	}
	return out, nil
}

// Create persists the document. The document must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, category, visibility, representative, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Name, d.Category, string(d.Visibility), d.Representative, d.CreatedAt, d.UpdatedAt)
	return err
}

// UpdateVisibility sets the document's visibility.
func (r *PostgresRepository) UpdateVisibility(ctx context.Context, id string, v domain.Visibility) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET visibility = $2, updated_at = $3 WHERE id = $1`,
		id, string(v), time.Now().UTC())
	return err
}

func rowToDomain(row *documentRow) *domain.Document {
	if row == nil {
		return nil
	}
	return &domain.Document{
		ID:             row.ID,
		Name:           row.Name,
		Category:       row.Category,
		Visibility:     domain.Visibility(row.Visibility),
		Representative: row.Representative,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
