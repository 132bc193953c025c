package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"startup-dataroom/backend/internal/nda/domain"
)

type requestRow struct {
	ID            string       `db:"id"`
	SessionID     string       `db:"session_id"`
	SignerName    string       `db:"signer_name"`
	SignerEmail   string       `db:"signer_email"`
	SignerCompany string       `db:"signer_company"`
	Status        string       `db:"status"`
	RequestedAt   time.Time    `db:"requested_at"`
	SignedAt      sql.NullTime `db:"signed_at"`
	Deadline      sql.NullTime `db:"deadline"`
}

const requestColumns = `id, session_id, signer_name, signer_email, signer_company, status, requested_at, signed_at, deadline`

// PostgresRepository is an NDA request repository backed by Postgres via sqlx.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an NDA request repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the request for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	var row requestRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+requestColumns+` FROM nda_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToRequest(&row), nil
}

// GetBySessionAndSigner returns the request for the (session, signer email)
// pair, or nil if none exists. Email comparison is case-insensitive.
func (r *PostgresRepository) GetBySessionAndSigner(ctx context.Context, sessionID, signerEmail string) (*domain.Request, error) {
	var row requestRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+requestColumns+` FROM nda_requests
		 WHERE session_id = $1 AND lower(signer_email) = lower($2)`, sessionID, signerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToRequest(&row), nil
}

// ListBySession returns all requests attached to the session.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Request, error) {
	var rows []requestRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+requestColumns+` FROM nda_requests WHERE session_id = $1 ORDER BY requested_at`, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Request, 0, len(rows))
	for i := range rows {
		out = append(out, rowToRequest(&rows[i]))
	}
	return out, nil
}

// Create persists the request. The request must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, req *domain.Request) error {
	var signedAt, deadline sql.NullTime
	if req.SignedAt != nil {
		signedAt = sql.NullTime{Time: *req.SignedAt, Valid: true}
	}
	if req.Deadline != nil {
		deadline = sql.NullTime{Time: *req.Deadline, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO nda_requests (id, session_id, signer_name, signer_email, signer_company, status, requested_at, signed_at, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.SessionID, req.Signer.Name, req.Signer.Email, req.Signer.Company,
		string(req.Status), req.RequestedAt, signedAt, deadline)
	return err
}

// UpdateStatus sets the request's status and signing timestamp. Unknown ids
// are a no-op.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, signedAt *time.Time) error {
	var at sql.NullTime
	if signedAt != nil {
		at = sql.NullTime{Time: *signedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE nda_requests SET status = $2, signed_at = COALESCE($3, signed_at) WHERE id = $1`,
		id, string(status), at)
	return err
}

func rowToRequest(row *requestRow) *domain.Request {
	if row == nil {
		return nil
	}
	req := &domain.Request{
		ID:        row.ID,
		SessionID: row.SessionID,
		Signer: domain.Signer{
			Name:    row.SignerName,
			Email:   row.SignerEmail,
			Company: row.SignerCompany,
		},
		Status:      domain.Status(row.Status),
		RequestedAt: row.RequestedAt,
	}
	if row.SignedAt.Valid {
		t := row.SignedAt.Time
		req.SignedAt = &t
	}
	if row.Deadline.Valid {
		t := row.Deadline.Time
		req.Deadline = &t
	}
	return req
}
