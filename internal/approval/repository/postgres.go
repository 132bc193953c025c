package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"startup-dataroom/backend/internal/approval/domain"
)

type workflowRow struct {
	ID                string          `db:"id"`
	ScenarioID        string          `db:"scenario_id"`
	SubmitterID       string          `db:"submitter_id"`
	Status            string          `db:"status"`
	CurrentStageIndex int             `db:"current_stage_index"`
	Stages            json.RawMessage `db:"stages"`
	History           json.RawMessage `db:"history"`
	CreatedAt         time.Time       `db:"created_at"`
	SubmittedAt       sql.NullTime    `db:"submitted_at"`
}

const workflowColumns = `id, scenario_id, submitter_id, status, current_stage_index, stages, history, created_at, submitted_at`

// PostgresRepository is a workflow repository backed by Postgres via sqlx.
// Stages and history are stored as JSONB documents since the workflow owns
// them exclusively and they are always read and written as a whole.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a workflow repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the workflow for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Workflow, error) {
	var row workflowRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+workflowColumns+` FROM approval_workflows WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToWorkflow(&row)
}

// LatestByScenario returns the most recently created workflow for the
// scenario, or nil when none exists.
func (r *PostgresRepository) LatestByScenario(ctx context.Context, scenarioID string) (*domain.Workflow, error) {
	var row workflowRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+workflowColumns+` FROM approval_workflows
		 WHERE scenario_id = $1 ORDER BY created_at DESC LIMIT 1`, scenarioID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToWorkflow(&row)
}

// Create persists the workflow. The workflow must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, w *domain.Workflow) error {
	stages, history, err := marshalOwned(w)
	if err != nil {
		return err
	}
	var submittedAt sql.NullTime
	if w.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *w.SubmittedAt, Valid: true}
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO approval_workflows (id, scenario_id, submitter_id, status, current_stage_index, stages, history, created_at, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.ScenarioID, w.SubmitterID, string(w.Status), w.CurrentStageIndex,
		stages, history, w.CreatedAt, submittedAt)
	return err
}

// Update persists the workflow's mutable state. Unknown ids are a no-op.
func (r *PostgresRepository) Update(ctx context.Context, w *domain.Workflow) error {
	stages, history, err := marshalOwned(w)
	if err != nil {
		return err
	}
	var submittedAt sql.NullTime
	if w.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *w.SubmittedAt, Valid: true}
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE approval_workflows
		 SET status = $2, current_stage_index = $3, stages = $4, history = $5, submitted_at = $6
		 WHERE id = $1`,
		w.ID, string(w.Status), w.CurrentStageIndex, stages, history, submittedAt)
	return err
}

func marshalOwned(w *domain.Workflow) (stages, history []byte, err error) {
	stages, err = json.Marshal(w.Stages)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal stages: %w", err)
	}
	history = []byte("[]")
	if w.History != nil {
		history, err = json.Marshal(w.History)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal history: %w", err)
		}
	}
	return stages, history, nil
}

func rowToWorkflow(row *workflowRow) (*domain.Workflow, error) {
	w := &domain.Workflow{
		ID:                row.ID,
		ScenarioID:        row.ScenarioID,
		SubmitterID:       row.SubmitterID,
		Status:            domain.WorkflowStatus(row.Status),
		CurrentStageIndex: row.CurrentStageIndex,
		CreatedAt:         row.CreatedAt,
	}
	if err := json.Unmarshal(row.Stages, &w.Stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages: %w", err)
	}
	if len(row.History) > 0 {
		if err := json.Unmarshal(row.History, &w.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
	}
	if row.SubmittedAt.Valid {
		t := row.SubmittedAt.Time
		w.SubmittedAt = &t
	}
	return w, nil
}
