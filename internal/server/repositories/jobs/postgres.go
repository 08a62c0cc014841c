// Package jobs provides job record storage with in-memory and
// PostgreSQL-backed implementations.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/dbx"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// PostgresRepository implements job storage over a dbx.DBTX (*sql.DB or *sql.Tx).
// State machine guards are expressed as WHERE clauses so concurrent writers
// cannot produce an illegal transition.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	query := `
		INSERT INTO jobs (id, owner_id, source_kind, source_path, source_size, source_mime, source_url, status, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at;
	`
	stored := *job
	err := r.db.QueryRowContext(ctx, query,
		job.ID, job.OwnerID, job.Source.Kind, job.Source.Path, job.Source.Size,
		job.Source.MimeType, job.Source.URL, job.Status, job.Progress,
	).Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &stored, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	query := `
		SELECT id, owner_id, source_kind, source_path, source_size, source_mime, source_url,
		       status, progress, transcript, failure_reason, created_at, updated_at
		FROM jobs WHERE id = $1;
	`
	var job models.Job
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.OwnerID, &job.Source.Kind, &job.Source.Path, &job.Source.Size,
		&job.Source.MimeType, &job.Source.URL, &job.Status, &job.Progress,
		&job.Transcript, &job.FailureReason, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &job, nil
}

// fromStatus returns the only status a job may be in before moving to "to".
func fromStatus(to models.JobStatus) (models.JobStatus, error) {
	switch to {
	case models.StatusProcessing:
		return models.StatusUploading, nil
	case models.StatusCompleted, models.StatusFailed:
		return models.StatusProcessing, nil
	default:
		return "", common.ErrorInvalidTransition
	}
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.JobStatus, progress int) error {
	from, err := fromStatus(status)
	if err != nil {
		return err
	}

	query := `
		UPDATE jobs SET status = $2, progress = $3, updated_at = now()
		WHERE id = $1 AND status = $4;
	`
	res, err := r.db.ExecContext(ctx, query, id, status, progress, from)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.checkAffected(ctx, res, id, common.ErrorInvalidTransition)
}

func (r *PostgresRepository) SetProgress(ctx context.Context, id string, progress int) error {
	query := `
		UPDATE jobs SET progress = $2, updated_at = now()
		WHERE id = $1 AND status = 'processing' AND progress <= $2;
	`
	res, err := r.db.ExecContext(ctx, query, id, progress)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.checkAffected(ctx, res, id, common.ErrorProgressRegression)
}

func (r *PostgresRepository) SetTranscript(ctx context.Context, id string, text string) error {
	query := `
		UPDATE jobs SET transcript = $2, updated_at = now()
		WHERE id = $1 AND transcript = '';
	`
	res, err := r.db.ExecContext(ctx, query, id, text)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.checkAffected(ctx, res, id, common.ErrorTranscriptAlreadySet)
}

func (r *PostgresRepository) Fail(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE jobs SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'processing';
	`
	res, err := r.db.ExecContext(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.checkAffected(ctx, res, id, common.ErrorInvalidTransition)
}

// checkAffected maps a zero-rows-affected update to either not-found or the
// given guard violation, depending on whether the job exists at all.
func (r *PostgresRepository) checkAffected(ctx context.Context, res sql.Result, id string, guardErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		if _, err := r.Get(ctx, id); errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return guardErr
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
