// Package sessions provides study session storage with in-memory and
// PostgreSQL-backed implementations.
package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/dbx"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// PostgresRepository implements session storage over a dbx.DBTX. The learned
// and needs-review index sets are stored as JSONB arrays; the unique
// constraint on job_id enforces one session per job.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error) {
	learned, review, err := marshalSets(session)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO study_sessions (id, job_id, current_index, learned, needs_review, completed_at, study_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING started_at;
	`
	stored := *session
	err = r.db.QueryRowContext(ctx, query,
		session.ID, session.JobID, session.CurrentIndex, learned, review,
		session.CompletedAt, session.StudySeconds,
	).Scan(&stored.StartedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &stored, nil
}

func (r *PostgresRepository) GetByJob(ctx context.Context, jobID string) (*models.StudySession, error) {
	query := `
		SELECT id, job_id, current_index, learned, needs_review, started_at, completed_at, study_seconds
		FROM study_sessions WHERE job_id = $1;
	`
	var (
		session         models.StudySession
		learned, review []byte
	)
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(
		&session.ID, &session.JobID, &session.CurrentIndex, &learned, &review,
		&session.StartedAt, &session.CompletedAt, &session.StudySeconds,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(learned, &session.Learned); err != nil {
		return nil, fmt.Errorf("decode learned set: %w", err)
	}
	if err := json.Unmarshal(review, &session.NeedsReview); err != nil {
		return nil, fmt.Errorf("decode review set: %w", err)
	}
	return &session, nil
}

func (r *PostgresRepository) Update(ctx context.Context, session *models.StudySession) error {
	learned, review, err := marshalSets(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE study_sessions
		SET current_index = $2, learned = $3, needs_review = $4, completed_at = $5, study_seconds = $6
		WHERE job_id = $1;
	`
	res, err := r.db.ExecContext(ctx, query,
		session.JobID, session.CurrentIndex, learned, review, session.CompletedAt, session.StudySeconds)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func marshalSets(s *models.StudySession) ([]byte, []byte, error) {
	learned, err := json.Marshal(emptyIfNil(s.Learned))
	if err != nil {
		return nil, nil, fmt.Errorf("encode learned set: %w", err)
	}
	review, err := json.Marshal(emptyIfNil(s.NeedsReview))
	if err != nil {
		return nil, nil, fmt.Errorf("encode review set: %w", err)
	}
	return learned, review, nil
}

func emptyIfNil(set []int) []int {
	if set == nil {
		return []int{}
	}
	return set
}
