// Package flashcards provides flashcard storage with in-memory and
// PostgreSQL-backed implementations.
package flashcards

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/dbx"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// PostgresRepository implements flashcard storage. AddBatch runs inside a
// transaction so a job either gets its full card sequence or nothing.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) AddBatch(ctx context.Context, jobID string, cards []*models.Flashcard) ([]*models.Flashcard, error) {
	now := time.Now().UTC()
	stored := make([]*models.Flashcard, 0, len(cards))

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM flashcards WHERE job_id = $1`, jobID).Scan(&existing); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if existing > 0 {
			return common.ErrorAlreadyExists
		}

		query := `
			INSERT INTO flashcards (id, job_id, question, answer, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6);
		`
		for i, c := range cards {
			card := *c
			if card.ID == "" {
				card.ID = uuid.New().String()
			}
			card.JobID = jobID
			card.Position = i
			card.CreatedAt = now

			if _, err := tx.ExecContext(ctx, query,
				card.ID, card.JobID, card.Question, card.Answer, card.Position, card.CreatedAt); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
			stored = append(stored, &card)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *PostgresRepository) ListByJob(ctx context.Context, jobID string) ([]*models.Flashcard, error) {
	query := `
		SELECT id, job_id, question, answer, position, created_at
		FROM flashcards WHERE job_id = $1 ORDER BY position;
	`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to select flashcards: %w", err)
	}
	defer rows.Close()

	var result []*models.Flashcard
	for rows.Next() {
		var card models.Flashcard
		if err := rows.Scan(&card.ID, &card.JobID, &card.Question, &card.Answer, &card.Position, &card.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountByJob(ctx context.Context, jobID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards WHERE job_id = $1`, jobID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
