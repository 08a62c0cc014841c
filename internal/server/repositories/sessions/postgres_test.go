package sessions

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgres_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO study_sessions")).
		WithArgs("s1", "j1", 0, []byte("[]"), []byte("[]"), nil, int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"started_at"}).AddRow(now))

	created, err := repo.Create(context.Background(), &models.StudySession{ID: "s1", JobID: "j1"})
	require.NoError(t, err)
	require.Equal(t, now, created.StartedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Create_DuplicateJobIsAlreadyExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO study_sessions")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.StudySession{ID: "s2", JobID: "j1"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByJob_DecodesIndexSets(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	cols := []string{"id", "job_id", "current_index", "learned", "needs_review", "started_at", "completed_at", "study_seconds"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, job_id, current_index")).
		WithArgs("j1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "j1", 3, []byte("[0,2]"), []byte("[1]"), now, nil, int64(45)))

	session, err := repo.GetByJob(context.Background(), "j1")
	require.NoError(t, err)
	require.Equal(t, 3, session.CurrentIndex)
	require.Equal(t, []int{0, 2}, session.Learned)
	require.Equal(t, []int{1}, session.NeedsReview)
	require.Nil(t, session.CompletedAt)
	require.Equal(t, int64(45), session.StudySeconds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByJob_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, job_id, current_index")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByJob(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update(t *testing.T) {
	repo, mock := newMockRepo(t)
	done := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE study_sessions")).
		WithArgs("j1", 2, []byte("[0]"), []byte("[]"), &done, int64(120)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.StudySession{
		JobID:        "j1",
		CurrentIndex: 2,
		Learned:      []int{0},
		CompletedAt:  &done,
		StudySeconds: 120,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update_MissingSessionIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE study_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.StudySession{JobID: "missing"})
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
