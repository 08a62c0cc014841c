package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/clipcards/internal/server/migrations"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/flashcards"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/sessions"
)

// PostgresManager backs the repositories with PostgreSQL via pgx stdlib.
type PostgresManager struct {
	db         *sql.DB
	jobs       *jobs.PostgresRepository
	flashcards *flashcards.PostgresRepository
	sessions   *sessions.PostgresRepository
}

func NewPostgresManager(dsn string) (*PostgresManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresManager{
		db:         db,
		jobs:       jobs.NewPostgresRepository(db),
		flashcards: flashcards.NewPostgresRepository(db),
		sessions:   sessions.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

func (m *PostgresManager) Jobs() jobs.Repository             { return m.jobs }
func (m *PostgresManager) Flashcards() flashcards.Repository { return m.flashcards }
func (m *PostgresManager) Sessions() sessions.Repository     { return m.sessions }

func (m *PostgresManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func (m *PostgresManager) Close() error {
	return m.db.Close()
}
