// Package repomanager aggregates the per-entity repositories behind a single
// manager interface with interchangeable in-memory and PostgreSQL backends.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/clipcards/internal/server/repositories/flashcards"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/sessions"
)

// Manager gives access to all repositories of one storage backend.
type Manager interface {
	Jobs() jobs.Repository
	Flashcards() flashcards.Repository
	Sessions() sessions.Repository

	RunMigrations(ctx context.Context) error
	Close() error
}
