package repomanager

import (
	"context"

	"github.com/dmitrijs2005/clipcards/internal/server/repositories/flashcards"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/sessions"
)

// MemoryManager is the default backend: concurrency-safe in-memory maps.
type MemoryManager struct {
	jobs       *jobs.MemoryRepository
	flashcards *flashcards.MemoryRepository
	sessions   *sessions.MemoryRepository
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		jobs:       jobs.NewMemoryRepository(),
		flashcards: flashcards.NewMemoryRepository(),
		sessions:   sessions.NewMemoryRepository(),
	}
}

func (m *MemoryManager) Jobs() jobs.Repository             { return m.jobs }
func (m *MemoryManager) Flashcards() flashcards.Repository { return m.flashcards }
func (m *MemoryManager) Sessions() sessions.Repository     { return m.sessions }

func (m *MemoryManager) RunMigrations(ctx context.Context) error { return nil }
func (m *MemoryManager) Close() error                            { return nil }
