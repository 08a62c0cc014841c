package flashcards

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

// MemoryRepository keeps flashcards in a per-job ordered slice.
type MemoryRepository struct {
	mu    sync.RWMutex
	byJob map[string][]*models.Flashcard
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byJob: make(map[string][]*models.Flashcard)}
}

func (r *MemoryRepository) AddBatch(ctx context.Context, jobID string, cards []*models.Flashcard) ([]*models.Flashcard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byJob[jobID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := time.Now().UTC()
	stored := make([]*models.Flashcard, 0, len(cards))
	for i, c := range cards {
		card := *c
		if card.ID == "" {
			card.ID = uuid.New().String()
		}
		card.JobID = jobID
		card.Position = i
		card.CreatedAt = now
		stored = append(stored, &card)
	}
	r.byJob[jobID] = stored

	return copyCards(stored), nil
}

func (r *MemoryRepository) ListByJob(ctx context.Context, jobID string) ([]*models.Flashcard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cards, ok := r.byJob[jobID]
	if !ok {
		return nil, nil
	}
	return copyCards(cards), nil
}

func (r *MemoryRepository) CountByJob(ctx context.Context, jobID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byJob[jobID]), nil
}

func copyCards(cards []*models.Flashcard) []*models.Flashcard {
	out := make([]*models.Flashcard, 0, len(cards))
	for _, c := range cards {
		card := *c
		out = append(out, &card)
	}
	return out
}
