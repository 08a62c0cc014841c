package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/repomanager"
)

// SessionService tracks a linear study pass over a completed job's flashcards.
// Every mutation is one of an enumerated set of updates; there is no open
// patch path into session state.
type SessionService struct {
	repos  repomanager.Manager
	now    func() time.Time
	logger logging.Logger
}

func NewSessionService(repos repomanager.Manager, logger logging.Logger) *SessionService {
	return &SessionService{
		repos:  repos,
		now:    time.Now,
		logger: logger.With("module", "session_service"),
	}
}

// StartSession returns the job's study session, creating it on first call.
// Repeat calls return the same session with its state intact. The job must be
// completed and have flashcards.
func (s *SessionService) StartSession(ctx context.Context, ownerID, jobID string) (*models.StudySession, error) {
	if _, err := s.studyableJob(ctx, ownerID, jobID); err != nil {
		return nil, err
	}

	existing, err := s.repos.Sessions().GetByJob(ctx, jobID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	session, err := s.repos.Sessions().Create(ctx, &models.StudySession{
		ID:        uuid.NewString(),
		JobID:     jobID,
		StartedAt: s.now(),
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		// lost a create race, the winner's session is the session
		return s.repos.Sessions().GetByJob(ctx, jobID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "study session started", "job_id", jobID, "session_id", session.ID)
	return session, nil
}

// Advance moves to the next card. Advancing while on the last card marks the
// session completed and leaves the index clamped there, so any number of
// surplus advances is safe.
func (s *SessionService) Advance(ctx context.Context, ownerID, jobID string) (*models.StudySession, error) {
	return s.mutate(ctx, ownerID, jobID, func(session *models.StudySession, cardCount int) error {
		if session.CurrentIndex >= cardCount-1 {
			session.CurrentIndex = cardCount - 1
			if session.CompletedAt == nil {
				done := s.now()
				session.CompletedAt = &done
			}
			return nil
		}
		session.CurrentIndex++
		return nil
	})
}

// Retreat moves to the previous card, flooring at the first one.
func (s *SessionService) Retreat(ctx context.Context, ownerID, jobID string) (*models.StudySession, error) {
	return s.mutate(ctx, ownerID, jobID, func(session *models.StudySession, cardCount int) error {
		if session.CurrentIndex > 0 {
			session.CurrentIndex--
		}
		return nil
	})
}

// MarkLearned puts the card at index into the learned set and takes it out of
// needs-review. A card is never in both sets.
func (s *SessionService) MarkLearned(ctx context.Context, ownerID, jobID string, index int) (*models.StudySession, error) {
	return s.mutate(ctx, ownerID, jobID, func(session *models.StudySession, cardCount int) error {
		if index < 0 || index >= cardCount {
			return fmt.Errorf("%w: card index %d out of range [0, %d)", common.ErrorValidation, index, cardCount)
		}
		session.Learned = models.AddIndex(session.Learned, index)
		session.NeedsReview = models.RemoveIndex(session.NeedsReview, index)
		return nil
	})
}

// MarkReview puts the card at index into the needs-review set and takes it
// out of learned.
func (s *SessionService) MarkReview(ctx context.Context, ownerID, jobID string, index int) (*models.StudySession, error) {
	return s.mutate(ctx, ownerID, jobID, func(session *models.StudySession, cardCount int) error {
		if index < 0 || index >= cardCount {
			return fmt.Errorf("%w: card index %d out of range [0, %d)", common.ErrorValidation, index, cardCount)
		}
		session.NeedsReview = models.AddIndex(session.NeedsReview, index)
		session.Learned = models.RemoveIndex(session.Learned, index)
		return nil
	})
}

// Complete ends the session explicitly and adds the reported study time.
// Completing an already completed session only accumulates time.
func (s *SessionService) Complete(ctx context.Context, ownerID, jobID string, studySeconds int64) (*models.StudySession, error) {
	if studySeconds < 0 {
		return nil, fmt.Errorf("%w: study seconds must not be negative", common.ErrorValidation)
	}
	return s.mutate(ctx, ownerID, jobID, func(session *models.StudySession, cardCount int) error {
		if session.CompletedAt == nil {
			done := s.now()
			session.CompletedAt = &done
		}
		session.StudySeconds += studySeconds
		return nil
	})
}

// mutate loads the caller's session, applies one enumerated update, and
// stores the result.
func (s *SessionService) mutate(ctx context.Context, ownerID, jobID string, update func(session *models.StudySession, cardCount int) error) (*models.StudySession, error) {
	if _, err := s.studyableJob(ctx, ownerID, jobID); err != nil {
		return nil, err
	}

	session, err := s.repos.Sessions().GetByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	cardCount, err := s.repos.Flashcards().CountByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := update(session, cardCount); err != nil {
		return nil, err
	}
	if err := s.repos.Sessions().Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// studyableJob checks that the job exists, belongs to the caller, finished
// successfully, and produced at least one card.
func (s *SessionService) studyableJob(ctx context.Context, ownerID, jobID string) (*models.Job, error) {
	if ownerID == "" {
		return nil, common.ErrorNoUserID
	}
	job, err := s.repos.Jobs().Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	if job.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: job is %s, study requires a completed job", common.ErrorValidation, job.Status)
	}
	count, err := s.repos.Flashcards().CountByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: job has no flashcards", common.ErrorValidation)
	}
	return job, nil
}
