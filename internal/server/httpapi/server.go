// Package httpapi exposes the clipcards JSON API over HTTP: video
// submission, job status polling, flashcard listing, and study session
// operations. Callers are identified by the trusted X-User-ID header set by
// the fronting proxy.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/services"
)

type Server struct {
	address  string
	videos   *services.VideoService
	sessions *services.SessionService
	logger   logging.Logger
}

func NewServer(address string, videos *services.VideoService, sessions *services.SessionService, logger logging.Logger) *Server {
	return &Server{
		address:  address,
		videos:   videos,
		sessions: sessions,
		logger:   logger.With("module", "http_server"),
	}
}

// Handler builds the route table. Split out of Run so tests can drive the
// full stack through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/videos", s.handleSubmitFile)
	mux.HandleFunc("POST /api/videos/url", s.handleSubmitURL)
	mux.HandleFunc("GET /api/videos/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /api/videos/{id}/flashcards", s.handleListFlashcards)

	mux.HandleFunc("POST /api/videos/{id}/session", s.handleStartSession)
	mux.HandleFunc("POST /api/videos/{id}/session/advance", s.handleAdvance)
	mux.HandleFunc("POST /api/videos/{id}/session/retreat", s.handleRetreat)
	mux.HandleFunc("POST /api/videos/{id}/session/learned", s.handleMarkLearned)
	mux.HandleFunc("POST /api/videos/{id}/session/review", s.handleMarkReview)
	mux.HandleFunc("POST /api/videos/{id}/session/complete", s.handleComplete)

	return s.identity(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
