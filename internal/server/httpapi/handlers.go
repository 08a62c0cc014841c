package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
)

type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type statusResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
	HasTranscript bool   `json:"has_transcript"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type flashcardResponse struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type sessionResponse struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	CurrentIndex int        `json:"current_index"`
	Learned      []int      `json:"learned"`
	NeedsReview  []int      `json:"needs_review"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	StudySeconds int64      `json:"study_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// multipartOverhead leaves room for form framing and the other parts around
// the video payload when bounding the request body.
const multipartOverhead = 1 << 20

func (s *Server) handleSubmitFile(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.videos.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	file, header, err := r.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("%w: file exceeds %d byte limit", common.ErrorValidation, maxBytes))
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: missing multipart field %q", common.ErrorValidation, "video"))
		return
	}
	defer file.Close()

	job, err := s.videos.SubmitFile(r.Context(), userID(r), header.Filename,
		header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, jobResponse{ID: job.ID, Status: string(job.Status)})
}

func (s *Server) handleSubmitURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed request body: %v", common.ErrorValidation, err))
		return
	}

	job, err := s.videos.SubmitURL(r.Context(), userID(r), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, jobResponse{ID: job.ID, Status: string(job.Status)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.videos.Status(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		ID:            view.ID,
		Status:        string(view.Status),
		Progress:      view.Progress,
		HasTranscript: view.HasTranscript,
		FailureReason: view.FailureReason,
	})
}

func (s *Server) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.videos.ListFlashcards(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]flashcardResponse, 0, len(cards))
	for _, c := range cards {
		resp = append(resp, flashcardResponse{
			ID:       c.ID,
			Position: c.Position,
			Question: c.Question,
			Answer:   c.Answer,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.StartSession(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.sessionUpdate(w, r, func(ownerID, jobID string) (*models.StudySession, error) {
		return s.sessions.Advance(r.Context(), ownerID, jobID)
	})
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	s.sessionUpdate(w, r, func(ownerID, jobID string) (*models.StudySession, error) {
		return s.sessions.Retreat(r.Context(), ownerID, jobID)
	})
}

func (s *Server) handleMarkLearned(w http.ResponseWriter, r *http.Request) {
	index, ok := s.decodeIndex(w, r)
	if !ok {
		return
	}
	s.sessionUpdate(w, r, func(ownerID, jobID string) (*models.StudySession, error) {
		return s.sessions.MarkLearned(r.Context(), ownerID, jobID, index)
	})
}

func (s *Server) handleMarkReview(w http.ResponseWriter, r *http.Request) {
	index, ok := s.decodeIndex(w, r)
	if !ok {
		return
	}
	s.sessionUpdate(w, r, func(ownerID, jobID string) (*models.StudySession, error) {
		return s.sessions.MarkReview(r.Context(), ownerID, jobID, index)
	})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudySeconds int64 `json:"study_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed request body: %v", common.ErrorValidation, err))
		return
	}
	s.sessionUpdate(w, r, func(ownerID, jobID string) (*models.StudySession, error) {
		return s.sessions.Complete(r.Context(), ownerID, jobID, req.StudySeconds)
	})
}

func (s *Server) sessionUpdate(w http.ResponseWriter, r *http.Request, update func(ownerID, jobID string) (*models.StudySession, error)) {
	session, err := update(userID(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *Server) decodeIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed request body: %v", common.ErrorValidation, err))
		return 0, false
	}
	return req.Index, true
}

func toSessionResponse(session *models.StudySession) sessionResponse {
	learned := session.Learned
	if learned == nil {
		learned = []int{}
	}
	review := session.NeedsReview
	if review == nil {
		review = []int{}
	}
	return sessionResponse{
		ID:           session.ID,
		JobID:        session.JobID,
		CurrentIndex: session.CurrentIndex,
		Learned:      learned,
		NeedsReview:  review,
		StartedAt:    session.StartedAt,
		CompletedAt:  session.CompletedAt,
		StudySeconds: session.StudySeconds,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps service errors to HTTP statuses. Everything the submission
// boundary rejects synchronously lands in the 4xx range.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, common.ErrorNoUserID):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, common.ErrorValidation):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
