// Package services implements the application services behind the HTTP
// boundary: video submission and status reads, and study session updates.
package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/filex"
	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/repomanager"
)

// Dispatcher starts a background pipeline run for a job. Implemented by
// pipeline.Runner; narrowed to an interface so service tests can observe
// dispatches without running a pipeline.
type Dispatcher interface {
	Dispatch(jobID string, fn func(ctx context.Context)) error
}

// Processor runs the pipeline for one job.
type Processor interface {
	Process(ctx context.Context, job *models.Job)
}

// JobStatusView is the client-facing projection of a job. The transcript
// itself is not exposed here, only its presence.
type JobStatusView struct {
	ID            string
	Status        models.JobStatus
	Progress      int
	HasTranscript bool
	FailureReason string
}

// VideoService accepts video submissions, creates jobs, and hands them to the
// pipeline runner. Submission returns as soon as the job record exists;
// processing faults are observable only through status reads.
type VideoService struct {
	repos       repomanager.Manager
	runner      Dispatcher
	processor   Processor
	uploadDir   string
	maxBytes    int64
	allowedMime map[string]struct{}
	logger      logging.Logger
}

func NewVideoService(
	repos repomanager.Manager,
	runner Dispatcher,
	processor Processor,
	uploadDir string,
	maxBytes int64,
	allowedMimeTypes []string,
	logger logging.Logger,
) *VideoService {
	allowed := make(map[string]struct{}, len(allowedMimeTypes))
	for _, m := range allowedMimeTypes {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &VideoService{
		repos:       repos,
		runner:      runner,
		processor:   processor,
		uploadDir:   uploadDir,
		maxBytes:    maxBytes,
		allowedMime: allowed,
		logger:      logger.With("module", "video_service"),
	}
}

// MaxUploadBytes reports the upload size cap so the HTTP boundary can bound
// request bodies before parsing them.
func (s *VideoService) MaxUploadBytes() int64 { return s.maxBytes }

// SubmitFile validates and stages an uploaded video, creates the job, and
// dispatches a pipeline run. The declared size is checked up front and the
// staged copy is re-checked, so a lying Content-Length cannot bypass the cap.
func (s *VideoService) SubmitFile(ctx context.Context, ownerID, filename, mimeType string, declaredSize int64, r io.Reader) (*models.Job, error) {
	if ownerID == "" {
		return nil, common.ErrorNoUserID
	}
	if _, ok := s.allowedMime[strings.ToLower(mimeType)]; !ok {
		return nil, fmt.Errorf("%w: unsupported media type %q", common.ErrorValidation, mimeType)
	}
	if declaredSize > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d byte limit", common.ErrorValidation, s.maxBytes)
	}

	staged, err := filex.StageFile(s.uploadDir, "upload-*"+safeExt(filename), io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	info, err := os.Stat(staged)
	if err != nil {
		_ = os.Remove(staged)
		return nil, fmt.Errorf("stat staged upload: %w", err)
	}
	if info.Size() > s.maxBytes {
		_ = os.Remove(staged)
		return nil, fmt.Errorf("%w: file exceeds %d byte limit", common.ErrorValidation, s.maxBytes)
	}

	job := &models.Job{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Source: models.Source{
			Kind:     models.SourceFile,
			Path:     staged,
			Size:     info.Size(),
			MimeType: strings.ToLower(mimeType),
		},
		Status: models.StatusUploading,
	}
	return s.submit(ctx, job, staged)
}

// SubmitURL validates a remote video location and creates a URL-sourced job.
// The URL must be absolute with an http, https or s3 scheme; reachability is
// not probed here, a dead link surfaces later as an acquisition failure.
func (s *VideoService) SubmitURL(ctx context.Context, ownerID, rawURL string) (*models.Job, error) {
	if ownerID == "" {
		return nil, common.ErrorNoUserID
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed url: %v", common.ErrorValidation, err)
	}
	switch {
	case !u.IsAbs():
		return nil, fmt.Errorf("%w: url must be absolute", common.ErrorValidation)
	case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "s3":
		return nil, fmt.Errorf("%w: unsupported url scheme %q", common.ErrorValidation, u.Scheme)
	case u.Host == "":
		return nil, fmt.Errorf("%w: url has no host", common.ErrorValidation)
	}

	job := &models.Job{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Source: models.Source{
			Kind: models.SourceURL,
			URL:  u.String(),
		},
		Status: models.StatusUploading,
	}
	return s.submit(ctx, job, "")
}

func (s *VideoService) submit(ctx context.Context, job *models.Job, staged string) (*models.Job, error) {
	created, err := s.repos.Jobs().Create(ctx, job)
	if err != nil {
		if staged != "" {
			_ = os.Remove(staged)
		}
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.runner.Dispatch(created.ID, func(runCtx context.Context) {
		s.processor.Process(runCtx, created)
	}); err != nil {
		// fresh uuid, so an active-run collision here means a programming
		// error rather than user input
		s.logger.Error(ctx, "cannot dispatch pipeline", "job_id", created.ID, "error", err.Error())
		if staged != "" {
			_ = os.Remove(staged)
		}
		s.abandonJob(ctx, created.ID, fmt.Sprintf("internal fault: %v", err))
		return nil, fmt.Errorf("dispatch pipeline: %w", err)
	}

	s.logger.Info(ctx, "job submitted", "job_id", created.ID, "source", string(created.Source.Kind))
	return created, nil
}

// abandonJob settles a job whose run never started. The record is promoted to
// processing and immediately failed so status readers see a terminal state
// rather than a job stuck in uploading.
func (s *VideoService) abandonJob(ctx context.Context, jobID, reason string) {
	if err := s.repos.Jobs().UpdateStatus(ctx, jobID, models.StatusProcessing, 0); err != nil {
		s.logger.Error(ctx, "cannot settle abandoned job", "job_id", jobID, "error", err.Error())
		return
	}
	if err := s.repos.Jobs().Fail(ctx, jobID, reason); err != nil {
		s.logger.Error(ctx, "cannot record failure", "job_id", jobID, "error", err.Error())
	}
}

// Status returns the client-facing projection of one of the caller's jobs.
// Jobs owned by someone else read as not found.
func (s *VideoService) Status(ctx context.Context, ownerID, jobID string) (*JobStatusView, error) {
	job, err := s.ownedJob(ctx, ownerID, jobID)
	if err != nil {
		return nil, err
	}
	return &JobStatusView{
		ID:            job.ID,
		Status:        job.Status,
		Progress:      job.Progress,
		HasTranscript: job.Transcript != "",
		FailureReason: job.FailureReason,
	}, nil
}

// ListFlashcards returns the job's flashcards in study order. Only completed
// jobs have any.
func (s *VideoService) ListFlashcards(ctx context.Context, ownerID, jobID string) ([]*models.Flashcard, error) {
	job, err := s.ownedJob(ctx, ownerID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: job is %s, flashcards exist only for completed jobs", common.ErrorValidation, job.Status)
	}
	return s.repos.Flashcards().ListByJob(ctx, jobID)
}

func (s *VideoService) ownedJob(ctx context.Context, ownerID, jobID string) (*models.Job, error) {
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
	return job, nil
}

// safeExt keeps the upload's extension for the staged filename and discards
// everything else of the client-supplied name.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
