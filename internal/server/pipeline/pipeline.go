// Package pipeline implements the core video processing job: acquisition,
// audio extraction, transcription, transcript quality gating, flashcard
// generation, and persistence, advancing a shared progress/status record with
// failure isolation at each stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/media"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
	"github.com/dmitrijs2005/clipcards/internal/server/providers"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/flashcards"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/jobs"
)

// Progress checkpoints. Monotonic; a run only ever moves forward through them.
const (
	progressAccepted    = 10
	progressAcquired    = 30
	progressTranscribed = 60
	progressGenerated   = 80
	progressDone        = 100
)

// Config carries pipeline tuning: working directory for staged artifacts,
// language hint for transcription, per-stage timeouts, and the gate policy.
// A zero timeout disables the bound for that stage.
type Config struct {
	WorkDir           string
	Language          string
	AcquireTimeout    time.Duration
	TranscribeTimeout time.Duration
	GenerateTimeout   time.Duration
	Gate              GatePolicy
}

// Pipeline orchestrates one job's full run. All collaborators are injected
// once at construction; the pipeline holds no per-run state.
type Pipeline struct {
	cfg         Config
	jobs        jobs.Repository
	cards       flashcards.Repository
	fetcher     media.Fetcher
	extractor   media.Extractor
	transcriber providers.Transcriber
	generator   providers.Generator
	logger      logging.Logger
}

func New(
	cfg Config,
	jobRepo jobs.Repository,
	cardRepo flashcards.Repository,
	fetcher media.Fetcher,
	extractor media.Extractor,
	transcriber providers.Transcriber,
	generator providers.Generator,
	logger logging.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		jobs:        jobRepo,
		cards:       cardRepo,
		fetcher:     fetcher,
		extractor:   extractor,
		transcriber: transcriber,
		generator:   generator,
		logger:      logger.With("module", "pipeline"),
	}
}

// Process runs the whole pipeline for one job. Every stage fault is converted
// into a failed status write with a human-readable cause; nothing escapes to
// the caller. Staged artifacts are released on every exit path.
func (p *Pipeline) Process(ctx context.Context, job *models.Job) {
	log := p.logger.With("job_id", job.ID)

	// The processing transition is the very first write: once it lands, any
	// later fault has a legal edge to failed.
	if err := p.jobs.UpdateStatus(ctx, job.ID, models.StatusProcessing, progressAccepted); err != nil {
		log.Error(ctx, "cannot move job to processing", "error", err.Error())
		return
	}
	log.Info(ctx, "processing started", "source", string(job.Source.Kind))

	var workDir string
	defer func() { p.cleanup(ctx, log, job, workDir) }()

	workDir, err := os.MkdirTemp(p.cfg.WorkDir, "job-*")
	if err != nil {
		p.fail(ctx, log, job.ID, stageFailure("acquisition", fmt.Errorf("create work dir: %w", err)))
		return
	}

	videoPath, err := p.acquire(ctx, job, workDir)
	if err != nil {
		p.fail(ctx, log, job.ID, stageFailure("acquisition", err))
		return
	}
	p.advance(ctx, log, job.ID, progressAcquired)

	audioPath, err := p.extractor.ExtractAudio(ctx, videoPath, workDir)
	if err != nil {
		// No placeholder transcript: extraction problems are reported as
		// failures, never papered over with fabricated content.
		p.fail(ctx, log, job.ID, stageFailure("audio extraction", err))
		return
	}

	transcript, err := p.transcribe(ctx, audioPath)
	if err != nil {
		p.fail(ctx, log, job.ID, stageFailure("transcription", err))
		return
	}
	if err := p.jobs.SetTranscript(ctx, job.ID, transcript); err != nil {
		p.fail(ctx, log, job.ID, stageFailure("transcription", fmt.Errorf("store transcript: %w", err)))
		return
	}
	p.advance(ctx, log, job.ID, progressTranscribed)

	verdict := CheckTranscript(transcript, p.cfg.Gate)
	if !verdict.OK {
		p.fail(ctx, log, job.ID, stageFailure("quality gate", errors.New(verdict.Reason)))
		return
	}
	if verdict.Warning != "" {
		log.Warn(ctx, "quality gate warning", "warning", verdict.Warning)
	}

	cards, err := p.generate(ctx, transcript)
	if err != nil {
		p.fail(ctx, log, job.ID, stageFailure("generation", err))
		return
	}
	p.advance(ctx, log, job.ID, progressGenerated)

	if _, err := p.cards.AddBatch(ctx, job.ID, cards); err != nil {
		p.fail(ctx, log, job.ID, stageFailure("persistence", err))
		return
	}

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.StatusCompleted, progressDone); err != nil {
		log.Error(ctx, "cannot mark job completed", "error", err.Error())
		return
	}
	log.Info(ctx, "processing completed", "cards", len(cards))
}

// acquire returns a local path to the video. File-sourced jobs were staged by
// the upload boundary; URL-sourced jobs are downloaded into the work dir.
func (p *Pipeline) acquire(ctx context.Context, job *models.Job, workDir string) (string, error) {
	switch job.Source.Kind {
	case models.SourceFile:
		if _, err := os.Stat(job.Source.Path); err != nil {
			return "", fmt.Errorf("staged upload missing: %w", err)
		}
		return job.Source.Path, nil
	case models.SourceURL:
		ctx, cancel := withTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
		return p.fetcher.Fetch(ctx, job.Source.URL, workDir)
	default:
		return "", fmt.Errorf("unknown source kind %q", job.Source.Kind)
	}
}

func (p *Pipeline) transcribe(ctx context.Context, audioPath string) (string, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.TranscribeTimeout)
	defer cancel()
	return p.transcriber.Transcribe(ctx, audioPath, p.cfg.Language)
}

// generate calls the provider and applies the structural shape filter:
// malformed pairs are dropped rather than failing the batch; zero valid pairs
// is a hard failure.
func (p *Pipeline) generate(ctx context.Context, transcript string) ([]*models.Flashcard, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.GenerateTimeout)
	defer cancel()

	candidates, err := p.generator.GenerateCards(ctx, transcript)
	if err != nil {
		return nil, err
	}

	cards := filterCandidates(candidates)
	if len(cards) == 0 {
		return nil, errors.New("no valid flashcards in provider response")
	}
	return cards, nil
}

// filterCandidates keeps pairs with non-empty question and answer, in
// provider order.
func filterCandidates(candidates []providers.CardCandidate) []*models.Flashcard {
	cards := make([]*models.Flashcard, 0, len(candidates))
	for _, c := range candidates {
		question := strings.TrimSpace(c.Question)
		answer := strings.TrimSpace(c.Answer)
		if question == "" || answer == "" {
			continue
		}
		cards = append(cards, &models.Flashcard{Question: question, Answer: answer})
	}
	return cards
}

// advance bumps the progress checkpoint; a failure to record progress is
// logged but does not abort the run.
func (p *Pipeline) advance(ctx context.Context, log logging.Logger, jobID string, progress int) {
	if err := p.jobs.SetProgress(ctx, jobID, progress); err != nil {
		log.Warn(ctx, "cannot record progress", "progress", progress, "error", err.Error())
		return
	}
	log.Debug(ctx, "progress advanced", "progress", progress)
}

// fail converts a stage error into a terminal failed status with the stage
// error's text as the surfaced reason.
func (p *Pipeline) fail(ctx context.Context, log logging.Logger, jobID string, stageErr *StageError) {
	log.Error(ctx, "stage failed", "stage", stageErr.Stage, "error", stageErr.Error())
	if err := p.jobs.Fail(ctx, jobID, stageErr.Error()); err != nil {
		log.Error(ctx, "cannot record failure", "error", err.Error())
	}
}

// cleanup releases the run's staged artifacts: the per-run work dir and, for
// file-sourced jobs, the staged upload. Cleanup failure is logged, never
// escalated.
func (p *Pipeline) cleanup(ctx context.Context, log logging.Logger, job *models.Job, workDir string) {
	if workDir != "" {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn(ctx, "cannot remove work dir", "dir", workDir, "error", err.Error())
		}
	}
	if job.Source.Kind == models.SourceFile && job.Source.Path != "" {
		if err := os.Remove(job.Source.Path); err != nil && !os.IsNotExist(err) {
			log.Warn(ctx, "cannot remove staged upload", "path", job.Source.Path, "error", err.Error())
		}
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
