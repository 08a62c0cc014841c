package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/media"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
	"github.com/dmitrijs2005/clipcards/internal/server/providers"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/flashcards"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/jobs"
)

// --- fakes ---

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(destDir, "downloaded.mp4")
	return path, os.WriteFile(path, []byte("video"), 0o600)
}

type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) ExtractAudio(ctx context.Context, inputPath, destDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(destDir, "audio.wav")
	return path, os.WriteFile(path, []byte("wav"), 0o600)
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	return f.text, f.err
}

type fakeGenerator struct {
	cards []providers.CardCandidate
	err   error
}

func (f *fakeGenerator) GenerateCards(ctx context.Context, transcript string) ([]providers.CardCandidate, error) {
	return f.cards, f.err
}

// --- harness ---

type harness struct {
	jobs  *jobs.MemoryRepository
	cards *flashcards.MemoryRepository
	pipe  *Pipeline
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func newHarness(t *testing.T, fetcher media.Fetcher, extractor media.Extractor,
	transcriber providers.Transcriber, generator providers.Generator) *harness {
	t.Helper()

	jobRepo := jobs.NewMemoryRepository()
	cardRepo := flashcards.NewMemoryRepository()
	cfg := Config{
		WorkDir: t.TempDir(),
		Gate:    DefaultGatePolicy(),
	}
	return &harness{
		jobs:  jobRepo,
		cards: cardRepo,
		pipe:  New(cfg, jobRepo, cardRepo, fetcher, extractor, transcriber, generator, testLogger()),
	}
}

func (h *harness) createFileJob(t *testing.T, dir string) *models.Job {
	t.Helper()
	staged := filepath.Join(dir, "upload.mp4")
	require.NoError(t, os.WriteFile(staged, []byte("video"), 0o600))

	job, err := h.jobs.Create(context.Background(), &models.Job{
		ID:      "j1",
		OwnerID: "u1",
		Source:  models.Source{Kind: models.SourceFile, Path: staged, Size: 5, MimeType: "video/mp4"},
		Status:  models.StatusUploading,
	})
	require.NoError(t, err)
	return job
}

func (h *harness) createURLJob(t *testing.T, rawURL string) *models.Job {
	t.Helper()
	job, err := h.jobs.Create(context.Background(), &models.Job{
		ID:      "j1",
		OwnerID: "u1",
		Source:  models.Source{Kind: models.SourceURL, URL: rawURL},
		Status:  models.StatusUploading,
	})
	require.NoError(t, err)
	return job
}

func nCards(n int) []providers.CardCandidate {
	cards := make([]providers.CardCandidate, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, providers.CardCandidate{
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		})
	}
	return cards
}

// --- scenarios ---

func TestProcess_FileJobEndToEnd(t *testing.T) {
	transcript := substantive(500)
	h := newHarness(t, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{text: transcript}, &fakeGenerator{cards: nCards(10)})

	job := h.createFileJob(t, t.TempDir())
	h.pipe.Process(context.Background(), job)

	got, err := h.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, got.Status)
	require.Equal(t, 100, got.Progress)
	require.Equal(t, transcript, got.Transcript)
	require.Empty(t, got.FailureReason)

	cards, err := h.cards.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, cards, 10)
	for i, c := range cards {
		require.Equal(t, i, c.Position)
	}

	// staged upload must be released
	_, err = os.Stat(job.Source.Path)
	require.True(t, os.IsNotExist(err))
}

func TestProcess_UnsupportedURLSourceFails(t *testing.T) {
	h := newHarness(t, media.NewSourceFetcher(nil, nil), &fakeExtractor{},
		&fakeTranscriber{text: substantive(500)}, &fakeGenerator{cards: nCards(9)})

	job := h.createURLJob(t, "ftp://example.com/video.mp4")
	h.pipe.Process(context.Background(), job)

	got, err := h.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, got.Status)
	require.Contains(t, got.FailureReason, "acquisition")
	require.Contains(t, got.FailureReason, "unsupported source")

	cards, err := h.cards.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Empty(t, cards, "failed jobs must not have flashcards")
}

func TestProcess_ShapeFilterDropsMalformedPairs(t *testing.T) {
	cards := nCards(9)
	cards[4].Answer = "   " // malformed: blank answer
	h := newHarness(t, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{text: substantive(500)}, &fakeGenerator{cards: cards})

	job := h.createFileJob(t, t.TempDir())
	h.pipe.Process(context.Background(), job)

	persisted, err := h.cards.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 8, "one malformed pair of nine must be dropped")
	for i, c := range persisted {
		require.Equal(t, i, c.Position, "ordinals must stay gapless after filtering")
	}
}

func TestProcess_ZeroValidCardsIsHardFailure(t *testing.T) {
	h := newHarness(t, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{text: substantive(500)},
		&fakeGenerator{cards: []providers.CardCandidate{{Question: "", Answer: ""}}})

	job := h.createFileJob(t, t.TempDir())
	h.pipe.Process(context.Background(), job)

	got, err := h.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, got.Status)
	require.Contains(t, got.FailureReason, "generation")
	require.Contains(t, got.FailureReason, "no valid flashcards")
}

func TestProcess_QualityGateRejectsErrorTranscript(t *testing.T) {
	text := substantive(100) + " quota exceeded, please upgrade"
	h := newHarness(t, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{text: text}, &fakeGenerator{cards: nCards(10)})

	job := h.createFileJob(t, t.TempDir())
	h.pipe.Process(context.Background(), job)

	got, err := h.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, got.Status)
	require.Contains(t, got.FailureReason, "quality gate")
	// the transcript itself is still recorded verbatim
	require.Equal(t, text, got.Transcript)
}

func TestProcess_TranscriptionProviderFailureIsDistinct(t *testing.T) {
	h := newHarness(t, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{err: fmt.Errorf("%w: status 429", providers.ErrRateLimit)},
		&fakeGenerator{cards: nCards(10)})

	job := h.createFileJob(t, t.TempDir())
	h.pipe.Process(context.Background(), job)

	got, err := h.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, got.Status)
	require.Contains(t, got.FailureReason, "transcription")
	require.Contains(t, got.FailureReason, "rate limit")
}

func TestProcess_ExtractionFailureIsHonest(t *testing.T) {
	h := newHarness(t, &fakeFetcher{}, &fakeExtractor{err: fmt.Errorf("ffmpeg audio conversion failed")},
		&fakeTranscriber{text: substantive(500)}, &fakeGenerator{cards: nCards(10)})

	job := h.createFileJob(t, t.TempDir())
	h.pipe.Process(context.Background(), job)

	got, err := h.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, got.Status)
	require.Contains(t, got.FailureReason, "audio extraction")
	require.Empty(t, got.Transcript, "no fabricated placeholder transcript")
}

func TestProcess_URLJobDownloadsAndCompletes(t *testing.T) {
	h := newHarness(t, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{text: substantive(500)}, &fakeGenerator{cards: nCards(8)})

	job := h.createURLJob(t, "https://example.com/lecture.mp4")
	h.pipe.Process(context.Background(), job)

	got, err := h.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, got.Status)
	require.Equal(t, 100, got.Progress)
}

func TestProcess_WorkDirIsReleased(t *testing.T) {
	workRoot := t.TempDir()
	jobRepo := jobs.NewMemoryRepository()
	cardRepo := flashcards.NewMemoryRepository()
	pipe := New(Config{WorkDir: workRoot, Gate: DefaultGatePolicy()},
		jobRepo, cardRepo, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{text: substantive(500)}, &fakeGenerator{cards: nCards(9)}, testLogger())

	job, err := jobRepo.Create(context.Background(), &models.Job{
		ID:     "j1",
		Source: models.Source{Kind: models.SourceURL, URL: "https://example.com/v.mp4"},
		Status: models.StatusUploading,
	})
	require.NoError(t, err)

	pipe.Process(context.Background(), job)

	entries, err := os.ReadDir(workRoot)
	require.NoError(t, err)
	require.Empty(t, entries, "per-run work dir must be removed")
}

func TestProcess_WorkDirFaultConvertsToFailedStatus(t *testing.T) {
	jobRepo := jobs.NewMemoryRepository()
	cardRepo := flashcards.NewMemoryRepository()
	// a work root that does not exist makes the run fault before any stage
	missing := filepath.Join(t.TempDir(), "missing", "nested")
	pipe := New(Config{WorkDir: missing, Gate: DefaultGatePolicy()},
		jobRepo, cardRepo, &fakeFetcher{}, &fakeExtractor{},
		&fakeTranscriber{text: substantive(500)}, &fakeGenerator{cards: nCards(9)}, testLogger())

	staged := filepath.Join(t.TempDir(), "upload.mp4")
	require.NoError(t, os.WriteFile(staged, []byte("video"), 0o600))
	job, err := jobRepo.Create(context.Background(), &models.Job{
		ID:      "j1",
		OwnerID: "u1",
		Source:  models.Source{Kind: models.SourceFile, Path: staged, Size: 5, MimeType: "video/mp4"},
		Status:  models.StatusUploading,
	})
	require.NoError(t, err)

	pipe.Process(context.Background(), job)

	got, err := jobRepo.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, got.Status, "an early fault must not leave the job in uploading")
	require.Contains(t, got.FailureReason, "acquisition")
	require.Contains(t, got.FailureReason, "create work dir")

	_, err = os.Stat(staged)
	require.True(t, os.IsNotExist(err), "staged upload must be released even on early faults")
}

func TestFilterCandidates_TrimsAndDrops(t *testing.T) {
	got := filterCandidates([]providers.CardCandidate{
		{Question: "  what is erosion?  ", Answer: " wearing away of rock "},
		{Question: "", Answer: "orphan answer"},
		{Question: "orphan question", Answer: "\t"},
	})
	require.Len(t, got, 1)
	require.Equal(t, "what is erosion?", got[0].Question)
	require.False(t, strings.HasSuffix(got[0].Answer, " "))
}
