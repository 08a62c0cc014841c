package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/clipcards/internal/common"
	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/models"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/repomanager"
)

type fakeDispatcher struct {
	dispatched []string
	err        error
}

func (d *fakeDispatcher) Dispatch(jobID string, fn func(ctx context.Context)) error {
	d.dispatched = append(d.dispatched, jobID)
	return d.err
}

type noopProcessor struct{}

func (noopProcessor) Process(ctx context.Context, job *models.Job) {}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func newVideoService(t *testing.T) (*VideoService, repomanager.Manager, *fakeDispatcher) {
	t.Helper()
	repos := repomanager.NewMemoryManager()
	dispatcher := &fakeDispatcher{}
	svc := NewVideoService(repos, dispatcher, noopProcessor{}, t.TempDir(), 1024,
		[]string{"video/mp4", "video/quicktime", "video/webm"}, testLogger())
	return svc, repos, dispatcher
}

func TestSubmitFile_CreatesJobAndDispatches(t *testing.T) {
	svc, repos, dispatcher := newVideoService(t)

	job, err := svc.SubmitFile(context.Background(), "u1", "lecture.MP4", "video/mp4", 5, strings.NewReader("video"))
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.StatusUploading, job.Status)
	assert.Equal(t, models.SourceFile, job.Source.Kind)
	assert.Equal(t, int64(5), job.Source.Size)
	assert.Equal(t, ".mp4", filepath.Ext(job.Source.Path))

	content, err := os.ReadFile(job.Source.Path)
	require.NoError(t, err)
	assert.Equal(t, "video", string(content))

	stored, err := repos.Jobs().Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.OwnerID)
	assert.Equal(t, []string{job.ID}, dispatcher.dispatched)
}

func TestSubmitFile_RejectsUnsupportedMime(t *testing.T) {
	svc, _, dispatcher := newVideoService(t)

	_, err := svc.SubmitFile(context.Background(), "u1", "doc.pdf", "application/pdf", 5, strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, dispatcher.dispatched, "rejected input must not reach the pipeline")
}

func TestSubmitFile_RejectsDeclaredOversize(t *testing.T) {
	svc, _, _ := newVideoService(t)

	_, err := svc.SubmitFile(context.Background(), "u1", "big.mp4", "video/mp4", 4096, strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestSubmitFile_RejectsActualOversize(t *testing.T) {
	repos := repomanager.NewMemoryManager()
	uploadDir := t.TempDir()
	svc := NewVideoService(repos, &fakeDispatcher{}, noopProcessor{}, uploadDir, 10,
		[]string{"video/mp4"}, testLogger())

	// declared size lies, the stream is larger than the cap
	_, err := svc.SubmitFile(context.Background(), "u1", "big.mp4", "video/mp4", 5,
		strings.NewReader(strings.Repeat("a", 64)))
	require.ErrorIs(t, err, common.ErrorValidation)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversize staged file must be removed")
}

func TestSubmitFile_RequiresUserID(t *testing.T) {
	svc, _, _ := newVideoService(t)

	_, err := svc.SubmitFile(context.Background(), "", "a.mp4", "video/mp4", 1, strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrorNoUserID)
}

func TestSubmitURL_CreatesJobAndDispatches(t *testing.T) {
	svc, repos, dispatcher := newVideoService(t)

	job, err := svc.SubmitURL(context.Background(), "u1", "https://example.com/lecture.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.SourceURL, job.Source.Kind)
	assert.Equal(t, "https://example.com/lecture.mp4", job.Source.URL)

	_, err = repos.Jobs().Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID}, dispatcher.dispatched)
}

func TestSubmitURL_DispatchFailureSettlesJobAsFailed(t *testing.T) {
	repos := repomanager.NewMemoryManager()
	dispatcher := &fakeDispatcher{err: errors.New("runner refused")}
	svc := NewVideoService(repos, dispatcher, noopProcessor{}, t.TempDir(), 1024,
		[]string{"video/mp4"}, testLogger())

	_, err := svc.SubmitURL(context.Background(), "u1", "https://example.com/v.mp4")
	require.Error(t, err)
	require.Len(t, dispatcher.dispatched, 1)

	// the orphaned record must end terminal, not stuck in uploading
	job, err := repos.Jobs().Get(context.Background(), dispatcher.dispatched[0])
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, job.Status)
	assert.Contains(t, job.FailureReason, "internal fault")
}

func TestSubmitURL_RejectsBadInput(t *testing.T) {
	svc, _, _ := newVideoService(t)

	tests := []struct {
		name string
		url  string
	}{
		{"relative", "/videos/lecture.mp4"},
		{"unsupported scheme", "ftp://example.com/v.mp4"},
		{"no host", "https:///v.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitURL(context.Background(), "u1", tt.url)
			require.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestStatus_ProjectsJobState(t *testing.T) {
	svc, repos, _ := newVideoService(t)
	ctx := context.Background()

	job, err := svc.SubmitURL(ctx, "u1", "https://example.com/v.mp4")
	require.NoError(t, err)

	view, err := svc.Status(ctx, "u1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploading, view.Status)
	assert.False(t, view.HasTranscript)

	require.NoError(t, repos.Jobs().UpdateStatus(ctx, job.ID, models.StatusProcessing, 10))
	require.NoError(t, repos.Jobs().SetTranscript(ctx, job.ID, "today we cover erosion"))

	view, err = svc.Status(ctx, "u1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, view.Status)
	assert.Equal(t, 10, view.Progress)
	assert.True(t, view.HasTranscript)
}

func TestStatus_OtherOwnersJobReadsAsNotFound(t *testing.T) {
	svc, _, _ := newVideoService(t)
	ctx := context.Background()

	job, err := svc.SubmitURL(ctx, "u1", "https://example.com/v.mp4")
	require.NoError(t, err)

	_, err = svc.Status(ctx, "u2", job.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListFlashcards_RequiresCompletedJob(t *testing.T) {
	svc, repos, _ := newVideoService(t)
	ctx := context.Background()

	job, err := svc.SubmitURL(ctx, "u1", "https://example.com/v.mp4")
	require.NoError(t, err)

	_, err = svc.ListFlashcards(ctx, "u1", job.ID)
	require.ErrorIs(t, err, common.ErrorValidation)

	require.NoError(t, repos.Jobs().UpdateStatus(ctx, job.ID, models.StatusProcessing, 10))
	_, err = repos.Flashcards().AddBatch(ctx, job.ID, []*models.Flashcard{
		{Question: "q0", Answer: "a0"},
		{Question: "q1", Answer: "a1"},
	})
	require.NoError(t, err)
	require.NoError(t, repos.Jobs().UpdateStatus(ctx, job.ID, models.StatusCompleted, 100))

	cards, err := svc.ListFlashcards(ctx, "u1", job.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, 0, cards[0].Position)
	assert.Equal(t, 1, cards[1].Position)
}
