// Package server wires the clipcards application together: configuration,
// storage backend selection, media tooling, AI provider clients, the
// processing pipeline, and the HTTP boundary, with signal-driven shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/clipcards/internal/filex"
	"github.com/dmitrijs2005/clipcards/internal/logging"
	"github.com/dmitrijs2005/clipcards/internal/server/config"
	"github.com/dmitrijs2005/clipcards/internal/server/httpapi"
	"github.com/dmitrijs2005/clipcards/internal/server/media"
	"github.com/dmitrijs2005/clipcards/internal/server/pipeline"
	"github.com/dmitrijs2005/clipcards/internal/server/providers"
	"github.com/dmitrijs2005/clipcards/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipcards/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	repos          repomanager.Manager
	httpServer     *httpapi.Server
	pipelineRunner *pipeline.Runner
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	repos, err := newRepoManager(c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	uploadDir, err := filex.EnsureDir(c.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir error: %w", err)
	}

	fetcher, err := newFetcher(c)
	if err != nil {
		return nil, fmt.Errorf("fetcher init error: %w", err)
	}

	extractor := media.NewFFmpegExtractorWith(c.FFmpegPath, &media.ExecRunner{})
	transcriber := providers.NewTranscriptionClient(c.TranscriptionBaseURL, c.TranscriptionAPIKey, c.TranscriptionModel)
	generator := providers.NewGenerationClient(c.GenerationBaseURL, c.GenerationAPIKey, c.GenerationModel)

	pipe := pipeline.New(pipeline.Config{
		WorkDir:           c.WorkDir,
		Language:          c.Language,
		AcquireTimeout:    c.AcquireTimeout,
		TranscribeTimeout: c.TranscribeTimeout,
		GenerateTimeout:   c.GenerateTimeout,
		Gate: pipeline.GatePolicy{
			MinLength:       c.GateMinLength,
			MaxLength:       c.GateMaxLength,
			StrictRelevance: c.GateStrictRelevance,
		},
	}, repos.Jobs(), repos.Flashcards(), fetcher, extractor, transcriber, generator, logger)

	runner := pipeline.NewRunner(repos.Jobs(), logger)

	videoService := services.NewVideoService(repos, runner, pipe, uploadDir,
		c.MaxUploadBytes, c.AllowedMimeTypes, logger)
	sessionService := services.NewSessionService(repos, logger)

	httpServer := httpapi.NewServer(c.EndpointAddrHTTP, videoService, sessionService, logger)

	return &App{
		config:         c,
		logger:         logger,
		repos:          repos,
		httpServer:     httpServer,
		pipelineRunner: runner,
	}, nil
}

// newRepoManager selects the storage backend: postgres when a DSN is
// configured, in-memory otherwise.
func newRepoManager(c *config.Config) (repomanager.Manager, error) {
	if c.DatabaseDSN == "" {
		return repomanager.NewMemoryManager(), nil
	}
	return repomanager.NewPostgresManager(c.DatabaseDSN)
}

// newFetcher builds the URL source fetcher. The s3 branch stays nil, and
// s3:// sources rejected, until credentials are configured.
func newFetcher(c *config.Config) (*media.SourceFetcher, error) {
	resolver := media.NewYtDlpResolverWith(c.YtDlpPath, &media.ExecRunner{})

	var s3 *media.S3Fetcher
	if c.S3AccessKey != "" && c.S3SecretKey != "" {
		var err error
		s3, err = media.NewS3Fetcher(context.Background(), c.S3Region, c.S3AccessKey, c.S3SecretKey, c.S3BaseEndpoint)
		if err != nil {
			return nil, err
		}
	}

	return media.NewSourceFetcher(resolver, s3), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repos.RunMigrations(ctx); err != nil {
		app.logger.Error(ctx, "migration error", "error", err.Error())
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err.Error())
	}
}
