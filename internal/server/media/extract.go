package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor derives a processable audio stream from a video container.
type Extractor interface {
	// ExtractAudio converts the video at inputPath into a mono 16 kHz PCM WAV
	// file under destDir and returns its path.
	ExtractAudio(ctx context.Context, inputPath, destDir string) (string, error)
}

// FFmpegExtractor shells out to ffmpeg.
type FFmpegExtractor struct {
	ffmpegPath string
	runner     CommandRunner
}

func NewFFmpegExtractor() *FFmpegExtractor {
	return &FFmpegExtractor{
		ffmpegPath: "ffmpeg",
		runner:     &ExecRunner{},
	}
}

// NewFFmpegExtractorWith constructs an extractor with injectable dependencies.
func NewFFmpegExtractorWith(ffmpegPath string, runner CommandRunner) *FFmpegExtractor {
	return &FFmpegExtractor{ffmpegPath: ffmpegPath, runner: runner}
}

func (e *FFmpegExtractor) ExtractAudio(ctx context.Context, inputPath, destDir string) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", fmt.Errorf("input media path is required")
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("cannot access input media %s: %w", inputPath, err)
	}

	outPath := filepath.Join(destDir, audioFileName(inputPath))
	args := buildFFmpegArgs(inputPath, outPath)

	result, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return "", fmt.Errorf("ffmpeg audio conversion failed (exit=%d): %s: %w",
			result.ExitCode, lastLine(result.Stderr), err)
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("ffmpeg completed but output file is missing: %w", err)
	}

	return outPath, nil
}

// buildFFmpegArgs builds CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

func audioFileName(inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		name = "audio"
	}
	return name + "-16k-mono.wav"
}

// lastLine returns the final non-empty line of s, where ffmpeg puts the
// actual error message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
