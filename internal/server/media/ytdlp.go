package media

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// YtDlpResolver resolves a YouTube page URL to a direct media URL using the
// local yt-dlp binary.
type YtDlpResolver struct {
	binaryPath string
	runner     CommandRunner
}

func NewYtDlpResolver() *YtDlpResolver {
	return &YtDlpResolver{binaryPath: "yt-dlp", runner: &ExecRunner{}}
}

// NewYtDlpResolverWith constructs a resolver with injectable dependencies.
func NewYtDlpResolverWith(binaryPath string, runner CommandRunner) *YtDlpResolver {
	return &YtDlpResolver{binaryPath: binaryPath, runner: runner}
}

// ResolveMediaURL runs yt-dlp --get-url and returns the first direct URL.
func (r *YtDlpResolver) ResolveMediaURL(ctx context.Context, videoURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	result, err := r.runner.Run(ctx, r.binaryPath, "-f", "b", "--get-url", "--no-warnings", videoURL)
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, strings.TrimSpace(result.Stderr))
	}

	out := strings.TrimSpace(result.Stdout)
	if out == "" {
		return "", fmt.Errorf("yt-dlp returned empty url")
	}

	// yt-dlp may print separate video and audio URLs; the first is enough.
	return strings.Split(out, "\n")[0], nil
}
