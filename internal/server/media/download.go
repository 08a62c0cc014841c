package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrUnsupportedSource marks URL shapes the pipeline cannot acquire. It is a
// recoverable stage failure, never a crash.
var ErrUnsupportedSource = errors.New("unsupported source url")

// Fetcher obtains a processable local copy of a remote video source.
type Fetcher interface {
	// Fetch downloads the source behind rawURL into destDir and returns the
	// local file path. The caller owns the file.
	Fetch(ctx context.Context, rawURL, destDir string) (string, error)
}

// SourceFetcher dispatches on URL shape: s3:// objects via the S3 API,
// YouTube links via yt-dlp URL resolution, anything else http(s) directly.
type SourceFetcher struct {
	client   *http.Client
	resolver *YtDlpResolver
	s3       *S3Fetcher
}

func NewSourceFetcher(resolver *YtDlpResolver, s3 *S3Fetcher) *SourceFetcher {
	return &SourceFetcher{
		client: &http.Client{
			Timeout: 30 * time.Minute, // videos can be large
		},
		resolver: resolver,
		s3:       s3,
	}
}

func (f *SourceFetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}

	switch u.Scheme {
	case "s3":
		if f.s3 == nil {
			return "", fmt.Errorf("%w: s3 sources are not configured", ErrUnsupportedSource)
		}
		return f.s3.Fetch(ctx, u, destDir)
	case "http", "https":
		downloadURL := rawURL
		if isYouTube(u.Host) {
			if f.resolver == nil {
				return "", fmt.Errorf("%w: youtube sources are not configured", ErrUnsupportedSource)
			}
			downloadURL, err = f.resolver.ResolveMediaURL(ctx, rawURL)
			if err != nil {
				return "", fmt.Errorf("resolve youtube url: %w", err)
			}
		}
		return f.download(ctx, downloadURL, destDir)
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
}

// download fetches the URL into destDir, retrying transient failures with
// fibonacci backoff. Non-transient failures (4xx) are returned immediately.
func (f *SourceFetcher) download(ctx context.Context, downloadURL, destDir string) (string, error) {
	out, err := os.CreateTemp(destDir, "source-*"+pathExt(downloadURL))
	if err != nil {
		return "", fmt.Errorf("create download target: %w", err)
	}
	defer out.Close()

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := f.downloadOnce(ctx, downloadURL, out); err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}

	return out.Name(), nil
}

func (f *SourceFetcher) downloadOnce(ctx context.Context, downloadURL string, out *os.File) error {
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := out.Truncate(0); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &transientError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return &transientError{err}
		}
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return &transientError{fmt.Errorf("read body: %w", err)}
	}
	return nil
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func isYouTube(host string) bool {
	host = strings.ToLower(host)
	return host == "youtu.be" ||
		host == "youtube.com" ||
		strings.HasSuffix(host, ".youtube.com")
}

// pathExt keeps the media extension on the staged file so ffmpeg can sniff
// the container; falls back to .mp4 when the URL has none.
func pathExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".mp4"
	}
	ext := filepath.Ext(u.Path)
	if ext == "" || len(ext) > 5 {
		return ".mp4"
	}
	return ext
}
