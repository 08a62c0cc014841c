package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Fetcher downloads s3://bucket/key sources. Useful when clients park large
// videos in object storage instead of uploading them through the API.
type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher builds a long-lived S3 client. A non-empty baseEndpoint points
// the client at an S3-compatible service (e.g. MinIO) with path-style access.
func NewS3Fetcher(ctx context.Context, region, accessKey, secretKey, baseEndpoint string) (*S3Fetcher, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if baseEndpoint != "" {
			o.BaseEndpoint = aws.String(baseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Fetcher{client: client}, nil
}

// Fetch copies the object behind an s3:// URL into destDir.
func (f *S3Fetcher) Fetch(ctx context.Context, u *url.URL, destDir string) (string, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", fmt.Errorf("%w: s3 url needs bucket and key", ErrUnsupportedSource)
	}

	obj, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return "", fmt.Errorf("s3 get object: %w", err)
	}
	defer obj.Body.Close()

	ext := filepath.Ext(key)
	if ext == "" {
		ext = ".mp4"
	}
	out, err := os.CreateTemp(destDir, "source-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create download target: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, obj.Body); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("copy s3 object: %w", err)
	}

	return out.Name(), nil
}
