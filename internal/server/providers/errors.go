package providers

import "errors"

// Provider failure causes. The pipeline surfaces these as distinct,
// human-readable failure reasons; callers match them with errors.Is.
var (
	ErrAuth              = errors.New("provider authentication failed")
	ErrQuota             = errors.New("provider quota or billing exhausted")
	ErrRateLimit         = errors.New("provider rate limit exceeded")
	ErrNetwork           = errors.New("provider network failure")
	ErrUnsupportedFormat = errors.New("provider rejected input format")
	ErrBadResponse       = errors.New("provider returned malformed response")
)
