// Package config handles configuration for the clipcards server,
// including defaults, JSON overlay, command-line flags, and environment
// variables.
package config

import "time"

// Config holds runtime settings for the clipcards server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - UploadDir: directory where uploaded videos are staged.
//   - WorkDir: parent directory for per-run pipeline work dirs. Empty uses
//     the system temp dir.
//   - MaxUploadBytes: hard cap on a single uploaded video.
//   - AllowedMimeTypes: MIME types accepted at the upload boundary.
//   - TranscriptionBaseURL / TranscriptionAPIKey / TranscriptionModel /
//     Language: OpenAI-compatible speech-to-text provider settings.
//   - GenerationBaseURL / GenerationAPIKey / GenerationModel:
//     OpenAI-compatible chat-completions provider settings.
//   - AcquireTimeout / TranscribeTimeout / GenerateTimeout: per-stage
//     pipeline bounds; zero disables a bound.
//   - GateMinLength / GateMaxLength / GateStrictRelevance: transcript
//     quality gate policy.
//   - FFmpegPath / YtDlpPath: media tool binaries.
//   - S3Region / S3AccessKey / S3SecretKey / S3BaseEndpoint: settings for
//     s3:// source URLs; s3 sources stay unsupported until these are set.
type Config struct {
	EndpointAddrHTTP string
	DatabaseDSN      string

	UploadDir        string
	WorkDir          string
	MaxUploadBytes   int64
	AllowedMimeTypes []string

	TranscriptionBaseURL string
	TranscriptionAPIKey  string
	TranscriptionModel   string
	Language             string

	GenerationBaseURL string
	GenerationAPIKey  string
	GenerationModel   string

	AcquireTimeout    time.Duration
	TranscribeTimeout time.Duration
	GenerateTimeout   time.Duration

	GateMinLength       int
	GateMaxLength       int
	GateStrictRelevance bool

	FFmpegPath string
	YtDlpPath  string

	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults. Provider API keys
// have no default and must come from the environment or a config file.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.UploadDir = "./uploads"
	c.WorkDir = ""
	c.MaxUploadBytes = 500 << 20
	c.AllowedMimeTypes = []string{"video/mp4", "video/quicktime", "video/webm", "video/x-matroska"}
	c.TranscriptionBaseURL = "https://api.openai.com"
	c.TranscriptionModel = "whisper-1"
	c.Language = "en"
	c.GenerationBaseURL = "https://api.openai.com"
	c.GenerationModel = "gpt-4o-mini"
	c.AcquireTimeout = 15 * time.Minute
	c.TranscribeTimeout = 10 * time.Minute
	c.GenerateTimeout = 5 * time.Minute
	c.GateMinLength = 100
	c.GateMaxLength = 200_000
	c.GateStrictRelevance = false
	c.FFmpegPath = "ffmpeg"
	c.YtDlpPath = "yt-dlp"
	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, command-line flags, and finally environment
// variables.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	parseEnv(cfg)
	return cfg
}
