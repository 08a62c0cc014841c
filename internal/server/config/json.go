package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/clipcards/internal/flagx"
	"github.com/dmitrijs2005/clipcards/internal/timex"
)

// JsonConfig is the DTO for JSON config files. Interval fields use
// timex.Duration so both "90s" strings and integer nanoseconds parse. Values
// are copied into the runtime Config only when present in the file, so a
// partial file overrides just the fields it names.
type JsonConfig struct {
	EndpointAddrHTTP *string  `json:"endpoint_addr_http"`
	DatabaseDSN      *string  `json:"database_dsn"`
	UploadDir        *string  `json:"upload_dir"`
	WorkDir          *string  `json:"work_dir"`
	MaxUploadBytes   *int64   `json:"max_upload_bytes"`
	AllowedMimeTypes []string `json:"allowed_mime_types"`

	TranscriptionBaseURL *string `json:"transcription_base_url"`
	TranscriptionAPIKey  *string `json:"transcription_api_key"`
	TranscriptionModel   *string `json:"transcription_model"`
	Language             *string `json:"language"`

	GenerationBaseURL *string `json:"generation_base_url"`
	GenerationAPIKey  *string `json:"generation_api_key"`
	GenerationModel   *string `json:"generation_model"`

	AcquireTimeout    *timex.Duration `json:"acquire_timeout"`
	TranscribeTimeout *timex.Duration `json:"transcribe_timeout"`
	GenerateTimeout   *timex.Duration `json:"generate_timeout"`

	GateMinLength       *int  `json:"gate_min_length"`
	GateMaxLength       *int  `json:"gate_max_length"`
	GateStrictRelevance *bool `json:"gate_strict_relevance"`

	FFmpegPath *string `json:"ffmpeg_path"`
	YtDlpPath  *string `json:"ytdlp_path"`

	S3Region       *string `json:"s3_region"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
}

// parseJson loads configuration from the JSON file named by the -c/-config
// flags. No flag, no file. A file that cannot be read or parsed panics; bad
// config is a startup-time fault, not a runtime condition.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyJson(config, c)
}

func applyJson(config *Config, c *JsonConfig) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.WorkDir, c.WorkDir)
	if c.MaxUploadBytes != nil {
		config.MaxUploadBytes = *c.MaxUploadBytes
	}
	if c.AllowedMimeTypes != nil {
		config.AllowedMimeTypes = c.AllowedMimeTypes
	}

	setString(&config.TranscriptionBaseURL, c.TranscriptionBaseURL)
	setString(&config.TranscriptionAPIKey, c.TranscriptionAPIKey)
	setString(&config.TranscriptionModel, c.TranscriptionModel)
	setString(&config.Language, c.Language)

	setString(&config.GenerationBaseURL, c.GenerationBaseURL)
	setString(&config.GenerationAPIKey, c.GenerationAPIKey)
	setString(&config.GenerationModel, c.GenerationModel)

	setDuration(&config.AcquireTimeout, c.AcquireTimeout)
	setDuration(&config.TranscribeTimeout, c.TranscribeTimeout)
	setDuration(&config.GenerateTimeout, c.GenerateTimeout)

	if c.GateMinLength != nil {
		config.GateMinLength = *c.GateMinLength
	}
	if c.GateMaxLength != nil {
		config.GateMaxLength = *c.GateMaxLength
	}
	if c.GateStrictRelevance != nil {
		config.GateStrictRelevance = *c.GateStrictRelevance
	}

	setString(&config.FFmpegPath, c.FFmpegPath)
	setString(&config.YtDlpPath, c.YtDlpPath)

	setString(&config.S3Region, c.S3Region)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
