package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays environment variables on top of defaults, file, and
// flags. Secrets (provider API keys, S3 credentials) are expected to arrive
// this way in deployments.
//
// Recognized variables:
//
//	CLIPCARDS_HTTP_ADDR            CLIPCARDS_DATABASE_DSN
//	CLIPCARDS_UPLOAD_DIR           CLIPCARDS_WORK_DIR
//	CLIPCARDS_MAX_UPLOAD_BYTES
//	CLIPCARDS_TRANSCRIPTION_BASE_URL  CLIPCARDS_TRANSCRIPTION_API_KEY
//	CLIPCARDS_TRANSCRIPTION_MODEL     CLIPCARDS_LANGUAGE
//	CLIPCARDS_GENERATION_BASE_URL     CLIPCARDS_GENERATION_API_KEY
//	CLIPCARDS_GENERATION_MODEL
//	CLIPCARDS_ACQUIRE_TIMEOUT      CLIPCARDS_TRANSCRIBE_TIMEOUT
//	CLIPCARDS_GENERATE_TIMEOUT     (Go duration strings, e.g. "10m")
//	CLIPCARDS_S3_REGION            CLIPCARDS_S3_ACCESS_KEY
//	CLIPCARDS_S3_SECRET_KEY        CLIPCARDS_S3_BASE_ENDPOINT
func parseEnv(config *Config) {
	envString(&config.EndpointAddrHTTP, "CLIPCARDS_HTTP_ADDR")
	envString(&config.DatabaseDSN, "CLIPCARDS_DATABASE_DSN")
	envString(&config.UploadDir, "CLIPCARDS_UPLOAD_DIR")
	envString(&config.WorkDir, "CLIPCARDS_WORK_DIR")
	envInt64(&config.MaxUploadBytes, "CLIPCARDS_MAX_UPLOAD_BYTES")

	envString(&config.TranscriptionBaseURL, "CLIPCARDS_TRANSCRIPTION_BASE_URL")
	envString(&config.TranscriptionAPIKey, "CLIPCARDS_TRANSCRIPTION_API_KEY")
	envString(&config.TranscriptionModel, "CLIPCARDS_TRANSCRIPTION_MODEL")
	envString(&config.Language, "CLIPCARDS_LANGUAGE")

	envString(&config.GenerationBaseURL, "CLIPCARDS_GENERATION_BASE_URL")
	envString(&config.GenerationAPIKey, "CLIPCARDS_GENERATION_API_KEY")
	envString(&config.GenerationModel, "CLIPCARDS_GENERATION_MODEL")

	envDuration(&config.AcquireTimeout, "CLIPCARDS_ACQUIRE_TIMEOUT")
	envDuration(&config.TranscribeTimeout, "CLIPCARDS_TRANSCRIBE_TIMEOUT")
	envDuration(&config.GenerateTimeout, "CLIPCARDS_GENERATE_TIMEOUT")

	envString(&config.S3Region, "CLIPCARDS_S3_REGION")
	envString(&config.S3AccessKey, "CLIPCARDS_S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "CLIPCARDS_S3_SECRET_KEY")
	envString(&config.S3BaseEndpoint, "CLIPCARDS_S3_BASE_ENDPOINT")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func envInt64(dst *int64, name string) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(name + ": " + err.Error())
	}
	*dst = n
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(name + ": " + err.Error())
	}
	*dst = d
}
