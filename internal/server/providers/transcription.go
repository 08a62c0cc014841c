// Package providers wraps the external speech-to-text and text-generation
// capabilities behind narrow request/response contracts. Clients are
// long-lived: constructed once at app start and injected into the pipeline.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Transcriber converts an audio file into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, language string) (string, error)
}

// TranscriptionClient talks to an OpenAI-compatible
// /v1/audio/transcriptions endpoint.
type TranscriptionClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewTranscriptionClient(baseURL, apiKey, model string) *TranscriptionClient {
	return &TranscriptionClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio file and returns the transcript verbatim.
// HTTP failure classes map onto the provider error taxonomy so the pipeline
// can report auth, quota, rate limit, format, and network causes distinctly.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audioPath string, language string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	_ = mw.WriteField("model", c.model)
	if language != "" {
		_ = mw.WriteField("language", language)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return "", err
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if parsed.Text == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrBadResponse)
	}

	return parsed.Text, nil
}

// classifyStatus maps non-2xx responses onto the provider error taxonomy.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: status %d", ErrQuota, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimit, resp.StatusCode)
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return fmt.Errorf("%w: status %d: %s", ErrUnsupportedFormat, resp.StatusCode, snippet)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, snippet)
	}
}
