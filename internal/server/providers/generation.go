package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CardCandidate is one question/answer pair as returned by the generation
// provider, before structural validation.
type CardCandidate struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Generator produces flashcard candidates from a transcript. Output is not
// deterministic; a retry fully replaces any previous attempt's output.
type Generator interface {
	GenerateCards(ctx context.Context, transcript string) ([]CardCandidate, error)
}

// GenerationClient talks to an OpenAI-compatible chat completions endpoint
// and asks for a JSON object holding 8-10 question/answer pairs grounded
// strictly in the supplied transcript.
type GenerationClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewGenerationClient(baseURL, apiKey, model string) *GenerationClient {
	return &GenerationClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

const systemPrompt = `You create study flashcards from lecture transcripts.
Produce between 8 and 10 question/answer pairs. Every question and answer must
be grounded strictly in the supplied transcript; do not add outside knowledge.
Respond with a JSON object of the form {"cards":[{"question":"...","answer":"..."}]}.`

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type cardsPayload struct {
	Cards []CardCandidate `json:"cards"`
}

// GenerateCards requests flashcards for the transcript and returns them in
// provider order. Structural filtering of individual pairs is left to the
// pipeline; this client only rejects responses it cannot parse at all.
func (c *GenerationClient) GenerateCards(ctx context.Context, transcript string) ([]CardCandidate, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: transcript},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrBadResponse)
	}

	var cards cardsPayload
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	return cards.Cards, nil
}
