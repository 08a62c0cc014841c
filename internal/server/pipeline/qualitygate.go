package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// GatePolicy configures transcript validation before generation is attempted.
type GatePolicy struct {
	// MinLength rejects transcripts too short to support 8+ grounded
	// questions.
	MinLength int
	// MaxLength bounds provider cost and latency on pathological input.
	MaxLength int
	// StrictRelevance turns the lenient educational-keyword heuristic into a
	// hard rejection. Default is warn-only.
	StrictRelevance bool
}

// DefaultGatePolicy returns the production thresholds.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{
		MinLength:       100,
		MaxLength:       200_000,
		StrictRelevance: false,
	}
}

// GateResult is the verdict of the quality gate.
type GateResult struct {
	OK      bool
	Reason  string
	Warning string
}

// failureFingerprints are substrings indicating the "transcript" is actually
// a captured upstream error message, not content.
var failureFingerprints = []string{
	"quota exceeded",
	"rate limit",
	"billing",
	"insufficient credits",
	"invalid api key",
	"internal server error",
}

// relevanceVocabulary is a small controlled vocabulary used as a coarse,
// deliberately permissive educational-content signal.
var relevanceVocabulary = []string{
	"learn",
	"concept",
	"definition",
	"define",
	"explain",
	"example",
	"understand",
	"theory",
	"method",
	"principle",
	"lesson",
	"chapter",
	"introduction",
}

// CheckTranscript validates that a transcript is non-degenerate and
// substantive. Any single rule may reject on its own.
func CheckTranscript(text string, policy GatePolicy) GateResult {
	trimmed := strings.TrimSpace(text)

	// Thresholds count characters, not bytes, so multibyte transcripts are
	// measured the same as ASCII ones.
	chars := utf8.RuneCountInString(trimmed)

	if chars < policy.MinLength {
		return GateResult{Reason: fmt.Sprintf("transcript too short (%d chars, need %d)", chars, policy.MinLength)}
	}

	lower := strings.ToLower(trimmed)
	for _, fp := range failureFingerprints {
		if strings.Contains(lower, fp) {
			return GateResult{Reason: fmt.Sprintf("transcript contains provider failure text (%q)", fp)}
		}
	}

	if policy.MaxLength > 0 && chars > policy.MaxLength {
		return GateResult{Reason: fmt.Sprintf("transcript too long (%d chars, cap %d)", chars, policy.MaxLength)}
	}

	if !containsAnyWord(lower, relevanceVocabulary) {
		if policy.StrictRelevance {
			return GateResult{Reason: "transcript has no recognizable educational content markers"}
		}
		return GateResult{
			OK:      true,
			Warning: "transcript has no recognizable educational content markers",
		}
	}

	return GateResult{OK: true}
}

func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
