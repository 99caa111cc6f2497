package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// one cue's translation request
type Request struct {
	Text           string
	TargetLanguage string  // language code, e.g. "es"
	Creativity     float64 // 0 (literal) .. 1 (interpretive); AI backends only
	CustomPrompt   string  // extra guidance; AI backends only
}

// interface for text translation backends
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// ErrRateLimited marks a backend failure caused by request throttling. The
// batch driver treats it as fatal for the whole run, unlike generic per-item
// failures.
var ErrRateLimited = errors.New("translation backend rate limited")

// IsRateLimit classifies an error as a rate-limit signal. Backends wrap
// ErrRateLimited where they can see the status code; the message sniffing
// covers SDK errors that only surface "429" or "Too Many Requests" text.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "Too Many Requests") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// creates a Translator based on provider
func Factory(ctx context.Context, provider Provider, apiKey string) (Translator, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey)
	case ProviderOpenAI:
		return NewOpenAITranslator(apiKey)
	case ProviderAnthropic:
		return NewAnthropicTranslator(apiKey)
	case ProviderGoogle:
		return NewGoogleTranslator(), nil
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// buildPrompt creates the per-cue translation prompt for LLM providers.
func buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Translate the following subtitle text to %s.\n\n", req.TargetLanguage))
	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Preserve line breaks in the same positions.\n")
	sb.WriteString("3. Output the translated text only, with no explanation or markdown.\n")

	if req.Creativity > 0 {
		sb.WriteString(fmt.Sprintf(
			"4. Adjust the creativity of the translation to level %.2f, where 0 is very literal and 1 is very creative.\n",
			req.Creativity,
		))
	}
	if req.CustomPrompt != "" {
		sb.WriteString(fmt.Sprintf("\nAdditional guidance: %s\n", req.CustomPrompt))
	}

	sb.WriteString("\nOriginal text:\n")
	sb.WriteString(req.Text)
	sb.WriteString("\n\nTranslated text:")

	return sb.String()
}

// strips the markdown fences some models wrap plain answers in
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
