package cue

import (
	"strings"

	"github.com/google/uuid"
)

// one timed subtitle entry
type Cue struct {
	ID             string          `json:"id"`
	StartTime      float64         `json:"startTime"` // seconds
	EndTime        float64         `json:"endTime"`   // seconds
	OriginalText   string          `json:"originalText"`
	TranslatedText string          `json:"translatedText"`
	Notes          string          `json:"notes,omitempty"`
	Annotations    string          `json:"annotations,omitempty"`
	Style          *StylingOptions `json:"style,omitempty"` // per-cue overrides
}

// NewID returns an opaque unique identifier for a cue or project. IDs are
// assigned once at creation and never reused.
func NewID() string {
	return uuid.NewString()
}

// Valid reports whether the cue is renderable: a strictly positive duration
// starting at or after zero.
func (c Cue) Valid() bool {
	return c.StartTime >= 0 && c.StartTime < c.EndTime
}

// Untranslated reports whether the cue still needs translation. Whitespace-only
// translated text counts as untranslated.
func (c Cue) Untranslated() bool {
	return strings.TrimSpace(c.TranslatedText) == ""
}

// DisplayText returns the text to render or export, preferring the
// translation when one is present.
func (c Cue) DisplayText() string {
	if c.TranslatedText != "" {
		return c.TranslatedText
	}
	return c.OriginalText
}
