package cue

import (
	"strings"
	"testing"
)

func TestCueValid(t *testing.T) {
	tests := []struct {
		name  string
		cue   Cue
		valid bool
	}{
		{"normal", Cue{StartTime: 1, EndTime: 2}, true},
		{"zero duration", Cue{StartTime: 2, EndTime: 2}, false},
		{"negative duration", Cue{StartTime: 3, EndTime: 2}, false},
		{"negative start", Cue{StartTime: -1, EndTime: 2}, false},
	}

	for _, tt := range tests {
		if got := tt.cue.Valid(); got != tt.valid {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.valid)
		}
	}
}

func TestCueUntranslated(t *testing.T) {
	if !(Cue{}).Untranslated() {
		t.Error("empty translated text should count as untranslated")
	}
	if !(Cue{TranslatedText: "   "}).Untranslated() {
		t.Error("whitespace-only translated text should count as untranslated")
	}
	if (Cue{TranslatedText: "Hola"}).Untranslated() {
		t.Error("non-empty translated text should not count as untranslated")
	}
}

func TestDisplayTextPrefersTranslation(t *testing.T) {
	c := Cue{OriginalText: "Hello", TranslatedText: "Hola"}
	if got := c.DisplayText(); got != "Hola" {
		t.Errorf("DisplayText() = %q, want Hola", got)
	}
	c.TranslatedText = ""
	if got := c.DisplayText(); got != "Hello" {
		t.Errorf("DisplayText() = %q, want Hello", got)
	}
}

func TestResolveStyleThreeTiers(t *testing.T) {
	builtin := DefaultGlobalStyles()
	global := StylingOptions{FontSize: "24px", Bold: Bool(true)}
	cueStyle := &StylingOptions{FontSize: "30px", Italic: Bool(true)}

	eff := ResolveStyle(cueStyle, global, builtin)

	if eff.FontSize != "30px" {
		t.Errorf("cue-level FontSize should win, got %q", eff.FontSize)
	}
	if !eff.Bold {
		t.Error("global Bold should apply when cue does not override it")
	}
	if !eff.Italic {
		t.Error("cue Italic should apply")
	}
	if eff.FontFamily != "Arial" {
		t.Errorf("builtin FontFamily should apply, got %q", eff.FontFamily)
	}
	if eff.VerticalPlacement != PlaceBottom {
		t.Errorf("builtin placement should apply, got %q", eff.VerticalPlacement)
	}
}

func TestResolveStyleNilCueStyle(t *testing.T) {
	eff := ResolveStyle(nil, StylingOptions{Color: "#FF0000"}, DefaultGlobalStyles())
	if eff.Color != "#FF0000" {
		t.Errorf("global Color should apply, got %q", eff.Color)
	}
}

func TestUpdateCueRejectsInvalidRange(t *testing.T) {
	p := NewProject("test")
	p.SetCues([]Cue{{ID: "a", StartTime: 1, EndTime: 2, OriginalText: "hi"}})

	bad := Cue{ID: "a", StartTime: 5, EndTime: 3, OriginalText: "edited"}
	err := p.UpdateCue(bad)
	if err == nil {
		t.Fatal("expected error for inverted time range")
	}
	if !strings.Contains(err.Error(), "a") {
		t.Errorf("error should identify the cue, got %q", err)
	}

	kept, _ := p.CueByID("a")
	if kept.OriginalText != "hi" || kept.StartTime != 1 {
		t.Error("prior state should be untouched after a rejected edit")
	}
}

func TestSetTranslatedTextWritesOnlyThatField(t *testing.T) {
	p := NewProject("test")
	p.SetCues([]Cue{{ID: "a", StartTime: 1, EndTime: 2, OriginalText: "hi", Notes: "keep"}})

	// simulate a manual edit landing between snapshot and write-back
	edited, _ := p.CueByID("a")
	edited.OriginalText = "hi edited"
	if err := p.UpdateCue(edited); err != nil {
		t.Fatal(err)
	}

	if !p.SetTranslatedText("a", "hola") {
		t.Fatal("SetTranslatedText should find the cue")
	}

	got, _ := p.CueByID("a")
	if got.OriginalText != "hi edited" {
		t.Error("the manual edit must survive the translation write-back")
	}
	if got.TranslatedText != "hola" {
		t.Errorf("TranslatedText = %q, want hola", got.TranslatedText)
	}
	if got.Notes != "keep" {
		t.Error("unrelated fields must survive the write-back")
	}
}

func TestTranslationModesMutuallyExclusive(t *testing.T) {
	p := NewProject("test")

	p.SetAITranslation(true)
	p.SetGoogleTranslate(true)
	if p.AITranslationEnabled {
		t.Error("enabling Google should disable AI")
	}
	if !p.GoogleTranslateEnabled {
		t.Error("Google should be enabled")
	}

	p.SetAITranslation(true)
	if p.GoogleTranslateEnabled {
		t.Error("enabling AI should disable Google")
	}
}

func TestAddAndDeleteCue(t *testing.T) {
	p := NewProject("test")
	first, err := p.AddCue(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.AddCue(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if p.FocusedCueID != second.ID {
		t.Error("new cue should be focused")
	}

	if _, err := p.AddCue(3, 3); err == nil {
		t.Error("zero-duration cue should be rejected")
	}

	if !p.DeleteCue(second.ID) {
		t.Fatal("DeleteCue should find the cue")
	}
	if p.FocusedCueID != first.ID {
		t.Errorf("focus should move to a neighbor, got %q", p.FocusedCueID)
	}
	if len(p.Cues) != 1 {
		t.Errorf("expected 1 cue, got %d", len(p.Cues))
	}
}

func TestApplyStyleToCues(t *testing.T) {
	p := NewProject("test")
	p.SetCues([]Cue{
		{ID: "a", StartTime: 0, EndTime: 1},
		{ID: "b", StartTime: 1, EndTime: 2, Style: &StylingOptions{Color: "#00FF00"}},
	})

	err := p.ApplyStyleToCues([]int{0, 1}, StylingOptions{Bold: Bool(true)})
	if err != nil {
		t.Fatal(err)
	}

	if p.Cues[0].Style == nil || p.Cues[0].Style.Bold == nil || !*p.Cues[0].Style.Bold {
		t.Error("style override should be created for cue a")
	}
	if p.Cues[1].Style.Color != "#00FF00" {
		t.Error("existing override attributes must be preserved")
	}

	if err := p.ApplyStyleToCues([]int{5}, StylingOptions{}); err == nil {
		t.Error("out-of-range index should fail before any mutation")
	}
}

func TestLanguageSetCaseInsensitive(t *testing.T) {
	s := NewLanguageSet()

	if _, ok := s.ByCode("EN"); !ok {
		t.Error("lookup should be case-insensitive")
	}

	if err := s.Add(Language{Code: "tlh", Name: "Klingon"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Language{Code: "TLH", Name: "Klingon again"}); err == nil {
		t.Error("duplicate code should be rejected case-insensitively")
	}
	if err := s.Add(Language{Code: "", Name: "Nameless"}); err == nil {
		t.Error("empty code should be rejected")
	}
}
