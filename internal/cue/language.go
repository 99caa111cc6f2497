package cue

import (
	"fmt"
	"strings"
)

// a target-language choice
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultLanguages returns the built-in language list.
func DefaultLanguages() []Language {
	return []Language{
		{Code: "en", Name: "English"},
		{Code: "es", Name: "Spanish (Español)"},
		{Code: "fr", Name: "French (Français)"},
		{Code: "de", Name: "German (Deutsch)"},
		{Code: "it", Name: "Italian (Italiano)"},
		{Code: "pt", Name: "Portuguese (Português)"},
		{Code: "ru", Name: "Russian (Русский)"},
		{Code: "ja", Name: "Japanese (日本語)"},
		{Code: "ko", Name: "Korean (한국어)"},
		{Code: "zh", Name: "Chinese (中文)"},
		{Code: "ar", Name: "Arabic (العربية)"},
		{Code: "hi", Name: "Hindi (हिन्दी)"},
		{Code: "fa", Name: "Farsi (فارسی)"},
	}
}

// built-in languages plus user-added custom entries, keyed uniquely by code
type LanguageSet struct {
	languages []Language
}

func NewLanguageSet() *LanguageSet {
	return &LanguageSet{languages: DefaultLanguages()}
}

// Languages returns the list in registration order.
func (s *LanguageSet) Languages() []Language {
	out := make([]Language, len(s.languages))
	copy(out, s.languages)
	return out
}

// ByCode looks a language up case-insensitively.
func (s *LanguageSet) ByCode(code string) (Language, bool) {
	for _, l := range s.languages {
		if strings.EqualFold(l.Code, code) {
			return l, true
		}
	}
	return Language{}, false
}

// Add registers a custom language. Codes are unique case-insensitively.
func (s *LanguageSet) Add(l Language) error {
	l.Code = strings.TrimSpace(l.Code)
	l.Name = strings.TrimSpace(l.Name)
	if l.Code == "" || l.Name == "" {
		return fmt.Errorf("language code and name are required")
	}
	if _, exists := s.ByCode(l.Code); exists {
		return fmt.Errorf("language code %q already exists", l.Code)
	}
	s.languages = append(s.languages, l)
	return nil
}
