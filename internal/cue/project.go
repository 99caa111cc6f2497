package cue

import (
	"fmt"
	"time"
)

// the persistence unit: one editing session's cues, settings, and styles
type Project struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Cues           []Cue          `json:"cues"`
	TargetLanguage *Language      `json:"targetLanguage,omitempty"`
	GlobalStyles   StylingOptions `json:"globalStyles"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	// AI and Google translation modes are mutually exclusive; use the
	// setter methods rather than writing the fields directly.
	AITranslationEnabled     bool    `json:"isAiTranslationEnabled"`
	GoogleTranslateEnabled   bool    `json:"isGoogleTranslateEnabled"`
	AICreativityLevel        float64 `json:"aiCreativityLevel"` // 0..1
	AICustomPrompt           string  `json:"aiCustomPrompt,omitempty"`

	FocusedCueID string `json:"focusedCueId,omitempty"`
}

// NewProject creates a project with default settings and no cues.
func NewProject(name string) *Project {
	if name == "" {
		name = "Untitled Project"
	}
	now := time.Now()
	return &Project{
		ID:                NewID(),
		Name:              name,
		Cues:              []Cue{},
		TargetLanguage:    &DefaultLanguages()[0],
		GlobalStyles:      DefaultGlobalStyles(),
		CreatedAt:         now,
		UpdatedAt:         now,
		AICreativityLevel: 0.5,
	}
}

func (p *Project) touch() {
	p.UpdatedAt = time.Now()
}

// SetAITranslation enables or disables the AI backend; enabling it turns the
// Google backend off.
func (p *Project) SetAITranslation(enabled bool) {
	p.AITranslationEnabled = enabled
	if enabled {
		p.GoogleTranslateEnabled = false
	}
	p.touch()
}

// SetGoogleTranslate enables or disables the Google backend; enabling it
// turns the AI backend off.
func (p *Project) SetGoogleTranslate(enabled bool) {
	p.GoogleTranslateEnabled = enabled
	if enabled {
		p.AITranslationEnabled = false
	}
	p.touch()
}

// SetCues replaces the whole cue sequence, e.g. after importing a file.
func (p *Project) SetCues(cues []Cue) {
	p.Cues = cues
	if len(cues) > 0 {
		p.FocusedCueID = cues[0].ID
	} else {
		p.FocusedCueID = ""
	}
	p.touch()
}

// CueByID returns a snapshot of the cue with the given id.
func (p *Project) CueByID(id string) (Cue, bool) {
	for _, c := range p.Cues {
		if c.ID == id {
			return c, true
		}
	}
	return Cue{}, false
}

// UpdateCue replaces the cue with the same id. An edit producing a
// zero-or-negative duration is rejected with a descriptive error and the
// prior state is left untouched.
func (p *Project) UpdateCue(updated Cue) error {
	if !updated.Valid() {
		return fmt.Errorf(
			"invalid time range for cue %s: start %.3f must be before end %.3f",
			updated.ID, updated.StartTime, updated.EndTime,
		)
	}
	for i, c := range p.Cues {
		if c.ID == updated.ID {
			p.Cues[i] = updated
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("cue %s not found", updated.ID)
}

// SetTranslatedText writes only the translated field of the cue with the
// given id, leaving every other field at its current value. This is the
// write path the batch driver uses so a manual edit made mid-run is never
// clobbered.
func (p *Project) SetTranslatedText(id, text string) bool {
	for i := range p.Cues {
		if p.Cues[i].ID == id {
			p.Cues[i].TranslatedText = text
			p.touch()
			return true
		}
	}
	return false
}

// AddCue appends a new empty cue after the currently focused cue, or at the
// end when nothing is focused, and focuses it.
func (p *Project) AddCue(startTime, endTime float64) (Cue, error) {
	c := Cue{
		ID:        NewID(),
		StartTime: startTime,
		EndTime:   endTime,
	}
	if !c.Valid() {
		return Cue{}, fmt.Errorf(
			"invalid time range for new cue: start %.3f must be before end %.3f",
			startTime, endTime,
		)
	}

	pos := len(p.Cues)
	if p.FocusedCueID != "" {
		for i, existing := range p.Cues {
			if existing.ID == p.FocusedCueID {
				pos = i + 1
				break
			}
		}
	}

	p.Cues = append(p.Cues[:pos], append([]Cue{c}, p.Cues[pos:]...)...)
	p.FocusedCueID = c.ID
	p.touch()
	return c, nil
}

// DeleteCue removes the cue with the given id, moving focus to a neighbor.
func (p *Project) DeleteCue(id string) bool {
	for i, c := range p.Cues {
		if c.ID == id {
			p.Cues = append(p.Cues[:i], p.Cues[i+1:]...)
			if p.FocusedCueID == id {
				switch {
				case len(p.Cues) == 0:
					p.FocusedCueID = ""
				case i >= len(p.Cues):
					p.FocusedCueID = p.Cues[len(p.Cues)-1].ID
				default:
					p.FocusedCueID = p.Cues[i].ID
				}
			}
			p.touch()
			return true
		}
	}
	return false
}

// ApplyStyleToCues overlays the given sparse style onto each listed cue's
// override, creating overrides where none existed.
func (p *Project) ApplyStyleToCues(indices []int, style StylingOptions) error {
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Cues) {
			return fmt.Errorf("cue index %d out of range (0-%d)", idx, len(p.Cues)-1)
		}
	}
	for _, idx := range indices {
		base := deref(p.Cues[idx].Style)
		merged := base.Merge(style)
		p.Cues[idx].Style = &merged
	}
	p.touch()
	return nil
}
