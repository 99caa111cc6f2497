package parser

import (
	"testing"

	"github.com/subweaver/subweaver/internal/logging"
)

const assHeader = `[Script Info]
Title: Test
ScriptType: v4.00+

[V4+ Styles]
Format: Name, Fontname, Fontsize
Style: Default,Arial,20

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

func TestParseASSCommaInsideText(t *testing.T) {
	content := assHeader + "Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello, world\n"

	cues := NewASS(logging.NewNop()).Parse(content)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].OriginalText != "Hello, world" {
		t.Errorf("text = %q, want comma preserved", cues[0].OriginalText)
	}
	if cues[0].StartTime != 1 || cues[0].EndTime != 2 {
		t.Errorf("times = %v..%v, want 1..2", cues[0].StartTime, cues[0].EndTime)
	}
}

func TestParseASSFieldOrderFromFormatLine(t *testing.T) {
	// nonstandard field order: timing fields come after style
	content := `[Events]
Format: Style, Start, End, Text
Dialogue: Default,0:00:03.50,0:00:05.00,Reordered fields
`
	cues := NewASS(logging.NewNop()).Parse(content)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].StartTime != 3.5 || cues[0].EndTime != 5 {
		t.Errorf("times = %v..%v", cues[0].StartTime, cues[0].EndTime)
	}
	if cues[0].OriginalText != "Reordered fields" {
		t.Errorf("text = %q", cues[0].OriginalText)
	}
}

func TestParseASSNewlineEscapeAndOverrideTags(t *testing.T) {
	content := assHeader +
		`Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,{\pos(400,300)}Line one\NLine two` + "\n"

	cues := NewASS(logging.NewNop()).Parse(content)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].OriginalText != "Line one\nLine two" {
		t.Errorf("text = %q, want tags stripped and \\N converted", cues[0].OriginalText)
	}
}

func TestParseASSSkipsBadLines(t *testing.T) {
	content := assHeader + `Dialogue: 0,0:00:02.00,0:00:01.00,Default,,0,0,0,,Inverted
Dialogue: 0,bogus,0:00:05.00,Default,,0,0,0,,Bad start time
Dialogue: 0,0:00:06.00,0:00:07.00,Default,,0,0,0,,{\i1}
Dialogue: 0,0:00:08.00,0:00:09.00,Default,,0,0,0,,Kept
`
	cues := NewASS(logging.NewNop()).Parse(content)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].OriginalText != "Kept" {
		t.Errorf("text = %q", cues[0].OriginalText)
	}
}

func TestParseASSRequiresFormatDeclaration(t *testing.T) {
	content := `[Events]
Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Orphan line
`
	if cues := NewASS(logging.NewNop()).Parse(content); len(cues) != 0 {
		t.Errorf("Dialogue before Format should be skipped, got %d cues", len(cues))
	}
}

func TestParseASSIgnoresOtherSections(t *testing.T) {
	content := `[Script Info]
Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Not an event
Format: Name, Fontname

[Events]
Format: Start, End, Text
Dialogue: 0:00:01.00,0:00:02.00,Real event

[Fonts]
Dialogue: 0:00:03.00,0:00:04.00,Also not an event
`
	cues := NewASS(logging.NewNop()).Parse(content)
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	if cues[0].OriginalText != "Real event" {
		t.Errorf("text = %q", cues[0].OriginalText)
	}
}

func TestParseASSSectionHeaderCaseInsensitive(t *testing.T) {
	content := `[EVENTS]
Format: Start, End, Text
Dialogue: 0:00:01.00,0:00:02.00,Upper case section
`
	if cues := NewASS(logging.NewNop()).Parse(content); len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
}
