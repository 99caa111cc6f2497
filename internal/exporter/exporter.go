// Package exporter projects the canonical cue model out to subtitle
// documents. Exporters are pure functions: same cues and project in, byte
// identical document out.
package exporter

import (
	"fmt"
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
)

// Export serializes cues in the given format.
func Export(cues []cue.Cue, p *cue.Project, format cue.Format) (string, error) {
	switch format {
	case cue.FormatSRT:
		return SRT(cues, p), nil
	case cue.FormatVTT:
		return VTT(cues, p), nil
	case cue.FormatASS:
		return ASS(cues, p), nil
	default:
		return "", fmt.Errorf("no exporter for format %q", format)
	}
}

// styledText wraps the display text with <i> (innermost) and <b>
// (outermost) according to the cue's effective style.
func styledText(c cue.Cue, p *cue.Project) string {
	var global cue.StylingOptions
	if p != nil {
		global = p.GlobalStyles
	}
	eff := cue.ResolveStyle(c.Style, global, cue.DefaultGlobalStyles())

	text := c.DisplayText()
	if eff.Italic {
		text = "<i>" + text + "</i>"
	}
	if eff.Bold {
		text = "<b>" + text + "</b>"
	}
	return text
}

func stripUnit(fontSize string) string {
	return strings.TrimFunc(fontSize, func(r rune) bool {
		return r < '0' || r > '9'
	})
}
