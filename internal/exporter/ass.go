package exporter

import (
	"fmt"
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/timecode"
)

const assStylesFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"

const assEventsFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

// ASS emits a fixed Script Info block, one Default style built from the
// project's global styles, and one Dialogue line per cue. Every cue shares
// the Default style; per-cue overrides are not expressed in ASS output.
//
// The primary colour is hardcoded to opaque white rather than derived from
// the configured text colour; consumers must not rely on colour fidelity.
func ASS(cues []cue.Cue, p *cue.Project) string {
	title := "Untitled Project"
	var global cue.StylingOptions
	if p != nil {
		if p.Name != "" {
			title = p.Name
		}
		global = p.GlobalStyles
	}
	eff := cue.ResolveStyle(nil, global, cue.DefaultGlobalStyles())

	fontName := eff.FontFamily
	if fontName == "" {
		fontName = "Arial"
	}
	fontSize := stripUnit(eff.FontSize)
	if fontSize == "" {
		fontSize = "28"
	}

	var sb strings.Builder
	sb.WriteString("[Script Info]\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", title))
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("PlayResX: 1280\n")
	sb.WriteString("PlayResY: 720\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n")
	sb.WriteString("YCbCr Matrix: None\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString(assStylesFormat + "\n")
	sb.WriteString(fmt.Sprintf(
		"Style: Default,%s,%s,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,%s,%s,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		fontName, fontSize, assFlag(eff.Bold), assFlag(eff.Italic)))

	sb.WriteString("[Events]\n")
	sb.WriteString(assEventsFormat + "\n")

	for _, c := range cues {
		text := strings.ReplaceAll(c.DisplayText(), "\n", `\N`)
		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			timecode.Format(c.StartTime, timecode.DialectASS, true),
			timecode.Format(c.EndTime, timecode.DialectASS, true),
			text))
	}

	return sb.String()
}

func assFlag(b bool) string {
	if b {
		return "-1"
	}
	return "0"
}
