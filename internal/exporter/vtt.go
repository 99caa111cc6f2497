package exporter

import (
	"fmt"
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/timecode"
)

// VTT emits the same block structure as SRT behind a WEBVTT header. The
// timecode dialect is shared with SRT; only the millisecond separator is
// rewritten at serialization time.
func VTT(cues []cue.Cue, p *cue.Project) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	for i, c := range cues {
		start := strings.ReplaceAll(
			timecode.Format(c.StartTime, timecode.DialectSRT, true), ",", ".")
		end := strings.ReplaceAll(
			timecode.Format(c.EndTime, timecode.DialectSRT, true), ",", ".")

		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", start, end))
		sb.WriteString(styledText(c, p))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
