package exporter

import (
	"fmt"
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/timecode"
)

// SRT emits one numbered block per cue in storage order.
func SRT(cues []cue.Cue, p *cue.Project) string {
	var sb strings.Builder
	for i, c := range cues {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			timecode.Format(c.StartTime, timecode.DialectSRT, true),
			timecode.Format(c.EndTime, timecode.DialectSRT, true)))
		sb.WriteString(styledText(c, p))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
