package parser

import (
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/logging"
	"github.com/subweaver/subweaver/internal/timecode"
)

// line-oriented SRT parser
type SRTParser struct {
	log *logging.Logger
}

func NewSRT(log *logging.Logger) *SRTParser {
	return &SRTParser{log: log}
}

// Parse walks the document block by block: an optional index line, a
// timecode line containing "-->", then text lines up to a blank line.
// A missing index line is tolerated by peeking for the timecode directly;
// that heuristic can misfire on text content that itself looks like a
// timecode line, which is a known limit of the format.
func (p *SRTParser) Parse(content string) []cue.Cue {
	var cues []cue.Cue
	lines := splitLines(content)
	i := 0

	for i < len(lines) {
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			break
		}

		line := strings.TrimSpace(lines[i])
		switch {
		case isDigits(line):
			i++ // index line; the sequence number itself is not kept
		case strings.Contains(line, "-->"):
			// no index line, timecode follows directly
		default:
			i++ // stray content, resume scanning for the next block
			continue
		}
		if i >= len(lines) {
			break
		}

		timeLine := strings.TrimSpace(lines[i])
		if !strings.Contains(timeLine, "-->") {
			p.log.Warnw("Skipping malformed SRT time line", "line", timeLine)
			i++
			continue
		}

		startText, endText, _ := strings.Cut(timeLine, "-->")
		startTime, startErr := timecode.Parse(strings.TrimSpace(startText), timecode.DialectSRT)
		endTime, endErr := timecode.Parse(strings.TrimSpace(endText), timecode.DialectSRT)
		if startErr != nil || endErr != nil {
			p.log.Warnw("Skipping SRT block with unparseable timecodes", "line", timeLine)
			i++
			continue
		}
		i++

		var textLines []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			textLines = append(textLines, strings.TrimSpace(lines[i]))
			i++
		}

		if len(textLines) == 0 {
			p.log.Warnw("Discarding SRT block without text", "start", startTime)
			continue
		}
		if startTime >= endTime {
			p.log.Warnw("Discarding SRT block with zero or negative duration",
				"start", startTime, "end", endTime)
			continue
		}

		cues = append(cues, cue.Cue{
			ID:           cue.NewID(),
			StartTime:    startTime,
			EndTime:      endTime,
			OriginalText: strings.Join(textLines, "\n"),
		})
	}

	return cues
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
