package parser

import (
	"regexp"
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/logging"
	"github.com/subweaver/subweaver/internal/timecode"
)

var assOverrideTagRegex = regexp.MustCompile(`\{.*?\}`)

// line-oriented ASS/SSA parser; only the [Events] section matters
type ASSParser struct {
	log *logging.Logger
}

func NewASS(log *logging.Logger) *ASSParser {
	return &ASSParser{log: log}
}

// Parse collects Dialogue lines from the [Events] section. Field positions
// come from the most recent Format declaration, so Dialogue fields are
// looked up by name, not by fixed index. All commas from the text field
// onward belong to the text value.
func (p *ASSParser) Parse(content string) []cue.Cue {
	var cues []cue.Cue
	var formatFields []string
	inEvents := false

	for _, line := range splitLines(content) {
		trimmed := strings.TrimSpace(line)

		if strings.EqualFold(trimmed, "[events]") {
			inEvents = true
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			inEvents = false
			continue
		}
		if !inEvents {
			continue
		}

		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "format:") {
			formatFields = nil
			for _, field := range strings.Split(trimmed[len("format:"):], ",") {
				formatFields = append(formatFields, strings.ToLower(strings.TrimSpace(field)))
			}
			continue
		}

		if !strings.HasPrefix(lower, "dialogue:") {
			continue
		}
		if len(formatFields) == 0 {
			p.log.Warnw("Skipping Dialogue line before any Format declaration", "line", trimmed)
			continue
		}

		values := strings.Split(strings.TrimSpace(trimmed[len("dialogue:"):]), ",")

		textIdx := fieldIndex(formatFields, "text")
		startIdx := fieldIndex(formatFields, "start")
		endIdx := fieldIndex(formatFields, "end")
		if textIdx < 0 || startIdx < 0 || endIdx < 0 {
			p.log.Warnw("Skipping Dialogue line: Format lacks start/end/text fields", "line", trimmed)
			continue
		}
		if startIdx >= len(values) || endIdx >= len(values) || textIdx >= len(values) {
			p.log.Warnw("Skipping Dialogue line with too few fields", "line", trimmed)
			continue
		}

		startTime, startErr := timecode.Parse(values[startIdx], timecode.DialectASS)
		endTime, endErr := timecode.Parse(values[endIdx], timecode.DialectASS)
		if startErr != nil || endErr != nil {
			p.log.Warnw("Skipping Dialogue line with unparseable times", "line", trimmed)
			continue
		}

		// the text itself may contain commas
		text := strings.Join(values[textIdx:], ",")
		text = strings.ReplaceAll(text, `\N`, "\n")
		text = strings.ReplaceAll(text, `\n`, "\n")
		text = assOverrideTagRegex.ReplaceAllString(text, "")

		if strings.TrimSpace(text) == "" {
			p.log.Warnw("Skipping Dialogue line without text", "line", trimmed)
			continue
		}
		if startTime >= endTime {
			p.log.Warnw("Skipping Dialogue line with zero or negative duration",
				"start", startTime, "end", endTime)
			continue
		}

		cues = append(cues, cue.Cue{
			ID:           cue.NewID(),
			StartTime:    startTime,
			EndTime:      endTime,
			OriginalText: text,
		})
	}

	return cues
}

// fieldIndex returns the position of name in the captured Format fields.
func fieldIndex(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}
