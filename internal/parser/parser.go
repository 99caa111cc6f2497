// Package parser turns raw subtitle documents into the canonical cue model.
// Parsers skip malformed blocks and keep going; only a fatal structural
// problem (an unparseable XML payload) fails a whole call. Emitted cue order
// equals source document order and no emitted cue has start >= end.
package parser

import (
	"fmt"
	"strings"

	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/logging"
)

// Parse dispatches raw content to the parser for the given format.
func Parse(content string, format cue.Format, log *logging.Logger) ([]cue.Cue, error) {
	switch format {
	case cue.FormatSRT:
		return NewSRT(log).Parse(content), nil
	case cue.FormatASS:
		return NewASS(log).Parse(content), nil
	case cue.FormatTTML:
		return NewTTML(log).Parse(content)
	case cue.FormatVTT:
		return nil, fmt.Errorf("VTT is an export-only format: convert the file to SRT, ASS, or TTML before importing")
	default:
		return nil, fmt.Errorf("no parser for format %q", format)
	}
}

// splitLines splits on both newline conventions and strips a leading BOM.
func splitLines(content string) []string {
	content = strings.TrimPrefix(content, "\uFEFF")
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}
