package cue

import (
	"path/filepath"
	"strings"
)

// a subtitle interchange format
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatASS  Format = "ass"
	FormatTTML Format = "ttml"
)

// FormatFromExtension maps a file extension to its format. TTML covers the
// XML dialects YouTube serves.
func FormatFromExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	case ".ass", ".ssa":
		return FormatASS, true
	case ".xml", ".ttml", ".dfxp":
		return FormatTTML, true
	default:
		return "", false
	}
}

// ExtensionForFormat returns the conventional file extension.
func ExtensionForFormat(f Format) string {
	switch f {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatTTML:
		return ".xml"
	default:
		return ".srt"
	}
}
