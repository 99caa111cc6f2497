package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// timecode literal syntax used by a subtitle format
type Dialect int

const (
	// HH:MM:SS,mmm (comma milliseconds); VTT rewrites the comma to a
	// period at serialization time only
	DialectSRT Dialect = iota
	// H:MM:SS.cc (centiseconds, unpadded hour)
	DialectASS
	// clock form, offset form with unit suffix, or bare seconds
	DialectTTML
)

const (
	// fixed frame rate assumed for TTML "f" offsets
	ttmlFramesPerSecond = 30
	// fixed tick rate assumed for TTML "t" offsets
	ttmlTicksPerSecond = 10000000
)

var (
	ttmlClockRegex  = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2}(?:[.,]\d{1,3})?)`)
	ttmlOffsetRegex = regexp.MustCompile(`^(-?\d*\.?\d+)(h|m|s|ms|f|t)?$`)
)

// converts a timecode literal to seconds
func Parse(s string, d Dialect) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timecode")
	}

	switch d {
	case DialectSRT:
		return parseSRT(s)
	case DialectASS:
		return parseASS(s)
	case DialectTTML:
		return parseTTML(s)
	default:
		return 0, fmt.Errorf("unknown timecode dialect %d", d)
	}
}

func parseSRT(s string) (float64, error) {
	timePart, msPart, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("invalid SRT timecode %q: missing millisecond separator", s)
	}

	parts := strings.Split(timePart, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid SRT timecode %q: expected HH:MM:SS,mmm", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid SRT timecode %q: bad hours", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid SRT timecode %q: bad minutes", s)
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("invalid SRT timecode %q: bad seconds", s)
	}
	millis, err := strconv.Atoi(msPart)
	if err != nil {
		return 0, fmt.Errorf("invalid SRT timecode %q: bad milliseconds", s)
	}

	return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + float64(millis)/1000, nil
}

func parseASS(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid ASS timecode %q: expected H:MM:SS.cc", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid ASS timecode %q: bad hours", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid ASS timecode %q: bad minutes", s)
	}
	secs, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ASS timecode %q: bad seconds", s)
	}

	return float64(hours)*3600 + float64(minutes)*60 + secs, nil
}

// TTML accepts several literal forms; each is tried in order and the first
// successful interpretation wins.
func parseTTML(s string) (float64, error) {
	if m := ttmlClockRegex.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		secs, err := strconv.ParseFloat(strings.ReplaceAll(m[3], ",", "."), 64)
		if err == nil {
			return float64(hours)*3600 + float64(minutes)*60 + secs, nil
		}
	}

	if m := ttmlOffsetRegex.FindStringSubmatch(s); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch m[2] {
			case "h":
				return value * 3600, nil
			case "m":
				return value * 60, nil
			case "s", "":
				return value, nil
			case "ms":
				return value / 1000, nil
			case "f":
				return value / ttmlFramesPerSecond, nil
			case "t":
				return value / ttmlTicksPerSecond, nil
			}
		}
	}

	if value, err := strconv.ParseFloat(s, 64); err == nil {
		return value, nil
	}

	return 0, fmt.Errorf("unrecognized TTML timecode %q", s)
}

// converts seconds to a timecode literal in the dialect's canonical form,
// rounding to the dialect's sub-second resolution
func Format(seconds float64, d Dialect, includeSubSecond bool) string {
	if seconds < 0 {
		seconds = 0
	}

	if !includeSubSecond {
		total := int(seconds)
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
	}

	switch d {
	case DialectASS:
		totalCentis := int(math.Round(seconds * 100))
		hours := totalCentis / 360000
		minutes := totalCentis / 6000 % 60
		secs := totalCentis / 100 % 60
		centis := totalCentis % 100
		return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis)
	default:
		totalMillis := int(math.Round(seconds * 1000))
		hours := totalMillis / 3600000
		minutes := totalMillis / 60000 % 60
		secs := totalMillis / 1000 % 60
		millis := totalMillis % 1000
		sep := ","
		if d == DialectTTML {
			sep = "."
		}
		return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, sep, millis)
	}
}
