package caption

import (
	"strings"
	"unicode"
)

// TimingDelimiter separates the start and end timestamps on a timing line.
const TimingDelimiter = "-->"

// LineKind classifies one physical line of a serialized document.
type LineKind int

const (
	// LineBlank separates caption blocks.
	LineBlank LineKind = iota
	// LineStructural is a bare sequence index.
	LineStructural
	// LineTiming carries the start/end timestamp pair.
	LineTiming
	// LineTextual is caption text.
	LineTextual
)

// ClassifyLine reports the kind of a serialized caption line. A line
// that is all digits counts as structural even when it is really
// caption text; digit-only captions are skipped rather than risking a
// rewritten index.
func ClassifyLine(line string) LineKind {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return LineBlank
	}
	if isDigits(trimmed) {
		return LineStructural
	}
	if strings.Contains(line, TimingDelimiter) {
		return LineTiming
	}
	return LineTextual
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
