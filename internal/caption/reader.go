package caption

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SRT time range format: 00:02:16,612 --> 00:02:19,376
var timingRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// Parse reads an SRT document from r. Index and timing lines are
// whitespace-tolerant; text lines are kept verbatim.
func Parse(r io.Reader) (Document, error) {
	var blocks []Block

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := Block{}
	state := "index" // possible values: "index", "time", "text"
	var textLines []string

	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		line := strings.TrimSpace(raw)

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				return Document{}, fmt.Errorf("expected caption index, got %q", line)
			}
			current.Index = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, err := parseTimeRange(line)
			if err != nil {
				return Document{}, err
			}
			current.Start = start
			current.End = end
			state = "text"
			textLines = nil

		case "text":
			if line == "" {
				// caption text ends
				if len(textLines) == 0 {
					return Document{}, fmt.Errorf("caption %d has no text", current.Index)
				}
				current.Lines = textLines
				blocks = append(blocks, current)
				current = Block{}
				state = "index"
				textLines = nil
			} else {
				textLines = append(textLines, raw)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("read captions: %w", err)
	}

	// handle the last block when the input has no trailing blank line
	switch state {
	case "time":
		return Document{}, fmt.Errorf("caption %d is missing its time range", current.Index)
	case "text":
		if len(textLines) == 0 {
			return Document{}, fmt.Errorf("caption %d has no text", current.Index)
		}
		current.Lines = textLines
		blocks = append(blocks, current)
	}

	return Document{Blocks: blocks}, nil
}

// ParseString parses an SRT document from a string.
func ParseString(s string) (Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes parses an SRT document from raw bytes.
func ParseBytes(b []byte) (Document, error) {
	return Parse(bytes.NewReader(b))
}

func parseTimeRange(line string) (time.Duration, time.Duration, error) {
	matches := timingRe.FindStringSubmatch(line)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time range: %q", line)
	}
	return timestamp(matches[1:5]), timestamp(matches[5:9]), nil
}

func timestamp(parts []string) time.Duration {
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(parts[2])
	ms, _ := strconv.Atoi(parts[3])

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}
