package caption

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Serialize renders the document in SRT wire format: index line, timing
// line, text lines, blank separator after every block.
func Serialize(d Document) string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		fmt.Fprintf(&sb, "%d\n", b.Index)
		fmt.Fprintf(&sb, "%s %s %s\n", FormatTimestamp(b.Start), TimingDelimiter, FormatTimestamp(b.End))
		for _, line := range b.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteFile writes the document to path, replacing it atomically.
func WriteFile(path string, d Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(Serialize(d)), 0o644); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace captions: %w", err)
	}
	return nil
}

// FormatTimestamp formats time.Duration to SRT time format
func FormatTimestamp(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
