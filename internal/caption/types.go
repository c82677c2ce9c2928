package caption

import (
	"fmt"
	"strings"
	"time"
)

// Block is a single caption entry: sequence index, time range and text lines.
type Block struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Text joins the block's lines with newlines.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Document is an ordered sequence of caption blocks.
type Document struct {
	Blocks []Block
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	blocks := make([]Block, len(d.Blocks))
	for i, b := range d.Blocks {
		lines := make([]string, len(b.Lines))
		copy(lines, b.Lines)
		b.Lines = lines
		blocks[i] = b
	}
	return Document{Blocks: blocks}
}

// TextLines returns every text line of the document in order.
func (d Document) TextLines() []string {
	var lines []string
	for _, b := range d.Blocks {
		lines = append(lines, b.Lines...)
	}
	return lines
}

// Validate checks the document invariants: 1-based gap-free indices,
// start before end, non-decreasing start times across blocks and at
// least one non-blank text line per block.
func (d Document) Validate() error {
	var prevStart time.Duration
	for i, b := range d.Blocks {
		if b.Index != i+1 {
			return fmt.Errorf("block %d: index %d out of sequence", i+1, b.Index)
		}
		if b.Start >= b.End {
			return fmt.Errorf("block %d: start %s not before end %s", b.Index, FormatTimestamp(b.Start), FormatTimestamp(b.End))
		}
		if b.Start < prevStart {
			return fmt.Errorf("block %d: starts before previous block", b.Index)
		}
		if len(b.Lines) == 0 {
			return fmt.Errorf("block %d: no text lines", b.Index)
		}
		for _, line := range b.Lines {
			if strings.TrimSpace(line) == "" {
				return fmt.Errorf("block %d: blank text line", b.Index)
			}
		}
		prevStart = b.Start
	}
	return nil
}
