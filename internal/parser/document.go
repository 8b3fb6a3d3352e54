package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Line is a read-only view of one document line
type Line struct {
	Number              int    // 0-indexed
	Text                string // Without the line terminator
	FirstNonWhitespace  int    // Byte offset of the first non-whitespace character
	IsEmptyOrWhitespace bool
}

// Lines is the document accessor the scanner depends on.
// LineAt may panic for an index outside [0, LineCount()).
type Lines interface {
	LineCount() int
	LineAt(i int) Line
}

// Canceller is polled between lines; returning true aborts the scan
type Canceller interface {
	Cancelled() bool
}

// CancellerFunc adapts a plain function to Canceller
type CancellerFunc func() bool

func (f CancellerFunc) Cancelled() bool { return f() }

// ContextCanceller reports cancellation once ctx is done
func ContextCanceller(ctx context.Context) Canceller {
	return CancellerFunc(func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	})
}

// TextDocument is an in-memory snapshot of a document's content
type TextDocument struct {
	lines []string
}

// NewTextDocument splits content into lines. \n, \r\n and a lone \r all end a line.
func NewTextDocument(content string) *TextDocument {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			lines = append(lines, content[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, content[start:i])
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	lines = append(lines, content[start:])
	return &TextDocument{lines: lines}
}

func (d *TextDocument) LineCount() int {
	return len(d.lines)
}

func (d *TextDocument) LineAt(i int) Line {
	if i < 0 || i >= len(d.lines) {
		panic(fmt.Sprintf("parser: line %d out of range [0, %d)", i, len(d.lines)))
	}

	text := d.lines[i]
	first := strings.IndexFunc(text, func(r rune) bool { return !unicode.IsSpace(r) })
	if first < 0 {
		return Line{Number: i, Text: text, FirstNonWhitespace: len(text), IsEmptyOrWhitespace: true}
	}
	return Line{Number: i, Text: text, FirstNonWhitespace: first}
}
