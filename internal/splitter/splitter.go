// Package splitter divides long documents into ordered, bounded chunks for
// independent card generation.
package splitter

import (
	"strings"
)

// Chunk is a bounded contiguous slice of a source document. Chunks of one
// document are contiguous and index-ordered.
type Chunk struct {
	Index   int
	Title   string
	Content string
}

// Splitter produces ordered chunks from a full document. Implementations
// must be pure: same input, same chunks.
type Splitter interface {
	Split(text string, maxChunkSize int) []Chunk
}

// DefaultMaxChunkSize bounds chunk content length in runes when the caller
// passes no explicit limit.
const DefaultMaxChunkSize = 3000

// MarkdownSplitter splits on markdown headings, carrying the heading text
// as the chunk title, and falls back to fixed-size windows for heading-less
// documents. Sections larger than the limit are split on paragraph breaks.
type MarkdownSplitter struct{}

// NewMarkdownSplitter creates the default document splitter.
func NewMarkdownSplitter() *MarkdownSplitter {
	return &MarkdownSplitter{}
}

// section is an intermediate unit between heading scan and chunk assembly.
type section struct {
	title string
	body  string
}

// Split implements the Splitter interface.
func (s *MarkdownSplitter) Split(text string, maxChunkSize int) []Chunk {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sections := scanSections(text)

	chunks := make([]Chunk, 0, len(sections))
	for _, sec := range sections {
		for _, piece := range splitOversized(sec.body, maxChunkSize) {
			chunks = append(chunks, Chunk{
				Index:   len(chunks),
				Title:   sec.title,
				Content: piece,
			})
		}
	}

	return chunks
}

// scanSections walks the document line by line, starting a new section at
// every markdown heading. Text before the first heading becomes an untitled
// leading section.
func scanSections(text string) []section {
	var sections []section
	var current section
	var body strings.Builder

	flush := func() {
		content := strings.TrimSpace(body.String())
		if content != "" {
			current.body = content
			sections = append(sections, current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if title, ok := headingTitle(line); ok {
			flush()
			current = section{title: title}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

// headingTitle extracts the title from a markdown ATX heading line.
func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return "", false
	}

	return strings.TrimSpace(trimmed[level:]), true
}

// splitOversized breaks a section body into pieces no longer than limit
// runes, preferring paragraph boundaries and hard-splitting paragraphs that
// are themselves over the limit.
func splitOversized(body string, limit int) []string {
	if len([]rune(body)) <= limit {
		return []string{body}
	}

	var pieces []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if piece := strings.TrimSpace(current.String()); piece != "" {
			pieces = append(pieces, piece)
		}
		current.Reset()
		currentLen = 0
	}

	for _, para := range strings.Split(body, "\n\n") {
		runes := []rune(para)

		// Hard-split paragraphs that alone exceed the limit
		for len(runes) > limit {
			flush()
			pieces = append(pieces, strings.TrimSpace(string(runes[:limit])))
			runes = runes[limit:]
		}
		para = string(runes)
		paraLen := len(runes)
		if strings.TrimSpace(para) == "" {
			continue
		}

		if currentLen > 0 && currentLen+paraLen+2 > limit {
			flush()
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(para)
		currentLen += paraLen
	}
	flush()

	return pieces
}
