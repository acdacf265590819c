package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// paragraphSeparator matches one or more blank lines between paragraph blocks.
var paragraphSeparator = regexp.MustCompile(`\n\s*\n`)

const paragraphJoin = "\n\n"

// Sections cuts text into the spans owned by each header.
// Text before the first header belongs to no section.
func Sections(text string, headers []HeaderMatch) []Section {
	sections := make([]Section, 0, len(headers))
	for i, header := range headers {
		endPos := len(text)
		if i < len(headers)-1 {
			endPos = headers[i+1].Position
		}
		sections = append(sections, Section{
			StartPos:    header.Position,
			EndPos:      endPos,
			HeaderText:  header.Text,
			HeaderLevel: header.Level,
		})
	}
	return sections
}

// splitByHeaders turns each section into one piece, or into several when the section
// exceeds maxSize. Without headers the whole text goes through the paragraph fallback.
func splitByHeaders(text string, headers []HeaderMatch, chunkSize, maxSize int) []piece {
	if len(headers) == 0 {
		return splitByParagraphs(text, chunkSize)
	}

	var pieces []piece
	for _, section := range Sections(text, headers) {
		sectionText := strings.TrimSpace(text[section.StartPos:section.EndPos])

		if utf8.RuneCountInString(sectionText) > maxSize {
			pieces = append(pieces, splitLargeSection(sectionText, section, maxSize)...)
			continue
		}

		pieces = append(pieces, piece{
			text:        sectionText,
			header:      section.HeaderText,
			headerLevel: section.HeaderLevel,
		})
	}
	return pieces
}

// splitLargeSection packs the paragraphs of an oversized section into pieces no larger
// than maxSize. Every overflow flush is partial; the remainder is partial only when
// something was flushed before it.
func splitLargeSection(sectionText string, section Section, maxSize int) []piece {
	var pieces []piece
	flush := func(buf string, partial bool) {
		pieces = append(pieces, piece{
			text:        strings.TrimSpace(buf),
			header:      section.HeaderText,
			headerLevel: section.HeaderLevel,
			isPartial:   partial,
		})
	}

	var buf paragraphBuffer
	for _, para := range paragraphs(sectionText) {
		if buf.overflows(para, maxSize) {
			flush(buf.String(), true)
			buf.reset()
		}
		buf.add(para)
	}

	if !buf.empty() {
		flush(buf.String(), len(pieces) > 0)
	}
	return pieces
}

// splitByParagraphs packs paragraphs up to the target chunk size. A single paragraph
// larger than the target becomes its own piece unchanged.
func splitByParagraphs(text string, chunkSize int) []piece {
	var pieces []piece
	flush := func(buf string) {
		pieces = append(pieces, piece{
			text:      strings.TrimSpace(buf),
			chunkType: ChunkTypeParagraphGroup,
		})
	}

	var buf paragraphBuffer
	for _, para := range paragraphs(text) {
		if buf.overflows(para, chunkSize) {
			flush(buf.String())
			buf.reset()
		}
		buf.add(para)
	}

	if !buf.empty() {
		flush(buf.String())
	}
	return pieces
}

// paragraphs splits on blank lines and drops blocks that are empty once trimmed.
func paragraphs(text string) []string {
	blocks := paragraphSeparator.Split(text, -1)
	result := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block = strings.TrimSpace(block); block != "" {
			result = append(result, block)
		}
	}
	return result
}

// paragraphBuffer accumulates paragraphs, each followed by a blank line.
// The trailing separator counts toward the size checked on overflow.
type paragraphBuffer struct {
	sb    strings.Builder
	runes int
}

func (b *paragraphBuffer) overflows(para string, limit int) bool {
	return b.runes > 0 && b.runes+utf8.RuneCountInString(para) > limit
}

func (b *paragraphBuffer) add(para string) {
	b.sb.WriteString(para)
	b.sb.WriteString(paragraphJoin)
	b.runes += utf8.RuneCountInString(para) + len(paragraphJoin)
}

func (b *paragraphBuffer) reset() {
	b.sb.Reset()
	b.runes = 0
}

func (b *paragraphBuffer) empty() bool {
	return b.runes == 0
}

func (b *paragraphBuffer) String() string {
	return b.sb.String()
}
