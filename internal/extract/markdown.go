package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor renders markdown to plain text.
// Blocks are separated by blank lines. Headings are rewritten as numbered
// outline entries ("1. Intro", "    1.1. Setup") so the header detector sees
// them, with four spaces of indentation per nesting depth.
type MarkdownExtractor struct {
	parser goldmark.Markdown
}

// NewMarkdownExtractor creates a markdown extractor with table support.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

func (m *MarkdownExtractor) Extract(_ context.Context, _ string, content []byte) (string, error) {
	doc := m.parser.Parser().Parse(text.NewReader(content))

	r := &renderer{content: content, base: shallowestHeading(doc)}
	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = r.appendBlock(blocks, n)
	}

	return strings.Join(blocks, "\n\n"), nil
}

// numberedTitle matches headings that already carry a detectable outline number.
var numberedTitle = regexp.MustCompile(`^\d+\.(?:\d+\.)*\s`)

// renderer carries the heading counters across the blocks of one document.
type renderer struct {
	content  []byte
	base     int
	counters [7]int
}

// shallowestHeading returns the smallest top-level heading level, or 1.
func shallowestHeading(doc ast.Node) int {
	base := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && (base == 0 || h.Level < base) {
			base = h.Level
		}
	}
	if base == 0 {
		return 1
	}
	return base
}

// heading renders h as an indented outline entry and advances the counters.
func (r *renderer) heading(h *ast.Heading) string {
	title := strings.Join(strings.Fields(inlineText(h, r.content)), " ")
	if title == "" {
		return ""
	}

	level := max(h.Level, r.base)
	r.counters[level]++
	for k := level + 1; k < len(r.counters); k++ {
		r.counters[k] = 0
	}

	depth := level - r.base + 1
	indent := strings.Repeat(" ", 4*(min(depth, 3)-1))
	if numberedTitle.MatchString(title) {
		return indent + title
	}

	var sb strings.Builder
	for k := r.base; k <= level; k++ {
		if r.counters[k] == 0 {
			r.counters[k] = 1
		}
		sb.WriteString(strconv.Itoa(r.counters[k]))
		sb.WriteByte('.')
	}
	return indent + sb.String() + " " + title
}

// appendBlock renders one block-level node and appends it if non-empty.
func (r *renderer) appendBlock(blocks []string, n ast.Node) []string {
	content := r.content
	var rendered string

	switch node := n.(type) {
	case *ast.Heading:
		rendered = r.heading(node)
	case *ast.Paragraph, *ast.TextBlock:
		rendered = inlineText(node, content)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		rendered = strings.TrimRight(rawLines(node, content), "\n ")
	case *ast.List:
		rendered = r.listText(node)
	case *ast.Blockquote:
		var inner []string
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			inner = r.appendBlock(inner, c)
		}
		rendered = strings.Join(inner, "\n\n")
	case *east.Table:
		rendered = tableText(node, content)
	case *ast.ThematicBreak, *ast.HTMLBlock:
		return blocks
	default:
		rendered = inlineText(node, content)
	}

	if rendered == "" {
		return blocks
	}
	return append(blocks, rendered)
}

// inlineText collects the text of n, keeping source line breaks.
func inlineText(n ast.Node, content []byte) string {
	var sb strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.AutoLink:
			sb.Write(v.Label(content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

func rawLines(n ast.Node, content []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(content))
	}
	return sb.String()
}

// listText renders list items one per line.
// Ordered items use "N)" so they are not mistaken for numbered section headers.
func (r *renderer) listText(list *ast.List) string {
	var lines []string
	num := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		prefix := "- "
		if list.IsOrdered() {
			prefix = strconv.Itoa(num) + ") "
			num++
		}

		var parts []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			parts = r.appendBlock(parts, c)
		}
		lines = append(lines, prefix+strings.Join(parts, "\n"))
	}
	return strings.Join(lines, "\n")
}

// tableText renders each row as cells separated by " | ".
func tableText(table *east.Table, content []byte) string {
	var rows []string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, content))
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}
