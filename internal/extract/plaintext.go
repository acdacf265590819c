package extract

import (
	"bytes"
	"context"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainTextExtractor returns the content as text.
// A leading BOM is stripped and invalid UTF-8 is replaced.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, _ string, content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	return strings.ToValidUTF8(string(content), "\uFFFD"), nil
}
