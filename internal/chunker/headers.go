package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minHeaderLength = 3
	maxHeaderLevel  = 3
	indentPerLevel  = 4
)

// DetectHeaders scans text line by line with the default rules.
func DetectHeaders(text string) []HeaderMatch {
	return detectHeaders(text, defaultHeaderRules)
}

// detectHeaders returns header occurrences ordered by position.
// Positions are byte offsets; every line advances the offset by its length plus the
// removed newline, whether or not it matched.
func detectHeaders(text string, rules []HeaderRule) []HeaderMatch {
	var headers []HeaderMatch
	currentPos := 0

	for lineNum, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) < minHeaderLength {
			currentPos += len(line) + 1
			continue
		}

		for _, rule := range rules {
			if !rule.Matches(trimmed) {
				continue
			}
			level := rule.Level + indentation(line)/indentPerLevel
			headers = append(headers, HeaderMatch{
				Position:   currentPos,
				Level:      min(level, maxHeaderLevel),
				Text:       trimmed,
				LineNumber: lineNum,
			})
			break
		}

		currentPos += len(line) + 1
	}

	return headers
}

// indentation counts leading whitespace characters.
func indentation(line string) int {
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	return utf8.RuneCountInString(line[:len(line)-len(rest)])
}
