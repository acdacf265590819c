package search

import (
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
	headerMatchBonus   = float32(0.1)
	vectorWeight       = float32(0.8)
	lexicalWeight      = float32(0.2)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {}, "what": {}, "how": {},
}

// lexicalScore computes a lightweight lexical relevance score for a chunk relative to a query.
// Query terms found in the chunk's section header earn a bonus.
// The result is clamped to [0, maxLexicalScore] so it can be blended with vector scores.
func lexicalScore(query, chunkText, header string) float32 {
	queryTokens := filterStopwords(tokenize(query))
	if len(queryTokens) == 0 {
		return 0
	}

	chunkTokens := tokenize(chunkText)
	if len(chunkTokens) == 0 {
		return 0
	}

	chunkFreq := make(map[string]int, len(chunkTokens))
	for _, token := range chunkTokens {
		chunkFreq[token]++
	}

	var rawMatches int
	for _, token := range queryTokens {
		rawMatches += chunkFreq[token]
	}

	score := (float32(rawMatches) / (1 + float32(len(chunkTokens)))) * lexicalLengthScale

	if header != "" {
		headerSet := make(map[string]struct{})
		for _, token := range tokenize(header) {
			headerSet[token] = struct{}{}
		}
		var headerMatches int
		for _, token := range queryTokens {
			if _, ok := headerSet[token]; ok {
				headerMatches++
			}
		}
		score += float32(headerMatches) * headerMatchBonus
	}

	return min(max(score, 0), maxLexicalScore)
}

// blend combines vector and lexical scores into the ranking score.
func blend(vector, lexical float32) float32 {
	return vectorWeight*vector + lexicalWeight*lexical
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	return strings.Fields(builder.String())
}

func filterStopwords(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	return result
}
