package chunker

import "regexp"

// HeaderRule is one heading pattern with the level it assigns before indentation.
type HeaderRule struct {
	Name    string
	Pattern *regexp.Regexp
	Level   int
}

// Matches reports whether a trimmed line satisfies the rule.
func (r HeaderRule) Matches(line string) bool {
	return r.Pattern.MatchString(line)
}

var defaultHeaderRules = []HeaderRule{
	// 1. Title, 1.2. Subtitle
	{Name: "numbered", Pattern: regexp.MustCompile(`^(\d+\.(?:\d+\.)*)\s+(.+)$`), Level: 1},
	// IV. Title
	{Name: "roman", Pattern: regexp.MustCompile(`^([IVXLCDM]+)\.\s+(.+)$`), Level: 1},
	// B. Title
	{Name: "lettered", Pattern: regexp.MustCompile(`^([A-Z])\.\s+(.+)$`), Level: 2},
	{Name: "all_caps", Pattern: regexp.MustCompile(`^([A-Z][A-Z\s]{14,})$`), Level: 1},
	// Three or more capitalized words
	{Name: "title_case", Pattern: regexp.MustCompile(`^((?:[A-Z][a-z]+\s+){2,}[A-Z][a-z]+)$`), Level: 2},
	{Name: "colon", Pattern: regexp.MustCompile(`^(.{3,50}):$`), Level: 2},
	{Name: "keyword", Pattern: regexp.MustCompile(`^(Chapter|Section|Part|Article|Appendix)\s+(\d+|[IVXLCDM]+|[A-Z])[\s:-]*(.*)$`), Level: 1},
}

// DefaultHeaderRules returns the heading rules in priority order.
// The first rule that matches a line decides its level.
func DefaultHeaderRules() []HeaderRule {
	rules := make([]HeaderRule, len(defaultHeaderRules))
	copy(rules, defaultHeaderRules)
	return rules
}
