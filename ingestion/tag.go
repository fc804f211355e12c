package ingestion

import (
	"slices"
	"strings"

	"financebuddy/core/document"
)

// domainLexicon maps a tag to the lowercase keywords that, if present in a
// chunk's content, contribute that tag. Small and illustrative rather than
// exhaustive — spec.md §4.3(c) calls it "a small domain lexicon".
var domainLexicon = map[string][]string{
	"fixed-income":  {"bond", "duration", "yield", "coupon", "maturity"},
	"equity":        {"equity", "stock", "dividend", "beta"},
	"derivatives":   {"option", "future", "swap", "hedge"},
	"compliance":    {"suitability", "disclosure", "fiduciary"},
	"risk":          {"var", "volatility", "drawdown", "risk"},
	"taxation":      {"tax", "deduction", "capital gain"},
	"retirement":    {"ira", "401(k)", "annuity", "pension"},
}

// deriveTags combines declared metadata tags, lexicon keyword matches
// against lowercase content, and the document type itself (spec.md §4.3(c)).
// The result is deduplicated and stable-ordered: declared tags first, then
// lexicon matches in map-stable (sorted) order, then the type tag.
func deriveTags(content string, declared []string, typ document.Type) []string {
	lower := strings.ToLower(content)

	seen := make(map[string]bool, len(declared)+len(domainLexicon)+1)
	var tags []string

	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, t := range declared {
		add(t)
	}

	lexiconTags := make([]string, 0, len(domainLexicon))
	for tag := range domainLexicon {
		lexiconTags = append(lexiconTags, tag)
	}
	slices.Sort(lexiconTags)

	for _, tag := range lexiconTags {
		for _, keyword := range domainLexicon[tag] {
			if strings.Contains(lower, keyword) {
				add(tag)
				break
			}
		}
	}

	add(string(typ))

	return tags
}
