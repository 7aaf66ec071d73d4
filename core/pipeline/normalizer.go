package pipeline

import (
	"strings"
	"unicode"
)

// abbreviationSegments are comma-separated segments that continue the
// preceding name instead of starting a new one, e.g. "Washington, D.C."
// or "Acme, Inc."
var abbreviationSegments = []string{
	"D.C.", "U.S.", "U.K.", "Jr.", "Sr.", "Inc.", "Ltd.",
}

// leadingArticles are stripped or prepended when generating name variations
var leadingArticles = []string{"the ", "a ", "an "}

// namePunctuation is removed for the punctuation-stripped name variation
const namePunctuation = `.,!?;:'"()-`

// Variations returns the search variations for a raw name: the name
// itself, the name without a leading article, the name with "the "
// prepended, and the name with punctuation stripped. The result is
// deduplicated and order-preserving.
func Variations(name string) []string {
	trimmed := strings.TrimSpace(name)
	candidates := []string{trimmed}

	lower := strings.ToLower(trimmed)
	for _, article := range leadingArticles {
		if strings.HasPrefix(lower, article) {
			candidates = append(candidates, strings.TrimSpace(trimmed[len(article):]))
			break
		}
	}

	if !strings.HasPrefix(lower, "the ") {
		candidates = append(candidates, "the "+trimmed)
	}

	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(namePunctuation, r) {
			return -1
		}
		return r
	}, trimmed)
	candidates = append(candidates, strings.TrimSpace(stripped))

	seen := make(map[string]bool, len(candidates))
	variations := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		variations = append(variations, candidate)
	}

	return variations
}

// SplitMentionList splits a comma-joined mention string into individual
// names. A comma is a split point only if the text following it starts
// with an uppercase letter and is not itself a known abbreviation, so
// "Washington, D.C." stays one name while "Mr. Smith, Mrs. Jones" splits
// into two. Empty segments are dropped.
func SplitMentionList(text string) []string {
	segments := strings.Split(text, ",")

	var names []string
	var current string
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if current == "" {
			current = segment
			continue
		}
		if startsUppercase(segment) && !isAbbreviationSegment(segment) {
			names = append(names, current)
			current = segment
			continue
		}
		current = current + ", " + segment
	}
	if current != "" {
		names = append(names, current)
	}

	return names
}

func startsUppercase(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func isAbbreviationSegment(s string) bool {
	for _, token := range abbreviationSegments {
		if s == token {
			return true
		}
	}
	return false
}
