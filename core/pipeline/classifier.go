package pipeline

import (
	"strings"

	"github.com/siherrmann/eventgraph/model"
)

// Category label terms from the enrichment lookup, checked in order:
// person wins over organization wins over place.
var (
	personCategoryTerms = []string{"human", "person"}

	organizationCategoryTerms = []string{
		"organization", "organisation", "company", "corporation",
		"institution", "business", "enterprise", "agency",
	}

	placeCategoryTerms = []string{
		"city", "country", "state", "province", "region", "town",
		"village", "capital", "municipality", "island", "river",
		"mountain", "continent", "territory",
	}
)

// Name-pattern fallbacks used when no enrichment data is available
var (
	honorificPrefixes = []string{
		"Mr.", "Mrs.", "Ms.", "Dr.", "Prof.", "Sen.", "Rep.",
		"Gen.", "Col.", "Rev.", "Sir ", "Lady ", "President ",
	}

	honorificSuffixes = []string{
		"Jr.", "Sr.", "II", "III", "IV", "PhD", "M.D.", "Esq.",
	}

	organizationKeywords = []string{
		"corp", "corporation", "inc", "llc", "ltd", "company", "university",
		"institute", "association", "committee", "council",
		"ministry", "department", "agency", "bank", "group",
		"foundation", "party", "union",
	}

	placeKeywords = []string{
		"city", "river", "county", "lake", "mountain", "valley",
		"island", "beach", "park", "district", "province", "street",
		"avenue", "square",
	}
)

// countryNames is a small fixed list used by the place category fallback
var countryNames = []string{
	"United States", "United Kingdom", "France", "Germany", "Italy",
	"Spain", "Russia", "China", "Japan", "India", "Brazil", "Canada",
	"Mexico", "Australia", "Egypt", "Iran", "Iraq", "Israel", "Syria",
	"Turkey", "Ukraine", "Poland", "Netherlands", "Switzerland",
	"Sweden", "Norway", "Greece", "South Korea", "North Korea",
	"Saudi Arabia", "Afghanistan", "Pakistan", "Nigeria", "South Africa",
	"Argentina", "Colombia", "Venezuela", "Cuba",
}

// Classify infers the entity type from enrichment metadata, falling back
// to name patterns. The role hint only skips the enrichment checks when no
// enrichment exists; it never changes the classification outcome.
func Classify(name string, enrichment *model.Enrichment, roleHint model.Role) model.EntityType {
	if enrichment == nil && roleHint != "" {
		return classifyByName(name)
	}

	if enrichment != nil {
		category := strings.ToLower(enrichment.Category)
		if category != "" {
			if containsAny(category, personCategoryTerms) {
				return model.EntityTypePerson
			}
			if containsAny(category, organizationCategoryTerms) {
				return model.EntityTypeOrganization
			}
			if containsAny(category, placeCategoryTerms) {
				return model.EntityTypePlace
			}
		}
		if enrichment.Coordinates != nil {
			return model.EntityTypePlace
		}
	}

	return classifyByName(name)
}

// classifyByName applies the honorific, organization keyword and place
// keyword heuristics, in that order
func classifyByName(name string) model.EntityType {
	trimmed := strings.TrimSpace(name)

	for _, prefix := range honorificPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return model.EntityTypePerson
		}
	}
	for _, suffix := range honorificSuffixes {
		if strings.HasSuffix(trimmed, suffix) {
			return model.EntityTypePerson
		}
	}

	lower := strings.ToLower(trimmed)
	for _, keyword := range organizationKeywords {
		if containsWord(lower, keyword) {
			return model.EntityTypeOrganization
		}
	}
	for _, keyword := range placeKeywords {
		if containsWord(lower, keyword) {
			return model.EntityTypePlace
		}
	}

	return model.EntityTypeUnknown
}

// ClassifyPlaceCategory infers the place subtype for an entity already
// classified as a place. Enrichment category wins over the fixed country
// list, which wins over name substrings.
func ClassifyPlaceCategory(name string, enrichment *model.Enrichment) model.PlaceCategory {
	if enrichment != nil && enrichment.Category != "" {
		category := strings.ToLower(enrichment.Category)
		switch {
		case strings.Contains(category, "country"):
			return model.PlaceCategoryCountry
		case strings.Contains(category, "state"), strings.Contains(category, "province"):
			return model.PlaceCategoryState
		case strings.Contains(category, "city"), strings.Contains(category, "town"),
			strings.Contains(category, "capital"), strings.Contains(category, "municipality"):
			return model.PlaceCategoryCity
		}
	}

	for _, country := range countryNames {
		if strings.EqualFold(name, country) {
			return model.PlaceCategoryCountry
		}
	}

	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "state"), strings.Contains(lower, "province"):
		return model.PlaceCategoryState
	case strings.Contains(lower, "city"), strings.Contains(lower, "town"):
		return model.PlaceCategoryCity
	}

	return model.PlaceCategoryPlace
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// containsWord checks for the keyword bounded by non-letter characters, so
// "inc" does not match inside "Lincoln"
func containsWord(s string, word string) bool {
	index := 0
	for {
		i := strings.Index(s[index:], word)
		if i < 0 {
			return false
		}
		start := index + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(s[start-1])
		afterOK := end == len(s) || !isLetter(s[end])
		if beforeOK && afterOK {
			return true
		}
		index = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
