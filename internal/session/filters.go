package session

import "codeberg.org/snonux/nori/internal/booru"

// DefaultAllowedRatings is the safe-search preference used when none is set
const DefaultAllowedRatings = "s u"

// Filters hides images from a result. The zero value hides nothing.
type Filters struct {
	Excluded  []booru.SafeSearchRating
	Blacklist []booru.Tag
}

// FiltersFromPreferences builds Filters from the stored preference strings:
// a space-separated list of allowed rating codes and a space-separated tag
// blacklist. An empty allowed list falls back to DefaultAllowedRatings.
func FiltersFromPreferences(allowedRatings, tagBlacklist string) Filters {
	allowed := booru.ParseRatings(allowedRatings)
	if len(allowed) == 0 {
		allowed = booru.ParseRatings(DefaultAllowedRatings)
	}
	return Filters{
		Excluded:  booru.ExcludedRatings(allowed),
		Blacklist: booru.TagsFromString(tagBlacklist),
	}
}

// Apply removes every filtered image from r
func (f Filters) Apply(r *booru.SearchResult) {
	r.FilterRatings(f.Excluded...)
	r.FilterTags(f.Blacklist...)
}
