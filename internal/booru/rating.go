package booru

import "strings"

// SafeSearchRating is the coarse content classification of an image
type SafeSearchRating int

const (
	RatingSafe SafeSearchRating = iota
	RatingQuestionable
	RatingExplicit
	RatingUndefined
)

var allRatings = []SafeSearchRating{RatingSafe, RatingQuestionable, RatingExplicit, RatingUndefined}

// Code returns the short code used in stored preferences
func (r SafeSearchRating) Code() string {
	switch r {
	case RatingSafe:
		return "s"
	case RatingQuestionable:
		return "q"
	case RatingExplicit:
		return "e"
	default:
		return "u"
	}
}

func (r SafeSearchRating) String() string {
	switch r {
	case RatingSafe:
		return "safe"
	case RatingQuestionable:
		return "questionable"
	case RatingExplicit:
		return "explicit"
	default:
		return "undefined"
	}
}

// MarshalText encodes the rating as its short code
func (r SafeSearchRating) MarshalText() ([]byte, error) {
	return []byte(r.Code()), nil
}

// UnmarshalText decodes any form accepted by ParseRating
func (r *SafeSearchRating) UnmarshalText(text []byte) error {
	*r = ParseRating(string(text))
	return nil
}

// ParseRating maps a rating string to a SafeSearchRating.
// Besides s/q/e/u and the long names it accepts the preference aliases
// "f" and "x", and Danbooru's "g"/"general" and "sensitive".
func ParseRating(s string) SafeSearchRating {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "safe", "f", "g", "general":
		return RatingSafe
	case "q", "questionable", "sensitive", "suggestive":
		return RatingQuestionable
	case "e", "explicit", "x":
		return RatingExplicit
	default:
		return RatingUndefined
	}
}

// ParseRatings parses a whitespace-delimited list of rating codes.
// Duplicates are dropped, first occurrence order is kept.
func ParseRatings(s string) []SafeSearchRating {
	var ratings []SafeSearchRating
	seen := make(map[SafeSearchRating]bool)
	for _, field := range strings.Fields(s) {
		r := ParseRating(field)
		if seen[r] {
			continue
		}
		seen[r] = true
		ratings = append(ratings, r)
	}
	return ratings
}

// RatingsString encodes ratings as space-joined short codes
func RatingsString(ratings []SafeSearchRating) string {
	codes := make([]string, len(ratings))
	for i, r := range ratings {
		codes[i] = r.Code()
	}
	return strings.Join(codes, " ")
}

// ExcludedRatings returns every rating not present in allowed
func ExcludedRatings(allowed []SafeSearchRating) []SafeSearchRating {
	var excluded []SafeSearchRating
	for _, r := range allRatings {
		if !containsRating(allowed, r) {
			excluded = append(excluded, r)
		}
	}
	return excluded
}

func containsRating(ratings []SafeSearchRating, r SafeSearchRating) bool {
	for _, candidate := range ratings {
		if candidate == r {
			return true
		}
	}
	return false
}
