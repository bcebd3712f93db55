package booru

import (
	"sort"
	"strings"
	"testing"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		input string
		want  SafeSearchRating
	}{
		{"s", RatingSafe},
		{"safe", RatingSafe},
		{"f", RatingSafe},
		{"g", RatingSafe},
		{"q", RatingQuestionable},
		{"Questionable", RatingQuestionable},
		{"e", RatingExplicit},
		{"x", RatingExplicit},
		{"explicit", RatingExplicit},
		{"u", RatingUndefined},
		{"", RatingUndefined},
		{"bogus", RatingUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseRating(tt.input); got != tt.want {
				t.Errorf("ParseRating(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRatingsRoundTrip(t *testing.T) {
	inputs := []string{"s", "q", "e", "u", "s q", "q e", "s u", "s q e", "e u q", "s q e u"}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := strings.Fields(RatingsString(ParseRatings(in)))
			want := strings.Fields(in)
			sort.Strings(got)
			sort.Strings(want)
			if strings.Join(got, " ") != strings.Join(want, " ") {
				t.Errorf("round trip of %q = %v", in, got)
			}
		})
	}
}

func TestParseRatingsDropsDuplicates(t *testing.T) {
	ratings := ParseRatings("f s  q q")
	if len(ratings) != 2 {
		t.Fatalf("expected 2 ratings, got %v", ratings)
	}
	if ratings[0] != RatingSafe || ratings[1] != RatingQuestionable {
		t.Errorf("unexpected ratings %v", ratings)
	}
}

func TestExcludedRatings(t *testing.T) {
	excluded := ExcludedRatings(ParseRatings("f u"))
	if RatingsString(excluded) != "q e" {
		t.Errorf("ExcludedRatings(f u) = %q, want %q", RatingsString(excluded), "q e")
	}

	if len(ExcludedRatings(ParseRatings("s q e u"))) != 0 {
		t.Error("allowing every rating should exclude nothing")
	}
}
