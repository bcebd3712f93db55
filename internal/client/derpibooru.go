package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"codeberg.org/snonux/nori/internal/booru"
)

const (
	derpibooruLimit         = 50
	derpibooruThumbnailSize = 250
	derpibooruSampleSize    = 800
	// the site's unfiltered "Everything" filter; ratings are filtered client side
	derpibooruFilterID = "56027"
)

// Rating tag ids. Every image carries exactly one of them.
const (
	derpibooruTagSafe         = 40482
	derpibooruTagSuggestive   = 43502
	derpibooruTagQuestionable = 39068
	derpibooruTagExplicit     = 26707
)

// DerpibooruClient talks to the Philomena search API used by Derpibooru
type DerpibooruClient struct {
	*engine
}

func newDerpibooru(s Settings, o *options) SearchClient {
	c := &DerpibooruClient{}
	// the API caps perpage at 50, so the page size is not configurable
	o2 := *o
	o2.pageSize = 0
	c.engine = newEngine("derpibooru", s, c, &o2, derpibooruLimit)
	return c
}

type derpibooruSearch struct {
	Search []derpibooruImage `json:"search"`
	Images []derpibooruImage `json:"images"`
	Total  int               `json:"total"`
}

type derpibooruImage struct {
	ID              int    `json:"id"`
	CreatedAt       string `json:"created_at"`
	Tags            string `json:"tags"`
	TagIDs          []int  `json:"tag_ids"`
	Score           int    `json:"score"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	SHA512Hash      string `json:"sha512_hash"`
	SourceURL       string `json:"source_url"`
	Representations struct {
		Thumb string `json:"thumb"`
		Large string `json:"large"`
		Full  string `json:"full"`
	} `json:"representations"`
}

// DefaultQuery returns a work-safe query
func (c *DerpibooruClient) DefaultQuery() string {
	return "safe, score.gte:50"
}

// RequiresAuthentication reports that an API key is accepted but not needed
func (c *DerpibooruClient) RequiresAuthentication() AuthenticationType {
	return AuthOptional
}

func (c *DerpibooruClient) searchURL(tags string, page, limit int) string {
	params := url.Values{}
	params.Set("q", tags)
	params.Set("page", strconv.Itoa(page+1))
	params.Set("perpage", strconv.Itoa(limit))
	params.Set("filter_id", derpibooruFilterID)
	if c.settings.Password != "" && derpibooruNeedsKey(tags) {
		params.Set("key", c.settings.Password)
	}
	return endpointURL(c.settings.Endpoint, "/search.json", params)
}

// derpibooruNeedsKey reports whether the query uses a user-scoped term such
// as my:faves, which only works with an API key.
func derpibooruNeedsKey(tags string) bool {
	for _, term := range strings.Split(tags, ",") {
		term = strings.TrimLeft(strings.TrimSpace(term), "-!")
		if strings.HasPrefix(strings.ToLower(term), "my:") {
			return true
		}
	}
	return false
}

func (c *DerpibooruClient) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	var resp derpibooruSearch
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search: %w", err)
	}
	items := resp.Search
	if items == nil {
		items = resp.Images
	}

	base := strings.TrimRight(c.settings.Endpoint, "/")
	images := make([]booru.Image, 0, len(items))
	for i, item := range items {
		img := booru.Image{
			FileURL:            absoluteURL(c.settings.Endpoint, item.Representations.Full),
			SampleURL:          absoluteURL(c.settings.Endpoint, item.Representations.Large),
			PreviewURL:         absoluteURL(c.settings.Endpoint, item.Representations.Thumb),
			Width:              item.Width,
			Height:             item.Height,
			SampleWidth:        derpibooruSampleSize,
			SampleHeight:       derpibooruSampleSize,
			PreviewWidth:       derpibooruThumbnailSize,
			PreviewHeight:      derpibooruThumbnailSize,
			Tags:               derpibooruTags(item.Tags),
			SafeSearchRating:   derpibooruRating(item.TagIDs),
			Score:              item.Score,
			CreatedAt:          parseTime(item.CreatedAt, time.RFC3339Nano),
			Source:             item.SourceURL,
			MD5:                item.SHA512Hash,
			SearchPage:         page,
			SearchPagePosition: i,
		}
		if item.ID > 0 {
			img.ID = strconv.Itoa(item.ID)
			img.WebURL = base + "/" + img.ID
		}

		if err := checkImage(&img, i); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// derpibooruRating picks the rating from the first rating tag id found
func derpibooruRating(tagIDs []int) booru.SafeSearchRating {
	for _, id := range tagIDs {
		switch id {
		case derpibooruTagSafe:
			return booru.RatingSafe
		case derpibooruTagSuggestive, derpibooruTagQuestionable:
			return booru.RatingQuestionable
		case derpibooruTagExplicit:
			return booru.RatingExplicit
		}
	}
	return booru.RatingUndefined
}

// derpibooruTags splits the comma-separated tag list and guesses tag types
func derpibooruTags(s string) []booru.Tag {
	tags := booru.TagsFromDelimited(s, ",")
	for i := range tags {
		tags[i].Type = derpibooruTagType(tags[i].Name)
	}
	return tags
}

func derpibooruTagType(name string) booru.TagType {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "artist:"), strings.HasPrefix(lower, "editor:"):
		return booru.TagArtist
	case strings.HasPrefix(lower, "oc:"):
		return booru.TagCharacter
	}
	if _, ok := derpibooruCharacters[lower]; ok {
		return booru.TagCharacter
	}
	return booru.TagGeneral
}
