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
	danbooruDefaultLimit = 100
	danbooruSampleWidth  = 850
	danbooruPreviewSize  = 180
)

// DanbooruClient talks to the Danbooru 2 JSON API
type DanbooruClient struct {
	*engine
}

func newDanbooru(s Settings, o *options) SearchClient {
	c := &DanbooruClient{}
	c.engine = newEngine("danbooru", s, c, o, danbooruDefaultLimit)
	return c
}

type danbooruPost struct {
	ID                 int    `json:"id"`
	CreatedAt          string `json:"created_at"`
	Score              int    `json:"score"`
	Source             string `json:"source"`
	MD5                string `json:"md5"`
	Rating             string `json:"rating"`
	ImageWidth         int    `json:"image_width"`
	ImageHeight        int    `json:"image_height"`
	TagStringGeneral   string `json:"tag_string_general"`
	TagStringArtist    string `json:"tag_string_artist"`
	TagStringCharacter string `json:"tag_string_character"`
	TagStringCopyright string `json:"tag_string_copyright"`
	TagStringMeta      string `json:"tag_string_meta"`
	FileURL            string `json:"file_url"`
	LargeFileURL       string `json:"large_file_url"`
	PreviewFileURL     string `json:"preview_file_url"`
	IsBanned           bool   `json:"is_banned"`
}

// DefaultQuery returns a work-safe query
func (c *DanbooruClient) DefaultQuery() string {
	return "rating:general"
}

// RequiresAuthentication reports that an API key is accepted but not needed
func (c *DanbooruClient) RequiresAuthentication() AuthenticationType {
	return AuthOptional
}

func (c *DanbooruClient) searchURL(tags string, page, limit int) string {
	params := url.Values{}
	params.Set("tags", tags)
	params.Set("page", strconv.Itoa(page+1))
	params.Set("limit", strconv.Itoa(limit))
	if c.settings.hasLogin() {
		params.Set("login", c.settings.Username)
		params.Set("api_key", c.settings.Password)
	}
	return endpointURL(c.settings.Endpoint, "/posts.json", params)
}

func (c *DanbooruClient) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	var posts []danbooruPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	images := make([]booru.Image, 0, len(posts))
	for _, p := range posts {
		// posts hidden from anonymous users come back without md5 or urls
		if p.FileURL == "" && (p.IsBanned || p.MD5 == "") {
			continue
		}

		img := booru.Image{
			FileURL:            absoluteURL(c.settings.Endpoint, p.FileURL),
			SampleURL:          absoluteURL(c.settings.Endpoint, p.LargeFileURL),
			PreviewURL:         absoluteURL(c.settings.Endpoint, p.PreviewFileURL),
			Width:              p.ImageWidth,
			Height:             p.ImageHeight,
			Tags:               danbooruTags(p),
			SafeSearchRating:   danbooruRating(p.Rating),
			Score:              p.Score,
			CreatedAt:          parseTime(p.CreatedAt, time.RFC3339Nano),
			Source:             p.Source,
			MD5:                p.MD5,
			SearchPage:         page,
			SearchPagePosition: len(images),
		}
		if p.ID > 0 {
			img.ID = strconv.Itoa(p.ID)
			img.WebURL = strings.TrimRight(c.settings.Endpoint, "/") + "/posts/" + img.ID
		}
		if img.SampleURL == "" {
			img.SampleURL = img.FileURL
		}
		img.SampleWidth, img.SampleHeight = scaleToWidth(p.ImageWidth, p.ImageHeight, danbooruSampleWidth)
		img.PreviewWidth, img.PreviewHeight = scaleToFit(p.ImageWidth, p.ImageHeight, danbooruPreviewSize)

		if err := checkImage(&img, len(images)); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func danbooruTags(p danbooruPost) []booru.Tag {
	var tags []booru.Tag
	tags = append(tags, typedTags(p.TagStringArtist, booru.TagArtist)...)
	tags = append(tags, typedTags(p.TagStringCharacter, booru.TagCharacter)...)
	tags = append(tags, typedTags(p.TagStringCopyright, booru.TagCopyright)...)
	tags = append(tags, typedTags(p.TagStringGeneral, booru.TagGeneral)...)
	tags = append(tags, typedTags(p.TagStringMeta, booru.TagMeta)...)
	return tags
}

// danbooruRating maps Danbooru's g/s/q/e. "s" is sensitive here, not safe.
func danbooruRating(r string) booru.SafeSearchRating {
	switch strings.ToLower(r) {
	case "g", "general":
		return booru.RatingSafe
	case "s", "sensitive", "q", "questionable":
		return booru.RatingQuestionable
	case "e", "explicit":
		return booru.RatingExplicit
	default:
		return booru.RatingUndefined
	}
}

// typedTags splits a space-separated tag string, giving every tag type t
func typedTags(s string, t booru.TagType) []booru.Tag {
	tags := booru.TagsFromString(s)
	for i := range tags {
		tags[i].Type = t
	}
	return tags
}
