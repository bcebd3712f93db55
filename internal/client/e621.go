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
	e621DefaultLimit = 75
	// e621 asks API users to stay at or below two requests per second
	e621RateLimit = 2
)

// E621Client talks to the e621/e926 JSON API
type E621Client struct {
	*engine
}

func newE621(s Settings, o *options) SearchClient {
	c := &E621Client{}
	c.engine = newEngine("e621", s, c, o, e621DefaultLimit)
	c.rateLimit = newRateLimiter(e621RateLimit, time.Second)
	return c
}

type e621Posts struct {
	Posts []e621Post `json:"posts"`
}

type e621Post struct {
	ID        int    `json:"id"`
	CreatedAt string `json:"created_at"`
	File      struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		MD5    string `json:"md5"`
		URL    string `json:"url"`
	} `json:"file"`
	Preview struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		URL    string `json:"url"`
	} `json:"preview"`
	Sample struct {
		Has    bool   `json:"has"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
		URL    string `json:"url"`
	} `json:"sample"`
	Score struct {
		Total int `json:"total"`
	} `json:"score"`
	Tags struct {
		General   []string `json:"general"`
		Species   []string `json:"species"`
		Character []string `json:"character"`
		Copyright []string `json:"copyright"`
		Artist    []string `json:"artist"`
		Lore      []string `json:"lore"`
		Meta      []string `json:"meta"`
	} `json:"tags"`
	Flags struct {
		Deleted bool `json:"deleted"`
	} `json:"flags"`
	Rating  string   `json:"rating"`
	Sources []string `json:"sources"`
}

// DefaultQuery returns a work-safe query
func (c *E621Client) DefaultQuery() string {
	return "rating:s score:>50"
}

// RequiresAuthentication reports that an API key is accepted but not needed
func (c *E621Client) RequiresAuthentication() AuthenticationType {
	return AuthOptional
}

func (c *E621Client) searchURL(tags string, page, limit int) string {
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

func (c *E621Client) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	var resp e621Posts
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	base := strings.TrimRight(c.settings.Endpoint, "/")
	images := make([]booru.Image, 0, len(resp.Posts))
	for _, p := range resp.Posts {
		// withheld files keep their md5 but lose the url
		if p.Flags.Deleted || (p.File.URL == "" && p.File.MD5 != "") {
			continue
		}

		img := booru.Image{
			FileURL:            absoluteURL(c.settings.Endpoint, p.File.URL),
			PreviewURL:         absoluteURL(c.settings.Endpoint, p.Preview.URL),
			Width:              p.File.Width,
			Height:             p.File.Height,
			PreviewWidth:       p.Preview.Width,
			PreviewHeight:      p.Preview.Height,
			Tags:               e621Tags(p),
			SafeSearchRating:   booru.ParseRating(p.Rating),
			Score:              p.Score.Total,
			CreatedAt:          parseTime(p.CreatedAt, time.RFC3339Nano),
			MD5:                p.File.MD5,
			SearchPage:         page,
			SearchPagePosition: len(images),
		}
		if p.ID > 0 {
			img.ID = strconv.Itoa(p.ID)
			img.WebURL = base + "/posts/" + img.ID
		}
		if len(p.Sources) > 0 {
			img.Source = p.Sources[0]
		}
		if p.Sample.Has && p.Sample.URL != "" {
			img.SampleURL = absoluteURL(c.settings.Endpoint, p.Sample.URL)
			img.SampleWidth, img.SampleHeight = p.Sample.Width, p.Sample.Height
		} else {
			img.SampleURL = img.FileURL
			img.SampleWidth, img.SampleHeight = img.Width, img.Height
		}

		if err := checkImage(&img, len(images)); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func e621Tags(p e621Post) []booru.Tag {
	var tags []booru.Tag
	add := func(names []string, t booru.TagType) {
		for _, n := range names {
			tags = append(tags, booru.Tag{Name: n, Type: t})
		}
	}
	add(p.Tags.Artist, booru.TagArtist)
	add(p.Tags.Character, booru.TagCharacter)
	add(p.Tags.Copyright, booru.TagCopyright)
	add(p.Tags.Species, booru.TagGeneral)
	add(p.Tags.General, booru.TagGeneral)
	add(p.Tags.Lore, booru.TagMeta)
	add(p.Tags.Meta, booru.TagMeta)
	return tags
}
