package client

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"codeberg.org/snonux/nori/internal/booru"
)

const (
	legacyDefaultLimit = 100
	legacyPasswordSalt = "choujin-steiner--%s--"
	gelbooruDateLayout = "Mon Jan 02 15:04:05 -0700 2006"
	shimmieDateLayout  = "2006-01-02 15:04:05"
	legacyPreviewSize  = 150
	legacySampleWidth  = 850
)

// DanbooruLegacyClient talks to the Danbooru 1.x XML API, also served by
// Moebooru sites.
type DanbooruLegacyClient struct {
	*engine
}

func newDanbooruLegacy(s Settings, o *options) SearchClient {
	c := &DanbooruLegacyClient{}
	c.engine = newEngine("danbooru_legacy", s, c, o, legacyDefaultLimit)
	return c
}

// DefaultQuery returns a work-safe query
func (c *DanbooruLegacyClient) DefaultQuery() string {
	return "rating:safe"
}

// RequiresAuthentication reports that a login is accepted but not needed
func (c *DanbooruLegacyClient) RequiresAuthentication() AuthenticationType {
	return AuthOptional
}

func (c *DanbooruLegacyClient) searchURL(tags string, page, limit int) string {
	params := url.Values{}
	params.Set("tags", tags)
	params.Set("page", strconv.Itoa(page+1))
	params.Set("limit", strconv.Itoa(limit))
	if c.settings.hasLogin() {
		params.Set("login", c.settings.Username)
		params.Set("password_hash", legacyPasswordHash(c.settings.Password))
	}
	return endpointURL(c.settings.Endpoint, "/post/index.xml", params)
}

func (c *DanbooruLegacyClient) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	base := strings.TrimRight(c.settings.Endpoint, "/")
	return parseLegacyXML(body, c.settings.Endpoint, page, func(id string) string {
		return base + "/post/show/" + id
	})
}

// legacyPasswordHash is the salted SHA-1 the Danbooru 1 API expects
func legacyPasswordHash(password string) string {
	sum := sha1.Sum([]byte(fmt.Sprintf(legacyPasswordSalt, password)))
	return hex.EncodeToString(sum[:])
}

// legacyPosts covers the XML dialects of Danbooru 1, Gelbooru and Shimmie.
// Shimmie names its items <tag> instead of <post>.
type legacyPosts struct {
	Success string       `xml:"success,attr"`
	Reason  string       `xml:"reason,attr"`
	Posts   []legacyPost `xml:"post"`
	Tags    []legacyPost `xml:"tag"`
}

type legacyPost struct {
	ID            string     `xml:"id,attr"`
	Tags          string     `xml:"tags,attr"`
	FileURL       string     `xml:"file_url,attr"`
	SampleURL     string     `xml:"sample_url,attr"`
	PreviewURL    string     `xml:"preview_url,attr"`
	Width         lenientInt `xml:"width,attr"`
	Height        lenientInt `xml:"height,attr"`
	SampleWidth   lenientInt `xml:"sample_width,attr"`
	SampleHeight  lenientInt `xml:"sample_height,attr"`
	PreviewWidth  lenientInt `xml:"preview_width,attr"`
	PreviewHeight lenientInt `xml:"preview_height,attr"`
	Rating        string     `xml:"rating,attr"`
	Score         lenientInt `xml:"score,attr"`
	CreatedAt     string     `xml:"created_at,attr"`
	Date          string     `xml:"date,attr"`
	Source        string     `xml:"source,attr"`
	MD5           string     `xml:"md5,attr"`
}

var errAPIFailure = errors.New("api reported failure")

func parseLegacyXML(body []byte, endpoint string, page int, webURL func(id string) string) ([]booru.Image, error) {
	var doc legacyPosts
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	if doc.Success == "false" {
		return nil, fmt.Errorf("%w: %s", errAPIFailure, doc.Reason)
	}

	posts := doc.Posts
	if len(posts) == 0 {
		posts = doc.Tags
	}

	images := make([]booru.Image, 0, len(posts))
	for i, p := range posts {
		created := p.CreatedAt
		if created == "" {
			created = p.Date
		}

		img := booru.Image{
			ID:                 strings.TrimSpace(p.ID),
			FileURL:            absoluteURL(endpoint, p.FileURL),
			SampleURL:          absoluteURL(endpoint, p.SampleURL),
			PreviewURL:         absoluteURL(endpoint, p.PreviewURL),
			Width:              int(p.Width),
			Height:             int(p.Height),
			SampleWidth:        int(p.SampleWidth),
			SampleHeight:       int(p.SampleHeight),
			PreviewWidth:       int(p.PreviewWidth),
			PreviewHeight:      int(p.PreviewHeight),
			Tags:               booru.TagsFromString(p.Tags),
			SafeSearchRating:   booru.ParseRating(p.Rating),
			Score:              int(p.Score),
			CreatedAt:          parseTime(created, gelbooruDateLayout, shimmieDateLayout, time.RFC3339),
			Source:             p.Source,
			MD5:                p.MD5,
			SearchPage:         page,
			SearchPagePosition: i,
		}
		if err := checkImage(&img, i); err != nil {
			return nil, err
		}

		img.WebURL = webURL(img.ID)
		if img.SampleURL == "" {
			img.SampleURL = img.FileURL
		}
		if img.SampleWidth == 0 || img.SampleHeight == 0 {
			img.SampleWidth, img.SampleHeight = scaleToWidth(img.Width, img.Height, legacySampleWidth)
		}
		if img.PreviewURL == "" {
			img.PreviewURL = img.SampleURL
		}
		if img.PreviewWidth == 0 || img.PreviewHeight == 0 {
			img.PreviewWidth, img.PreviewHeight = scaleToFit(img.Width, img.Height, legacyPreviewSize)
		}

		images = append(images, img)
	}
	return images, nil
}
