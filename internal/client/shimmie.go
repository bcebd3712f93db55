package client

import (
	"net/url"
	"strconv"
	"strings"

	"codeberg.org/snonux/nori/internal/booru"
)

// ShimmieClient talks to Shimmie2's Danbooru compatibility extension
type ShimmieClient struct {
	*engine
}

func newShimmie(s Settings, o *options) SearchClient {
	c := &ShimmieClient{}
	c.engine = newEngine("shimmie", s, c, o, legacyDefaultLimit)
	return c
}

// DefaultQuery returns a work-safe query
func (c *ShimmieClient) DefaultQuery() string {
	return "rating:safe"
}

// RequiresAuthentication reports that the API is anonymous
func (c *ShimmieClient) RequiresAuthentication() AuthenticationType {
	return AuthNone
}

func (c *ShimmieClient) searchURL(tags string, page, limit int) string {
	params := url.Values{}
	params.Set("tags", tags)
	params.Set("page", strconv.Itoa(page+1))
	params.Set("limit", strconv.Itoa(limit))
	return endpointURL(c.settings.Endpoint, "/api/danbooru/find_posts/index.xml", params)
}

func (c *ShimmieClient) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	base := strings.TrimRight(c.settings.Endpoint, "/")
	return parseLegacyXML(body, c.settings.Endpoint, page, func(id string) string {
		return base + "/post/view/" + id
	})
}
