package client

import (
	"net/url"
	"strconv"
	"strings"

	"codeberg.org/snonux/nori/internal/booru"
)

// GelbooruClient talks to the Gelbooru dapi XML endpoint
type GelbooruClient struct {
	*engine
}

func newGelbooru(s Settings, o *options) SearchClient {
	c := &GelbooruClient{}
	c.engine = newEngine("gelbooru", s, c, o, legacyDefaultLimit)
	return c
}

// DefaultQuery returns a work-safe query
func (c *GelbooruClient) DefaultQuery() string {
	return "rating:safe"
}

// RequiresAuthentication reports that a user id and API key are accepted
func (c *GelbooruClient) RequiresAuthentication() AuthenticationType {
	return AuthOptional
}

func (c *GelbooruClient) searchURL(tags string, page, limit int) string {
	params := url.Values{}
	params.Set("page", "dapi")
	params.Set("s", "post")
	params.Set("q", "index")
	params.Set("tags", tags)
	// pid is 0-indexed
	params.Set("pid", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	if c.settings.hasLogin() {
		params.Set("user_id", c.settings.Username)
		params.Set("api_key", c.settings.Password)
	}
	return endpointURL(c.settings.Endpoint, "/index.php", params)
}

func (c *GelbooruClient) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	base := strings.TrimRight(c.settings.Endpoint, "/")
	return parseLegacyXML(body, c.settings.Endpoint, page, func(id string) string {
		return base + "/index.php?page=post&s=view&id=" + url.QueryEscape(id)
	})
}
