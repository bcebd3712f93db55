package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"codeberg.org/snonux/nori/internal/booru"
)

const (
	flickrDefaultLimit = 100
	flickrRESTPath     = "/services/rest/"
	flickrExtras       = "date_upload,tags,views,url_q,url_l,url_o,o_dims"
	flickrPhotoPage    = "https://www.flickr.com/photos/"
	flickrStaticURL    = "https://live.staticflickr.com/%s/%s_%s_%s.jpg"
	flickrPreviewSize  = 150
	flickrSampleWidth  = 1024
)

var errFlickrFailure = errors.New("flickr api failure")

// FlickrClient searches public Flickr photos by tag, or lists the
// interestingness feed for an empty query.
type FlickrClient struct {
	*engine
	apiKey string
}

func newFlickr(s Settings, o *options) SearchClient {
	c := &FlickrClient{apiKey: flickrAPIKey(s, o)}
	c.engine = newEngine("flickr", s, c, o, flickrDefaultLimit)
	return c
}

// DefaultQuery is empty, which lists the interestingness feed
func (c *FlickrClient) DefaultQuery() string {
	return ""
}

// RequiresAuthentication reports that no user login is used
func (c *FlickrClient) RequiresAuthentication() AuthenticationType {
	return AuthNone
}

func (c *FlickrClient) searchURL(tags string, page, limit int) string {
	params := flickrParams(c.apiKey, page, limit)
	fields := strings.Fields(tags)
	if len(fields) == 0 {
		params.Set("method", "flickr.interestingness.getList")
	} else {
		params.Set("method", "flickr.photos.search")
		params.Set("tags", strings.Join(fields, ","))
		params.Set("tag_mode", "all")
	}
	return endpointURL(c.settings.Endpoint, flickrRESTPath, params)
}

func (c *FlickrClient) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	return parseFlickr(body, page)
}

// FlickrUserClient lists the public photos of the account whose NSID is
// given as the query.
type FlickrUserClient struct {
	*engine
	apiKey string
}

func newFlickrUser(s Settings, o *options) SearchClient {
	c := &FlickrUserClient{apiKey: flickrAPIKey(s, o)}
	c.engine = newEngine("flickr_user", s, c, o, flickrDefaultLimit)
	return c
}

// DefaultQuery returns the NSID of NASA's public account
func (c *FlickrUserClient) DefaultQuery() string {
	return "35067687@N04"
}

// RequiresAuthentication reports that no user login is used
func (c *FlickrUserClient) RequiresAuthentication() AuthenticationType {
	return AuthNone
}

func (c *FlickrUserClient) searchURL(tags string, page, limit int) string {
	params := flickrParams(c.apiKey, page, limit)
	params.Set("method", "flickr.people.getPublicPhotos")
	params.Set("user_id", strings.TrimSpace(tags))
	return endpointURL(c.settings.Endpoint, flickrRESTPath, params)
}

func (c *FlickrUserClient) parse(body []byte, tags string, page int) ([]booru.Image, error) {
	return parseFlickr(body, page)
}

func flickrAPIKey(s Settings, o *options) string {
	if s.Password != "" {
		return s.Password
	}
	return o.flickrAPIKey
}

func flickrParams(apiKey string, page, limit int) url.Values {
	params := url.Values{}
	params.Set("api_key", apiKey)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	params.Set("extras", flickrExtras)
	// results are always work-safe, so every photo is rated safe
	params.Set("safe_search", "1")
	params.Set("page", strconv.Itoa(page+1))
	params.Set("per_page", strconv.Itoa(limit))
	return params
}

type flickrResponse struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Photos  struct {
		Page  flexInt       `json:"page"`
		Pages flexInt       `json:"pages"`
		Photo []flickrPhoto `json:"photo"`
	} `json:"photos"`
}

type flickrPhoto struct {
	ID         string  `json:"id"`
	Owner      string  `json:"owner"`
	Secret     string  `json:"secret"`
	Server     string  `json:"server"`
	Title      string  `json:"title"`
	DateUpload string  `json:"dateupload"`
	Tags       string  `json:"tags"`
	Views      flexInt `json:"views"`
	URLQ       string  `json:"url_q"`
	WidthQ     flexInt `json:"width_q"`
	HeightQ    flexInt `json:"height_q"`
	URLL       string  `json:"url_l"`
	WidthL     flexInt `json:"width_l"`
	HeightL    flexInt `json:"height_l"`
	URLO       string  `json:"url_o"`
	WidthO     flexInt `json:"width_o"`
	HeightO    flexInt `json:"height_o"`
}

func parseFlickr(body []byte, page int) ([]booru.Image, error) {
	var resp flickrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode photos: %w", err)
	}
	if resp.Stat != "ok" {
		return nil, fmt.Errorf("%w: %d %s", errFlickrFailure, resp.Code, resp.Message)
	}
	// Flickr repeats its last page for any page past the end
	if page+1 > int(resp.Photos.Pages) {
		return []booru.Image{}, nil
	}

	images := make([]booru.Image, 0, len(resp.Photos.Photo))
	for i, p := range resp.Photos.Photo {
		img := booru.Image{
			ID:                 p.ID,
			Tags:               booru.TagsFromString(p.Tags),
			SafeSearchRating:   booru.RatingSafe,
			Score:              int(p.Views),
			CreatedAt:          parseTime(p.DateUpload),
			SearchPage:         page,
			SearchPagePosition: i,
		}
		if p.Owner != "" && p.ID != "" {
			img.WebURL = flickrPhotoPage + p.Owner + "/" + p.ID
		}

		switch {
		case p.URLO != "":
			img.FileURL, img.Width, img.Height = p.URLO, int(p.WidthO), int(p.HeightO)
		case p.URLL != "":
			img.FileURL, img.Width, img.Height = p.URLL, int(p.WidthL), int(p.HeightL)
		case p.Server != "" && p.Secret != "" && p.ID != "":
			img.FileURL = fmt.Sprintf(flickrStaticURL, p.Server, p.ID, p.Secret, "b")
		}

		if p.URLL != "" {
			img.SampleURL, img.SampleWidth, img.SampleHeight = p.URLL, int(p.WidthL), int(p.HeightL)
		} else {
			img.SampleURL = img.FileURL
			img.SampleWidth, img.SampleHeight = scaleToWidth(img.Width, img.Height, flickrSampleWidth)
		}

		if p.URLQ != "" {
			img.PreviewURL, img.PreviewWidth, img.PreviewHeight = p.URLQ, int(p.WidthQ), int(p.HeightQ)
		} else {
			img.PreviewURL = img.SampleURL
			img.PreviewWidth, img.PreviewHeight = flickrPreviewSize, flickrPreviewSize
		}

		if err := checkImage(&img, i); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
