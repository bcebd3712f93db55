package booru

import "time"

// Image is one search result item, normalized across backends
type Image struct {
	ID         string `json:"id"`
	FileURL    string `json:"file_url"`
	SampleURL  string `json:"sample_url"`
	PreviewURL string `json:"preview_url"`

	Width         int `json:"width"`
	Height        int `json:"height"`
	SampleWidth   int `json:"sample_width"`
	SampleHeight  int `json:"sample_height"`
	PreviewWidth  int `json:"preview_width"`
	PreviewHeight int `json:"preview_height"`

	Tags             []Tag            `json:"tags"`
	SafeSearchRating SafeSearchRating `json:"rating"`
	Score            int              `json:"score"`
	CreatedAt        *time.Time       `json:"created_at,omitempty"`
	Source           string           `json:"source,omitempty"`
	WebURL           string           `json:"web_url,omitempty"`
	MD5              string           `json:"md5,omitempty"`

	// Where the image sits in a multi-page SearchResult. Set by the parser.
	SearchPage         int `json:"search_page"`
	SearchPagePosition int `json:"search_page_position"`
}

// HasTag reports whether the image carries a tag with the same name
func (img *Image) HasTag(t Tag) bool {
	return containsTag(img.Tags, t)
}
