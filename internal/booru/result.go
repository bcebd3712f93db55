package booru

import "encoding/json"

// SearchResult is the accumulated, paginated result of one query.
// It is not safe for concurrent mutation; keep a single writer.
type SearchResult struct {
	images          []Image
	query           []Tag
	currentOffset   int
	reachedLastPage bool
}

// searchResultJSON is the wire form used by the page cache and the HTTP API
type searchResultJSON struct {
	Images          []Image `json:"images"`
	Query           string  `json:"query"`
	CurrentOffset   int     `json:"offset"`
	ReachedLastPage bool    `json:"last_page"`
}

// NewSearchResult creates a result holding one page of images
func NewSearchResult(images []Image, query []Tag, offset int) *SearchResult {
	imgs := make([]Image, len(images))
	copy(imgs, images)
	return &SearchResult{
		images:        imgs,
		query:         append([]Tag(nil), query...),
		currentOffset: offset,
	}
}

// Images returns a copy of the images in order
func (r *SearchResult) Images() []Image {
	out := make([]Image, len(r.images))
	copy(out, r.images)
	return out
}

// Len returns the number of images currently held
func (r *SearchResult) Len() int {
	return len(r.images)
}

// Query returns the tags the result was searched for
func (r *SearchResult) Query() []Tag {
	return append([]Tag(nil), r.query...)
}

// CurrentOffset is the highest page index merged in
func (r *SearchResult) CurrentOffset() int {
	return r.currentOffset
}

// AddImages appends a fetched page and moves the offset to it.
// An empty page marks the result as exhausted instead.
func (r *SearchResult) AddImages(images []Image, offset int) {
	if len(images) == 0 {
		r.OnLastPage()
		return
	}
	r.images = append(r.images, images...)
	r.currentOffset = offset
}

// Merge folds a freshly fetched page into r
func (r *SearchResult) Merge(page *SearchResult) {
	if page == nil || len(page.images) == 0 {
		r.OnLastPage()
		return
	}
	r.AddImages(page.images, page.currentOffset)
}

// OnLastPage marks that no further pages exist
func (r *SearchResult) OnLastPage() {
	r.reachedLastPage = true
}

// HasNextPage reports whether more pages may be requested
func (r *SearchResult) HasNextPage() bool {
	return !r.reachedLastPage
}

// FilterRatings removes every image whose rating is in excluded
func (r *SearchResult) FilterRatings(excluded ...SafeSearchRating) {
	if len(excluded) == 0 {
		return
	}
	r.filter(func(img *Image) bool {
		return containsRating(excluded, img.SafeSearchRating)
	})
}

// FilterTags removes every image carrying any tag from blacklist
func (r *SearchResult) FilterTags(blacklist ...Tag) {
	if len(blacklist) == 0 {
		return
	}
	r.filter(func(img *Image) bool {
		for _, t := range blacklist {
			if img.HasTag(t) {
				return true
			}
		}
		return false
	})
}

// filter drops images for which remove returns true, keeping order
func (r *SearchResult) filter(remove func(*Image) bool) {
	kept := r.images[:0]
	for i := range r.images {
		if !remove(&r.images[i]) {
			kept = append(kept, r.images[i])
		}
	}
	// clear the tail so dropped images can be collected
	for i := len(kept); i < len(r.images); i++ {
		r.images[i] = Image{}
	}
	r.images = kept
}

// Clone returns an independent copy of r
func (r *SearchResult) Clone() *SearchResult {
	c := NewSearchResult(r.images, r.query, r.currentOffset)
	c.reachedLastPage = r.reachedLastPage
	return c
}

// ForPage returns a read-only view of the images fetched for page
func (r *SearchResult) ForPage(page int) *SearchResult {
	var images []Image
	for _, img := range r.images {
		if img.SearchPage == page {
			images = append(images, img)
		}
	}
	view := NewSearchResult(images, r.query, page)
	view.reachedLastPage = r.reachedLastPage
	return view
}

// MarshalJSON implements json.Marshaler
func (r *SearchResult) MarshalJSON() ([]byte, error) {
	images := r.images
	if images == nil {
		images = []Image{}
	}
	return json.Marshal(searchResultJSON{
		Images:          images,
		Query:           TagsString(r.query),
		CurrentOffset:   r.currentOffset,
		ReachedLastPage: r.reachedLastPage,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var raw searchResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.images = raw.Images
	r.query = TagsFromString(raw.Query)
	r.currentOffset = raw.CurrentOffset
	r.reachedLastPage = raw.ReachedLastPage
	return nil
}
