// Package booru holds the normalized result model shared by every search
// backend: tags, images, safe-search ratings and the paginated SearchResult
// that callers grow page by page for infinite scrolling.
package booru
