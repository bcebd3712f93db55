package client

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"codeberg.org/snonux/nori/internal/booru"
)

// sensitiveParams are query parameters masked in logs and errors
var sensitiveParams = []string{"api_key", "key", "password_hash", "password"}

// endpointURL joins endpoint, path and the encoded params
func endpointURL(endpoint, path string, params url.Values) string {
	base := strings.TrimRight(endpoint, "/") + path
	if len(params) == 0 {
		return base
	}
	return base + "?" + encodeParams(params)
}

// encodeParams percent-encodes params, using %20 rather than + for spaces
func encodeParams(params url.Values) string {
	return strings.ReplaceAll(params.Encode(), "+", "%20")
}

// absoluteURL makes protocol-relative and path-relative URLs absolute
func absoluteURL(endpoint, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}

	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// redactURL masks credentials in a request URL
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	changed := false
	for _, key := range sensitiveParams {
		if q.Has(key) {
			q.Set(key, "REDACTED")
			changed = true
		}
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = encodeParams(q)
	return u.String()
}

// scaleToFit shrinks w x h to fit a max x max box, keeping the aspect ratio
func scaleToFit(w, h, max int) (int, int) {
	if w <= 0 || h <= 0 {
		return max, max
	}
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		return max, h * max / w
	}
	return w * max / h, max
}

// scaleToWidth shrinks w x h to at most maxWidth wide
func scaleToWidth(w, h, maxWidth int) (int, int) {
	if w <= maxWidth || w <= 0 {
		return w, h
	}
	return maxWidth, h * maxWidth / w
}

// parseTime tries each layout in turn. Unix seconds are accepted as well.
func parseTime(s string, layouts ...string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.Unix(secs, 0).UTC()
		return &t
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// lenientInt is an XML attribute that decodes to 0 when empty or malformed
type lenientInt int

func (n *lenientInt) UnmarshalXMLAttr(attr xml.Attr) error {
	v, err := strconv.Atoi(strings.TrimSpace(attr.Value))
	if err != nil {
		*n = 0
		return nil
	}
	*n = lenientInt(v)
	return nil
}

// flexInt is a JSON number that may also arrive as a quoted string
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	v := json.Number(data)
	i, err := v.Int64()
	if err != nil {
		f, ferr := v.Float64()
		if ferr != nil {
			return err
		}
		i = int64(f)
	}
	*n = flexInt(i)
	return nil
}

// errMissingField marks an item without its id or file URL
var errMissingField = errors.New("missing required field")

// checkImage fails when an item lacks the fields needed to show it
func checkImage(img *booru.Image, position int) error {
	switch {
	case img.ID == "":
		return fmt.Errorf("item %d: %w: id", position, errMissingField)
	case img.FileURL == "":
		return fmt.Errorf("item %d (id %s): %w: file url", position, img.ID, errMissingField)
	}
	return nil
}
