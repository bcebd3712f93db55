package booru

import "strings"

// TagType classifies a tag. Backends that do not report a type use TagGeneral.
type TagType int

const (
	TagGeneral TagType = iota
	TagArtist
	TagCharacter
	TagCopyright
	TagMeta
)

func (t TagType) String() string {
	switch t {
	case TagArtist:
		return "artist"
	case TagCharacter:
		return "character"
	case TagCopyright:
		return "copyright"
	case TagMeta:
		return "meta"
	default:
		return "general"
	}
}

// Tag is a single search or result tag
type Tag struct {
	Name string  `json:"name"`
	Type TagType `json:"type"`
}

// NewTag creates a general tag
func NewTag(name string) Tag {
	return Tag{Name: name, Type: TagGeneral}
}

// Equal compares tags by name only
func (t Tag) Equal(other Tag) bool {
	return t.Name == other.Name
}

// TagsFromString splits a space-separated query into tags
func TagsFromString(s string) []Tag {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}

	tags := make([]Tag, 0, len(fields))
	for _, f := range fields {
		tags = append(tags, NewTag(f))
	}
	return tags
}

// TagsFromDelimited splits s on sep, trimming whitespace around each name
func TagsFromDelimited(s, sep string) []Tag {
	var tags []Tag
	for _, part := range strings.Split(s, sep) {
		if name := strings.TrimSpace(part); name != "" {
			tags = append(tags, NewTag(name))
		}
	}
	return tags
}

// TagsString joins tag names with a single space
func TagsString(tags []Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, " ")
}

func containsTag(tags []Tag, t Tag) bool {
	for _, candidate := range tags {
		if candidate.Equal(t) {
			return true
		}
	}
	return false
}
