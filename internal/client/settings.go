package client

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// APIType identifies a backend family. The ordinal values are part of the
// binary Settings encoding and must not be reordered.
type APIType int

const (
	APIDanbooru APIType = iota
	APIDanbooruLegacy
	APIGelbooru
	APIShimmie
	APIE621
	APIFlickr
	APIFlickrUser
	APIDerpibooru

	numAPITypes
)

var apiTypeNames = [...]string{
	APIDanbooru:       "danbooru",
	APIDanbooruLegacy: "danbooru_legacy",
	APIGelbooru:       "gelbooru",
	APIShimmie:        "shimmie",
	APIE621:           "e621",
	APIFlickr:         "flickr",
	APIFlickrUser:     "flickr_user",
	APIDerpibooru:     "derpibooru",
}

// legacy spellings found in settings exported by older clients
var apiTypeAliases = map[string]APIType{
	"danboard":        APIDanbooru,
	"danboard_legacy": APIDanbooruLegacy,
	"gelboard":        APIGelbooru,
	"danbooru2":       APIDanbooru,
	"moebooru":        APIDanbooruLegacy,
}

// AllAPITypes lists every supported backend in ordinal order
func AllAPITypes() []APIType {
	types := make([]APIType, 0, numAPITypes)
	for t := APIType(0); t < numAPITypes; t++ {
		types = append(types, t)
	}
	return types
}

// Valid reports whether t is a supported backend
func (t APIType) Valid() bool {
	return t >= 0 && t < numAPITypes
}

func (t APIType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("APIType(%d)", int(t))
	}
	return apiTypeNames[t]
}

// MarshalText encodes the type as its name
func (t APIType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAPIType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name, failing on unknown names
func (t *APIType) UnmarshalText(text []byte) error {
	parsed, err := ParseAPIType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseAPIType looks up a backend by name. Unknown names are an error,
// never a fallback to some default backend.
func ParseAPIType(name string) (APIType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	for t, n := range apiTypeNames {
		if n == key {
			return APIType(t), nil
		}
	}
	if t, ok := apiTypeAliases[key]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAPIType, name)
}

// Settings describes one configured service. It is the only state that
// needs persisting to recreate a client.
type Settings struct {
	APIType  APIType `json:"api_type" mapstructure:"type"`
	Name     string  `json:"name" mapstructure:"name"`
	Endpoint string  `json:"endpoint" mapstructure:"endpoint"`
	Username string  `json:"username,omitempty" mapstructure:"username"`
	Password string  `json:"password,omitempty" mapstructure:"password"`
}

// HasCredentials reports whether a username or password/API key is set
func (s Settings) HasCredentials() bool {
	return s.Username != "" || s.Password != ""
}

// hasLogin reports whether both halves of a credential pair are set
func (s Settings) hasLogin() bool {
	return s.Username != "" && s.Password != ""
}

// MarshalBinary encodes s as: int32 API type, name, endpoint, a credential
// flag byte and, when the flag is 1, username and password. Strings are
// uint32 length-prefixed UTF-8.
func (s Settings) MarshalBinary() ([]byte, error) {
	if !s.APIType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAPIType, int(s.APIType))
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, int32(s.APIType))
	writeString(&buf, s.Name)
	writeString(&buf, s.Endpoint)
	if s.HasCredentials() {
		buf.WriteByte(1)
		writeString(&buf, s.Username)
		writeString(&buf, s.Password)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the MarshalBinary layout
func (s *Settings) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	var apiType int32
	if err := binary.Read(r, binary.BigEndian, &apiType); err != nil {
		return fmt.Errorf("failed to read API type: %w", err)
	}
	if !APIType(apiType).Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownAPIType, apiType)
	}

	var out Settings
	out.APIType = APIType(apiType)

	var err error
	if out.Name, err = readString(r); err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	if out.Endpoint, err = readString(r); err != nil {
		return fmt.Errorf("failed to read endpoint: %w", err)
	}

	flag, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read credential flag: %w", err)
	}
	if flag == 1 {
		if out.Username, err = readString(r); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		if out.Password, err = readString(r); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	*s = out
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if int64(n) > int64(r.Len()) {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
