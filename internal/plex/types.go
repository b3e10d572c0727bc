package plex

import (
	"fmt"
	"strconv"
	"strings"
)

// Response is the JSON envelope every Plex endpoint returns.
type Response struct {
	MediaContainer Container `json:"MediaContainer"`
}

// Container holds the payload of a Plex response. Listing and metadata
// endpoints fill Metadata; /library/sections fills Directory.
type Container struct {
	Size      int         `json:"size"`
	Metadata  []Metadata  `json:"Metadata"`
	Directory []Directory `json:"Directory"`
}

// Metadata is one item as returned by /library/metadata and listing endpoints.
type Metadata struct {
	RatingKey        string   `json:"ratingKey"`
	LibrarySectionID FlexInt  `json:"librarySectionID"`
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	TitleSort        string   `json:"titleSort,omitempty"`
	UpdatedAt        int64    `json:"updatedAt,omitempty"`
	AddedAt          int64    `json:"addedAt,omitempty"`
	Field            []Field  `json:"Field,omitempty"`
	Genre            []Tag    `json:"Genre,omitempty"`
	Style            []Tag    `json:"Style,omitempty"`
	Mood             []Tag    `json:"Mood,omitempty"`
}

// Field reports the lock state of one metadata field.
type Field struct {
	Name   string `json:"name"`
	Locked bool   `json:"locked"`
}

// Tag is a single genre, style or mood entry.
type Tag struct {
	Tag string `json:"tag"`
}

// Directory is a library section entry from /library/sections.
type Directory struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Section is a library section on a Plex server.
type Section struct {
	Key   int
	Title string
	Type  string
}

// FlexInt decodes an integer Plex may send either as a number or a string.
type FlexInt int

// UnmarshalJSON accepts 12, "12" and null.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("decode integer %s: %w", b, err)
	}
	*f = FlexInt(n)
	return nil
}

// Search type codes used by the Plex API for listing and editing.
const (
	TypeMovie      = 1
	TypeShow       = 2
	TypeSeason     = 3
	TypeEpisode    = 4
	TypeArtist     = 8
	TypeAlbum      = 9
	TypeTrack      = 10
	TypeCollection = 18
)

var searchTypes = map[string]int{
	"movie":      TypeMovie,
	"show":       TypeShow,
	"season":     TypeSeason,
	"episode":    TypeEpisode,
	"artist":     TypeArtist,
	"album":      TypeAlbum,
	"track":      TypeTrack,
	"collection": TypeCollection,
}

// SearchType returns the numeric type code for an item type name.
func SearchType(itemType string) (int, bool) {
	t, ok := searchTypes[itemType]
	return t, ok
}

// TypeName returns the item type name for a numeric code, or the code itself.
func TypeName(code int) string {
	for name, c := range searchTypes {
		if c == code {
			return name
		}
	}
	return strconv.Itoa(code)
}
