// Package tags loads the tag translation dictionary used to localize
// genre, style and mood tags.
//
// The dictionary is written by operators as a JSON object that may carry
// `//` line comments. Parsing is two-stage: comments are stripped first,
// then the remainder is decoded as a plain JSON object.
package tags

import (
	_ "embed"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

//go:embed preset.jsonc
var preset string

// commentPattern matches a `//` comment through the end of its line.
var commentPattern = regexp.MustCompile(`(?m)//.*$`)

// Dictionary maps a source tag to its localized form.
// Lookups are case-sensitive exact matches.
type Dictionary map[string]string

// Preset returns the built-in dictionary text, comments included.
func Preset() string {
	return preset
}

// Strip removes `//` comments and surrounding whitespace.
func Strip(raw string) string {
	return strings.TrimSpace(commentPattern.ReplaceAllString(raw, ""))
}

// Parse strips comments from raw and decodes the remaining JSON object.
// Blank input falls back to the preset dictionary.
func Parse(raw string) (Dictionary, error) {
	if strings.TrimSpace(raw) == "" {
		raw = preset
	}

	body := Strip(raw)
	if body == "" {
		return nil, &ParseError{Cause: ErrEmpty}
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return nil, &ParseError{Cause: err}
	}

	for k, v := range m {
		if k == "" {
			return nil, &ParseError{Cause: ErrEmptyKey}
		}
		if v == "" {
			return nil, &ParseError{Cause: &EmptyValueError{Tag: k}}
		}
	}
	return Dictionary(m), nil
}

// MustPreset parses the built-in dictionary.
// It panics if the embedded text is malformed, which only a bad build can cause.
func MustPreset() Dictionary {
	d, err := Parse(preset)
	if err != nil {
		panic(err)
	}
	return d
}

// Lookup returns the localized form of tag.
func (d Dictionary) Lookup(tag string) (string, bool) {
	v, ok := d[tag]
	return v, ok
}

// Len returns the number of entries.
func (d Dictionary) Len() int {
	return len(d)
}

// Keys returns the source tags in sorted order.
func (d Dictionary) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
