// Package romanize derives Latin sort keys from Chinese titles.
package romanize

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// initials yields the first pinyin letter for Han runes and the rune itself
// for everything else.
var initials = func() pinyin.Args {
	a := pinyin.NewArgs()
	a.Style = pinyin.FirstLetter
	a.Fallback = func(r rune, _ pinyin.Args) []string {
		return []string{string(r)}
	}
	return a
}()

// halfWidth maps the full-width punctuation Plex titles commonly carry.
var halfWidth = runes.Map(func(r rune) rune {
	switch r {
	case '：':
		return ':'
	case '（':
		return '('
	case '）':
		return ')'
	case '，':
		return ','
	}
	return r
})

// ToSortKey returns the uppercase pinyin initials of title.
// Non-Han runes pass through unchanged apart from case.
func ToSortKey(title string) string {
	s, _, err := transform.String(norm.NFC, title)
	if err != nil {
		s = title
	}

	var b strings.Builder
	for _, syllable := range pinyin.Pinyin(s, initials) {
		if len(syllable) > 0 {
			b.WriteString(syllable[0])
		}
	}

	key := strings.ToUpper(b.String())
	if out, _, err := transform.String(halfWidth, key); err == nil {
		key = out
	}
	return key
}

// IsSourceScript reports whether s contains any Han character.
func IsSourceScript(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// NeedsSortKey reports whether a sort title should be (re)computed.
// Already romanized sort titles are left alone.
func NeedsSortKey(current string) bool {
	return current == "" || IsSourceScript(current)
}
