// Package slug turns titles into stable, URL-safe identifiers.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// Make lowercases s, strips diacritics and collapses everything that is
// not a letter or digit into single dashes. Equal titles that differ only
// in case, accents or punctuation produce the same slug.
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	folded = nonSlugChars.ReplaceAllString(folded, "-")
	folded = dashRuns.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-")
}

// Equal reports whether a and b slugify to the same non-empty value.
func Equal(a, b string) bool {
	sa := Make(a)
	return sa != "" && sa == Make(b)
}

// Set hands out slugs that are unique within one document. Repeats get a
// numeric suffix: "setup", "setup-1", "setup-2".
type Set struct {
	seen map[string]int
}

func (s *Set) Unique(text string) string {
	if s.seen == nil {
		s.seen = make(map[string]int)
	}
	id := Make(text)
	if id == "" {
		id = "section"
	}
	n := s.seen[id]
	s.seen[id] = n + 1
	if n == 0 {
		return id
	}
	return id + "-" + strconv.Itoa(n)
}
