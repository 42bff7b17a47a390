package rst

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const headerLetters = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	directiveRe    = regexp.MustCompile(`^\.\. (\|(.+)\| |)([^\s]+)::( (.*)|)$`)
	optionRe       = regexp.MustCompile("^(\\s+):([^:\\s`]+): (.*)$")
	flagOptionRe   = regexp.MustCompile("^(\\s+):([^:\\s`]+):(\\s*)$")
	quotedLinkRe   = regexp.MustCompile("^\\.\\. _`(.+)`: (.+)$")
	linkRe         = regexp.MustCompile(`^\.\. _([^:]+): (.+)$`)
	quotedAnchorRe = regexp.MustCompile("^\\.\\. _`(.+)`:$")
	anchorRe       = regexp.MustCompile(`^\.\. _(.+):$`)
	commentRe      = regexp.MustCompile(`^\.\.(\s|$)`)

	// bullets "*", "+", "-", "•", "‣", "⁃" and enumerations "1.", "1)", "(1)"
	// with "#" for auto-numbering
	listMarkerRe = regexp.MustCompile(`^([-+*\x{2022}\x{2023}\x{2043}]|(?:[\d#]+\.|[\d#]+\)|\([\d#]+\)))(?:\s+|$)`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

// specialLine returns the repeated punctuation character if line consists
// of a single header letter repeated at least twice.
func specialLine(line string) byte {
	if len(line) < 2 {
		return 0
	}
	letter := line[0]
	if strings.IndexByte(headerLetters, letter) < 0 {
		return 0
	}
	for i := 1; i < len(line); i++ {
		if line[i] != letter {
			return 0
		}
	}
	return letter
}

type listMarker struct {
	kind   string // marker with digits normalized to "d"
	raw    string
	offset int // rune column where item content starts
}

func (m listMarker) ordered() bool {
	return m.kind != m.raw || strings.ContainsAny(m.raw, "#")
}

// parseListMarker matches a list item at the start of line. For enumerated
// markers the following line must be blank, indented to the content
// column, or another item of the same kind.
func parseListMarker(line string, next string, hasNext bool) (listMarker, bool) {
	m := listMarkerRe.FindStringSubmatch(line)
	if m == nil {
		return listMarker{}, false
	}
	marker := listMarker{
		kind:   digitsRe.ReplaceAllString(m[1], "d"),
		raw:    m[1],
		offset: utf8.RuneCountInString(m[0]),
	}
	if marker.ordered() && hasNext && !IsBlank(next) && Indent(next) < marker.offset {
		nm, ok := parseListMarker(next, "", false)
		if !ok || nm.kind != marker.kind {
			return listMarker{}, false
		}
	}
	return marker, true
}

type parsedDirective struct {
	variable string
	name     string
	data     string
}

func parseDirectiveLine(line string) (parsedDirective, bool) {
	m := directiveRe.FindStringSubmatch(line)
	if m == nil {
		return parsedDirective{}, false
	}
	return parsedDirective{variable: m[2], name: m[3], data: strings.TrimSpace(m[4])}, true
}

func parseOptionLine(line string) (string, Option, bool) {
	if m := optionRe.FindStringSubmatch(line); m != nil {
		return m[2], Option{Value: strings.TrimSpace(m[3])}, true
	}
	if m := flagOptionRe.FindStringSubmatch(line); m != nil {
		return m[2], Option{Flag: true}, true
	}
	return "", Option{}, false
}

type parsedLink struct {
	name   string
	url    string
	anchor bool
}

func parseLinkLine(line string) (parsedLink, bool) {
	if m := quotedLinkRe.FindStringSubmatch(line); m != nil {
		return parsedLink{name: m[1], url: strings.TrimSpace(m[2])}, true
	}
	if m := linkRe.FindStringSubmatch(line); m != nil {
		return parsedLink{name: m[1], url: strings.TrimSpace(m[2])}, true
	}
	trimmed := strings.TrimSpace(line)
	if m := quotedAnchorRe.FindStringSubmatch(trimmed); m != nil {
		return parsedLink{name: m[1], url: "#" + m[1], anchor: true}, true
	}
	if m := anchorRe.FindStringSubmatch(trimmed); m != nil {
		return parsedLink{name: m[1], url: "#" + m[1], anchor: true}, true
	}
	return parsedLink{}, false
}

func isComment(line string) bool {
	return commentRe.MatchString(line)
}
