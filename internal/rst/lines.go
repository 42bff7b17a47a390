package rst

import (
	"strings"
	"unicode/utf8"
)

// Lines is a rewindable cursor over the logical lines of a source text.
// Reads past the end never fail: Current reports ok=false instead.
type Lines struct {
	lines []string
	pos   int
}

// NewLines normalizes line endings, expands tabs and strips trailing
// whitespace before splitting src into lines.
func NewLines(src string) *Lines {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	src = strings.ReplaceAll(src, "\t", "    ")
	src = strings.TrimRight(src, "\n")
	if src == "" {
		return &Lines{}
	}
	lines := strings.Split(src, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return &Lines{lines: lines}
}

func newLinesFrom(lines []string) *Lines {
	return &Lines{lines: lines}
}

func (l *Lines) Valid() bool { return l.pos < len(l.lines) }

// Current returns the line under the cursor.
func (l *Lines) Current() (string, bool) {
	return l.Peek(0)
}

// Line returns the line under the cursor or "" at the end of input.
func (l *Lines) Line() string {
	s, _ := l.Peek(0)
	return s
}

// Peek returns the line n positions after the cursor without moving it.
func (l *Lines) Peek(n int) (string, bool) {
	i := l.pos + n
	if i < 0 || i >= len(l.lines) {
		return "", false
	}
	return l.lines[i], true
}

func (l *Lines) Next() {
	if l.pos < len(l.lines) {
		l.pos++
	}
}

func (l *Lines) Pos() int     { return l.pos }
func (l *Lines) Seek(pos int) { l.pos = max(0, min(pos, len(l.lines))) }
func (l *Lines) Len() int     { return len(l.lines) }

// Indented consumes the block starting at the cursor made of blank lines
// and lines indented by at least minIndent columns. The block ends at the
// first non-blank line indented less, which stays under the cursor; so do
// trailing blank lines. The returned lines are dedented by the smallest
// indentation found in the block; leading blank lines are kept.
func (l *Lines) Indented(minIndent int) *Lines {
	start := l.pos
	end := start
	for i := start; i < len(l.lines); i++ {
		line := l.lines[i]
		if IsBlank(line) {
			continue
		}
		if Indent(line) < minIndent {
			break
		}
		end = i + 1
	}
	l.pos = end
	return newLinesFrom(dedent(l.lines[start:end]))
}

// Rest returns the remaining lines joined with newlines.
func (l *Lines) Rest() string {
	if l.pos >= len(l.lines) {
		return ""
	}
	return strings.Join(l.lines[l.pos:], "\n")
}

func dedent(lines []string) []string {
	common := -1
	for _, line := range lines {
		if IsBlank(line) {
			continue
		}
		if n := Indent(line); common < 0 || n < common {
			common = n
		}
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if IsBlank(line) {
			out = append(out, "")
			continue
		}
		out = append(out, line[common:])
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// Indent counts leading spaces.
func Indent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// runeSlice returns line[from:] counted in runes.
func runeSlice(line string, from int) string {
	i := 0
	for n := 0; n < from && i < len(line); n++ {
		_, size := utf8.DecodeRuneInString(line[i:])
		i += size
	}
	return line[i:]
}
