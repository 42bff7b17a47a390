package rst

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/guides/internal/doctree"
)

var (
	roleRe        = regexp.MustCompile("^:([A-Za-z0-9_.+-]+(?::[A-Za-z0-9_.+-]+)?):`([^`]+)`")
	embeddedRe    = regexp.MustCompile(`(?s)^(.*?)\s*<([^<>]+)>$`)
	urlRe         = regexp.MustCompile(`^(?:https?|ftp)://[^\s<>"]+|^mailto:[^\s<>"]+`)
	emailRe       = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+`)
	namedRefRe    = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9\-.]*)_(?:[^A-Za-z0-9_]|$)`)
	trailingPunct = ".,;:!?)'\""
)

// spanScanner splits inline text into text, markup and reference nodes.
// Unterminated markup is kept as text.
type spanScanner struct {
	ctx  *Context
	src  string
	pos  int
	out  []doctree.Node
	text strings.Builder
}

func (s *spanScanner) scan() []doctree.Node {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.escape()
		case c == '`' && s.at("``"):
			if !s.delimited("``", func(v string) doctree.Node { return &doctree.Literal{Value: v} }) {
				s.literalText(2)
			}
		case c == '*' && s.at("**") && s.startBoundary():
			if !s.delimited("**", func(v string) doctree.Node { return &doctree.Strong{Value: v} }) {
				s.literalText(2)
			}
		case c == '*' && s.startBoundary():
			if !s.delimited("*", func(v string) doctree.Node { return &doctree.Emphasis{Value: v} }) {
				s.literalText(1)
			}
		case c == ':' && s.startBoundary() && s.role():
		case c == '`' && s.startBoundary() && s.interpreted():
		case s.startBoundary() && s.standalone():
		default:
			r, size := utf8.DecodeRuneInString(s.src[s.pos:])
			s.text.WriteRune(r)
			s.pos += size
		}
	}
	s.flushText()
	return s.out
}

func (s *spanScanner) at(prefix string) bool {
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

// startBoundary reports whether inline markup may start at pos.
func (s *spanScanner) startBoundary() bool {
	if s.pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s.src[:s.pos])
	return unicode.IsSpace(r) || strings.ContainsRune(`'"([{<-/:`, r)
}

func (s *spanScanner) emit(n doctree.Node) {
	s.flushText()
	s.out = append(s.out, n)
}

func (s *spanScanner) flushText() {
	if s.text.Len() == 0 {
		return
	}
	s.out = append(s.out, &doctree.Text{Value: s.text.String()})
	s.text.Reset()
}

func (s *spanScanner) literalText(n int) {
	s.text.WriteString(s.src[s.pos : s.pos+n])
	s.pos += n
}

func (s *spanScanner) escape() {
	s.pos++
	if s.pos >= len(s.src) {
		s.text.WriteByte('\\')
		return
	}
	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	// an escaped space separates markup without producing output
	if r != ' ' {
		s.text.WriteRune(r)
	}
}

// delimited consumes markup enclosed by delim. Content may not start or
// end with whitespace.
func (s *spanScanner) delimited(delim string, build func(string) doctree.Node) bool {
	start := s.pos + len(delim)
	if start >= len(s.src) {
		return false
	}
	end := strings.Index(s.src[start:], delim)
	if end <= 0 {
		return false
	}
	value := s.src[start : start+end]
	if strings.TrimSpace(value) != value {
		return false
	}
	s.emit(build(value))
	s.pos = start + end + len(delim)
	return true
}

// role consumes :role:`text` and :domain:role:`text`.
func (s *spanScanner) role() bool {
	m := roleRe.FindStringSubmatch(s.src[s.pos:])
	if m == nil {
		return false
	}
	s.emit(s.reference(m[1], m[2]))
	s.pos += len(m[0])
	return true
}

func (s *spanScanner) reference(role, content string) *doctree.Reference {
	ref := &doctree.Reference{Role: role}
	target := content
	if m := embeddedRe.FindStringSubmatch(content); m != nil {
		ref.Text = strings.TrimSpace(m[1])
		target = m[2]
	}
	if t, anchor, ok := strings.Cut(target, "#"); ok && role == "doc" {
		target, ref.Anchor = t, anchor
	}
	ref.Target = strings.TrimSpace(target)
	if ref.Target == "" && ref.Anchor != "" {
		ref.Target = "/" + s.ctx.doc.Path
	}

	switch role {
	case "doc":
		s.ctx.AddDependency(s.ctx.ResolvePath(ref.Target))
	case "ref":
		s.ctx.AddDependency(doctree.UnresolvedDependency(role, ref.Target))
	}
	return ref
}

// interpreted consumes `text`, `text`_, `text <url>`_ and `text`__.
func (s *spanScanner) interpreted() bool {
	start := s.pos + 1
	end := strings.IndexByte(s.src[start:], '`')
	if end <= 0 {
		return false
	}
	content := s.src[start : start+end]
	after := start + end + 1

	switch {
	case strings.HasPrefix(s.src[after:], "__"):
		s.emit(s.link(content, true))
		s.pos = after + 2
	case strings.HasPrefix(s.src[after:], "_"):
		s.emit(s.link(content, false))
		s.pos = after + 1
	default:
		role := s.ctx.parser.cfg.DefaultRole
		if role == "" {
			s.emit(&doctree.Emphasis{Value: content})
		} else {
			s.emit(s.reference(role, content))
		}
		s.pos = after
	}
	return true
}

func (s *spanScanner) link(content string, anonymous bool) *doctree.Link {
	if m := embeddedRe.FindStringSubmatch(content); m != nil {
		text, url := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if text == "" {
			text = url
		}
		if !anonymous {
			s.ctx.SetLink(text, url)
		}
		return &doctree.Link{Text: text, URL: url, Anonymous: anonymous}
	}
	return &doctree.Link{Text: content, Anonymous: anonymous}
}

// standalone consumes URLs, e-mail addresses and name_ references.
func (s *spanScanner) standalone() bool {
	rest := s.src[s.pos:]
	if m := urlRe.FindString(rest); m != "" {
		m = strings.TrimRight(m, trailingPunct)
		s.emit(&doctree.Link{Text: m, URL: m})
		s.pos += len(m)
		return true
	}
	if m := emailRe.FindString(rest); m != "" {
		m = strings.TrimRight(m, trailingPunct)
		s.emit(&doctree.Link{Text: m, URL: "mailto:" + m})
		s.pos += len(m)
		return true
	}
	if m := namedRefRe.FindStringSubmatch(rest); m != nil {
		s.emit(&doctree.Link{Text: m[1]})
		s.pos += len(m[1]) + 1
		return true
	}
	return false
}
