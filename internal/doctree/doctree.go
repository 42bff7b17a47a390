package doctree

import (
	"crypto/sha256"
	"encoding/hex"
)

// Kind identifies a node variant. Renderers are looked up by Kind, so
// packages outside doctree can introduce new variants with their own tag.
type Kind string

const (
	KindDocument             Kind = "document"
	KindFragment             Kind = "fragment"
	KindSection              Kind = "section"
	KindTitle                Kind = "title"
	KindParagraph            Kind = "paragraph"
	KindSpan                 Kind = "span"
	KindText                 Kind = "text"
	KindEmphasis             Kind = "emphasis"
	KindStrong               Kind = "strong"
	KindLiteral              Kind = "literal"
	KindReference            Kind = "reference"
	KindLink                 Kind = "link"
	KindList                 Kind = "list"
	KindListItem             Kind = "list-item"
	KindTable                Kind = "table"
	KindQuote                Kind = "quote"
	KindSeparator            Kind = "separator"
	KindCode                 Kind = "code"
	KindRaw                  Kind = "raw"
	KindAnchor               Kind = "anchor"
	KindAdmonition           Kind = "admonition"
	KindContainer            Kind = "container"
	KindTopic                Kind = "topic"
	KindToc                  Kind = "toc"
	KindImage                Kind = "image"
	KindMeta                 Kind = "meta"
	KindStylesheet           Kind = "stylesheet"
	KindDocumentTitle        Kind = "document-title"
	KindDirectivePlaceholder Kind = "directive-placeholder"
)

// Node is one element of a parsed document tree. A parent exclusively owns
// the nodes returned by Children.
type Node interface {
	Kind() Kind
	Children() []Node
}

// Document is the root node for one source file. It is not modified once
// the parser returns it.
type Document struct {
	Hash    string // sha256 of the source bytes
	Path    string // logical path, slash separated, without extension
	Headers []Node // nodes emitted by header directives (title, meta, stylesheet)
	Nodes   []Node

	// Links holds named links declared with ".. _name: url". Anchors
	// declared with ".. _name:" map to "#name".
	Links map[string]string

	// Dependencies lists files and unresolved placeholders referenced by
	// the document (toctree entries, :doc: and :ref: targets).
	Dependencies []string
}

func (d *Document) Kind() Kind       { return KindDocument }
func (d *Document) Children() []Node { return d.Nodes }

// Title returns the text of the first title in the body, falling back to a
// header title set by the title directive.
func (d *Document) Title() string {
	var title string
	Walk(d, func(n Node) bool {
		if title != "" {
			return false
		}
		if t, ok := n.(*Title); ok {
			title = PlainText(t)
			return false
		}
		return true
	})
	if title != "" {
		return title
	}
	for _, h := range d.Headers {
		if t, ok := h.(*DocumentTitle); ok {
			return t.Value
		}
	}
	return ""
}

// Tocs returns every toctree occurrence in document order.
func (d *Document) Tocs() []*Toc {
	var tocs []*Toc
	Walk(d, func(n Node) bool {
		if t, ok := n.(*Toc); ok {
			tocs = append(tocs, t)
		}
		return true
	})
	return tocs
}

// AddDependency records a dependency once.
func (d *Document) AddDependency(dep string) {
	for _, existing := range d.Dependencies {
		if existing == dep {
			return
		}
	}
	d.Dependencies = append(d.Dependencies, dep)
}

// Fragment is a parsed sub-document, e.g. the body of a directive.
type Fragment struct {
	Nodes []Node
}

func (f *Fragment) Kind() Kind       { return KindFragment }
func (f *Fragment) Children() []Node { return f.Nodes }

// Chunk is a section-sized text segment used for the search index.
type Chunk struct {
	File       string
	Anchor     string
	Text       string
	Index      int      // sequence number within the document
	Breadcrumb []string // section titles from the document root down
	Tokens     int
}

// ContentHash computes SHA-256 of content and returns the hex string.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
