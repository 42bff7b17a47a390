package rst

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/slug"
)

// FileReader gives directives read access to files next to the document,
// e.g. csv-table's :file: option.
type FileReader interface {
	Read(path string) ([]byte, error)
}

// Context is the per-document parse state handed to directive handlers.
type Context struct {
	parser  *Parser
	doc     *doctree.Document
	log     *slog.Logger
	letters []byte // title adornments in first-seen order
	ids     slug.Set
	tocs    int
}

func newContext(p *Parser, doc *doctree.Document) *Context {
	return &Context{
		parser: p,
		doc:    doc,
		log:    p.log.With("file", doc.Path),
	}
}

func (c *Context) Document() *doctree.Document { return c.doc }
func (c *Context) Path() string                { return c.doc.Path }
func (c *Context) Logger() *slog.Logger        { return c.log }

// AddHeader appends a node to the document header section.
func (c *Context) AddHeader(n doctree.Node) {
	c.doc.Headers = append(c.doc.Headers, n)
}

func (c *Context) AddDependency(dep string) {
	c.doc.AddDependency(dep)
}

// SetLink declares a named link in the document.
func (c *Context) SetLink(name, url string) {
	if c.doc.Links == nil {
		c.doc.Links = make(map[string]string)
	}
	c.doc.Links[name] = url
}

// ResolvePath resolves target relative to the current document.
func (c *Context) ResolvePath(target string) string {
	return doctree.ResolvePath(c.doc.Path, target)
}

// NextTocIndex numbers toctree occurrences within the document.
func (c *Context) NextTocIndex() int {
	i := c.tocs
	c.tocs++
	return i
}

// ReadFile reads a file relative to the current document's directory.
func (c *Context) ReadFile(rel string) ([]byte, error) {
	if c.parser.files == nil {
		return nil, fmt.Errorf("read %s: no file system configured", rel)
	}
	p := path.Join(doctree.Dir(c.doc.Path), rel)
	if path.IsAbs(rel) {
		p = path.Clean(rel)[1:]
	}
	data, err := c.parser.files.Read(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// ParseFragment parses src as nested block content.
func (c *Context) ParseFragment(src string) (*doctree.Fragment, error) {
	nodes, err := c.parseBlocks(NewLines(src), false)
	if err != nil {
		return nil, err
	}
	return &doctree.Fragment{Nodes: nodes}, nil
}

// ParseSpan parses inline markup.
func (c *Context) ParseSpan(text string) *doctree.Span {
	s := &spanScanner{ctx: c, src: text}
	return &doctree.Span{Nodes: s.scan()}
}

func (c *Context) titleLevel(letter byte) int {
	for i, l := range c.letters {
		if l == letter {
			return c.parser.cfg.InitialHeaderLevel + i
		}
	}
	c.letters = append(c.letters, letter)
	return c.parser.cfg.InitialHeaderLevel + len(c.letters) - 1
}

// titleID returns a slug for text that is unique within the document.
func (c *Context) titleID(text string) string {
	return c.ids.Unique(text)
}

func anchorID(name string) string {
	return slug.Make(name)
}
