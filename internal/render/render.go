// Package render projects document trees into output formats. Each text
// format keeps a Kind-keyed table of render functions that extensions can
// add to or override; node kinds without an entry fall back to rendering
// their children.
package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
)

// ErrUnknownFormat is returned when asking for a format that is not
// registered.
var ErrUnknownFormat = errors.New("unknown format")

// Format renders a whole document.
type Format interface {
	Name() string
	Extension() string
	RenderDocument(ctx *Context) ([]byte, error)
}

// Render renders ctx.Doc with f.
func Render(ctx *Context, f Format) ([]byte, error) {
	ctx.ext = f.Extension()
	out, err := f.RenderDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("render %s as %s: %w", ctx.Doc.Path, f.Name(), err)
	}
	return out, nil
}

// RenderFunc renders one node to text.
type RenderFunc func(ctx *Context, n doctree.Node) string

// NodeRenderer dispatches nodes to render functions by Kind.
type NodeRenderer struct {
	funcs map[doctree.Kind]RenderFunc
	sep   string
}

// NewNodeRenderer returns an empty renderer. sep is written between
// sibling block nodes.
func NewNodeRenderer(sep string) *NodeRenderer {
	return &NodeRenderer{funcs: make(map[doctree.Kind]RenderFunc), sep: sep}
}

// Register installs fn for kind, replacing any previous function.
func (r *NodeRenderer) Register(kind doctree.Kind, fn RenderFunc) {
	r.funcs[kind] = fn
}

func (r *NodeRenderer) Has(kind doctree.Kind) bool {
	_, ok := r.funcs[kind]
	return ok
}

// Render renders n with the function registered for its kind. Unknown
// kinds render their children, or nothing when they have none.
func (r *NodeRenderer) Render(ctx *Context, n doctree.Node) string {
	if n == nil {
		return ""
	}
	if fn, ok := r.funcs[n.Kind()]; ok {
		return fn(ctx, n)
	}
	return r.RenderAll(ctx, n.Children())
}

// RenderAll renders nodes in order, skipping nodes that render empty.
func (r *NodeRenderer) RenderAll(ctx *Context, nodes []doctree.Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s := r.Render(ctx, n); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, r.sep)
}

// Formats is a set of formats keyed by name.
type Formats struct {
	m map[string]Format
}

func NewFormats(formats ...Format) *Formats {
	f := &Formats{m: make(map[string]Format)}
	for _, format := range formats {
		f.Register(format)
	}
	return f
}

// DefaultFormats returns HTML, LaTeX and DOCX.
func DefaultFormats() *Formats {
	return NewFormats(NewHTML(), NewLaTeX(), NewDocx())
}

// Register adds or replaces a format.
func (f *Formats) Register(format Format) {
	f.m[format.Name()] = format
}

func (f *Formats) Get(name string) (Format, error) {
	format, ok := f.m[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return format, nil
}

func (f *Formats) Names() []string {
	names := make([]string, 0, len(f.m))
	for name := range f.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
