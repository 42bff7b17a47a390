package doctree

// Section groups a title with the nodes that follow it up to the next
// title of the same or a higher level.
type Section struct {
	Title *Title
	Nodes []Node
}

func (s *Section) Kind() Kind { return KindSection }
func (s *Section) Children() []Node {
	return append([]Node{s.Title}, s.Nodes...)
}

// Title is a section heading. Level starts at the configured initial
// header level; ID is the slug used as the HTML anchor.
type Title struct {
	Value *Span
	Level int
	ID    string
}

func (t *Title) Kind() Kind       { return KindTitle }
func (t *Title) Children() []Node { return []Node{t.Value} }

type Paragraph struct {
	Value *Span
}

func (p *Paragraph) Kind() Kind       { return KindParagraph }
func (p *Paragraph) Children() []Node { return []Node{p.Value} }

// Span is an inline compound: text interleaved with markup and references.
type Span struct {
	Nodes []Node
}

func (s *Span) Kind() Kind       { return KindSpan }
func (s *Span) Children() []Node { return s.Nodes }

type Text struct{ Value string }

func (t *Text) Kind() Kind       { return KindText }
func (t *Text) Children() []Node { return nil }

type Emphasis struct{ Value string }

func (e *Emphasis) Kind() Kind       { return KindEmphasis }
func (e *Emphasis) Children() []Node { return nil }

type Strong struct{ Value string }

func (s *Strong) Kind() Kind       { return KindStrong }
func (s *Strong) Children() []Node { return nil }

type Literal struct{ Value string }

func (l *Literal) Kind() Kind       { return KindLiteral }
func (l *Literal) Children() []Node { return nil }

// Reference is an unresolved role such as :doc:`install` or
// :ref:`Install <install-guide#requirements>`. Resolution happens at
// render time against the Meta index.
type Reference struct {
	Role   string // "doc", "ref", "php:class", ...
	Target string
	Anchor string
	Text   string // explicit display text, empty when none was given
}

func (r *Reference) Kind() Kind       { return KindReference }
func (r *Reference) Children() []Node { return nil }

// Link is a hyperlink. An empty URL means a named reference ("name"_) that
// is looked up in the document's declared links at render time.
type Link struct {
	Text      string
	URL       string
	Anonymous bool
}

func (l *Link) Kind() Kind       { return KindLink }
func (l *Link) Children() []Node { return nil }

type List struct {
	Ordered bool
	Items   []*ListItem
}

func (l *List) Kind() Kind { return KindList }
func (l *List) Children() []Node {
	out := make([]Node, len(l.Items))
	for i, it := range l.Items {
		out[i] = it
	}
	return out
}

type ListItem struct {
	Marker string
	Nodes  []Node
}

func (li *ListItem) Kind() Kind       { return KindListItem }
func (li *ListItem) Children() []Node { return li.Nodes }

// Quote is an indented block that is not part of another construct.
type Quote struct {
	Nodes []Node
}

func (q *Quote) Kind() Kind       { return KindQuote }
func (q *Quote) Children() []Node { return q.Nodes }

type Separator struct{}

func (s *Separator) Kind() Kind       { return KindSeparator }
func (s *Separator) Children() []Node { return nil }

type Code struct {
	Language    string
	Value       string
	LineNumbers bool
	Highlight   []int // 1-based lines to emphasize
}

func (c *Code) Kind() Kind       { return KindCode }
func (c *Code) Children() []Node { return nil }

// Raw is passed through to renderers of the matching format untouched.
type Raw struct {
	Format string
	Value  string
}

func (r *Raw) Kind() Kind       { return KindRaw }
func (r *Raw) Children() []Node { return nil }

// Anchor marks a link target declared with ".. _name:".
type Anchor struct {
	Name string
}

func (a *Anchor) Kind() Kind       { return KindAnchor }
func (a *Anchor) Children() []Node { return nil }

// Admonition covers note, warning, tip and the rest of the family. Title is
// only set for the generic "admonition" directive.
type Admonition struct {
	Name    string
	Title   string
	Classes []string
	Content *Fragment
}

func (a *Admonition) Kind() Kind       { return KindAdmonition }
func (a *Admonition) Children() []Node { return []Node{a.Content} }

type Container struct {
	Classes []string
	Content *Fragment
}

func (c *Container) Kind() Kind       { return KindContainer }
func (c *Container) Children() []Node { return []Node{c.Content} }

type Topic struct {
	Title   string
	Content *Fragment
}

func (t *Topic) Kind() Kind       { return KindTopic }
func (t *Topic) Children() []Node { return []Node{t.Content} }

// Toc is one toctree occurrence. Entries are kept as written; the resolved
// file list lives on the document's meta entry at Tocs[Index].
type Toc struct {
	Entries    []string
	Glob       bool
	Hidden     bool
	TitlesOnly bool
	MaxDepth   int
	Caption    string
	Index      int
}

func (t *Toc) Kind() Kind       { return KindToc }
func (t *Toc) Children() []Node { return nil }

type Image struct {
	URL     string
	Alt     string
	Width   string
	Height  string
	Align   string
	Caption *Fragment // set by the figure directive
}

func (i *Image) Kind() Kind { return KindImage }
func (i *Image) Children() []Node {
	if i.Caption == nil {
		return nil
	}
	return []Node{i.Caption}
}

type Meta struct {
	Name    string
	Content string
}

func (m *Meta) Kind() Kind       { return KindMeta }
func (m *Meta) Children() []Node { return nil }

type Stylesheet struct {
	Href string
}

func (s *Stylesheet) Kind() Kind       { return KindStylesheet }
func (s *Stylesheet) Children() []Node { return nil }

// DocumentTitle is the header node emitted by the title directive.
type DocumentTitle struct {
	Value string
}

func (t *DocumentTitle) Kind() Kind       { return KindDocumentTitle }
func (t *DocumentTitle) Children() []Node { return nil }

// DirectivePlaceholder preserves a directive that no handler produced a
// node for, either because none is registered or because it failed.
type DirectivePlaceholder struct {
	Name   string
	Data   string
	Body   string
	Reason string
}

func (d *DirectivePlaceholder) Kind() Kind       { return KindDirectivePlaceholder }
func (d *DirectivePlaceholder) Children() []Node { return nil }
