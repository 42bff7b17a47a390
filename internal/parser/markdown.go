package parser

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Relative links to
// other source files become :doc: references so they take part in
// dependency tracking like reStructuredText documents do.
type MarkdownParser struct {
	md goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

func (p *MarkdownParser) Parse(docPath string, src []byte) (*doctree.Document, error) {
	root := p.md.Parser().Parse(text.NewReader(src))

	doc := &doctree.Document{
		Hash:  doctree.ContentHash(src),
		Path:  docPath,
		Links: make(map[string]string),
	}
	b := &mdBuilder{src: src, doc: doc}
	doc.Nodes = doctree.NestSections(b.blocks(root))
	return doc, nil
}

type mdBuilder struct {
	src []byte
	doc *doctree.Document
	ids slug.Set
}

func (b *mdBuilder) blocks(parent ast.Node) []doctree.Node {
	var out []doctree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			span := b.inline(node)
			out = append(out, &doctree.Title{
				Value: span,
				Level: node.Level,
				ID:    b.ids.Unique(doctree.PlainText(span)),
			})
		case *ast.Paragraph, *ast.TextBlock:
			span := b.inline(node)
			// a paragraph holding only an image is a block image
			if len(span.Nodes) == 1 {
				if img, ok := span.Nodes[0].(*doctree.Image); ok {
					out = append(out, img)
					continue
				}
			}
			out = append(out, &doctree.Paragraph{Value: span})
		case *ast.List:
			out = append(out, b.list(node))
		case *ast.FencedCodeBlock:
			out = append(out, &doctree.Code{
				Language: string(node.Language(b.src)),
				Value:    b.lines(node),
			})
		case *ast.CodeBlock:
			out = append(out, &doctree.Code{Value: b.lines(node)})
		case *ast.HTMLBlock:
			v := b.lines(node)
			if node.HasClosure() {
				v += "\n" + string(node.ClosureLine.Value(b.src))
			}
			out = append(out, &doctree.Raw{Format: "html", Value: strings.TrimSpace(v)})
		case *ast.ThematicBreak:
			out = append(out, &doctree.Separator{})
		case *ast.Blockquote:
			out = append(out, &doctree.Quote{Nodes: b.blocks(node)})
		case *east.Table:
			out = append(out, b.table(node))
		default:
			out = append(out, b.blocks(node)...)
		}
	}
	return out
}

func (b *mdBuilder) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(b.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (b *mdBuilder) list(l *ast.List) *doctree.List {
	list := &doctree.List{Ordered: l.IsOrdered()}
	i := 0
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		marker := string(l.Marker)
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d%c", l.Start+i, l.Marker)
		}
		list.Items = append(list.Items, &doctree.ListItem{Marker: marker, Nodes: b.blocks(c)})
		i++
	}
	return list
}

func (b *mdBuilder) table(t *east.Table) *doctree.Table {
	table := &doctree.Table{}
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		_, header := r.(*east.TableHeader)
		row := &doctree.TableRow{Header: header}
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			span := b.inline(c)
			col := row.AddColumn(doctree.PlainText(span), 1)
			if len(span.Nodes) > 0 {
				col.Node = span
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func (b *mdBuilder) inline(parent ast.Node) *doctree.Span {
	span := &doctree.Span{}
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			span.Nodes = append(span.Nodes, &doctree.Text{Value: pending.String()})
			pending.Reset()
		}
	}
	emit := func(n doctree.Node) {
		flush()
		span.Nodes = append(span.Nodes, n)
	}

	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			pending.Write(node.Value(b.src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				pending.WriteByte('\n')
			}
		case *ast.String:
			pending.Write(node.Value)
		case *ast.CodeSpan:
			emit(&doctree.Literal{Value: b.innerText(node)})
		case *ast.Emphasis:
			if node.Level >= 2 {
				emit(&doctree.Strong{Value: b.innerText(node)})
			} else {
				emit(&doctree.Emphasis{Value: b.innerText(node)})
			}
		case *ast.Link:
			emit(b.link(string(node.Destination), b.innerText(node)))
		case *ast.AutoLink:
			url := string(node.URL(b.src))
			if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
				url = "mailto:" + url
			}
			emit(&doctree.Link{Text: string(node.Label(b.src)), URL: url})
		case *ast.Image:
			emit(&doctree.Image{URL: string(node.Destination), Alt: b.innerText(node)})
		case *ast.RawHTML:
			var raw bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				raw.Write(seg.Value(b.src))
			}
			emit(&doctree.Raw{Format: "html", Value: raw.String()})
		default:
			flush()
			span.Nodes = append(span.Nodes, b.inline(node).Nodes...)
		}
	}
	flush()
	return span
}

func (b *mdBuilder) innerText(n ast.Node) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Value(b.src))
			if node.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		default:
			buf.WriteString(b.innerText(node))
		}
	}
	return buf.String()
}

// link maps a Markdown link to a document reference when it points at
// another source file, e.g. [Install](install.md#requirements).
func (b *mdBuilder) link(dest, label string) doctree.Node {
	target, anchor, _ := strings.Cut(dest, "#")
	if target == "" || strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") {
		return &doctree.Link{Text: label, URL: dest}
	}
	if doctree.StripExtension(target) == target && path.Ext(target) != "" {
		return &doctree.Link{Text: label, URL: dest}
	}
	resolved := doctree.ResolvePath(b.doc.Path, target)
	b.doc.AddDependency(resolved)
	return &doctree.Reference{
		Role:   "doc",
		Target: doctree.StripExtension(target),
		Anchor: anchor,
		Text:   label,
	}
}
