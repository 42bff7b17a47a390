package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/slug"
	"golang.org/x/net/html"
)

// HTML renders standalone HTML pages.
type HTML struct {
	*NodeRenderer
}

func NewHTML() *HTML {
	h := &HTML{NodeRenderer: NewNodeRenderer("\n")}
	h.registerFuncs()
	return h
}

func (h *HTML) Name() string      { return "html" }
func (h *HTML) Extension() string { return "html" }

func (h *HTML) RenderDocument(ctx *Context) ([]byte, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(ctx.Doc.Title()))
	for _, n := range ctx.Doc.Headers {
		switch hdr := n.(type) {
		case *doctree.Meta:
			fmt.Fprintf(&b, "<meta name=\"%s\" content=\"%s\">\n", html.EscapeString(hdr.Name), html.EscapeString(hdr.Content))
		case *doctree.Stylesheet:
			fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(ctx.RelativeDocURL(hdr.Href)))
		}
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(h.Body(ctx))
	b.WriteString("\n</body>\n</html>\n")
	return []byte(b.String()), nil
}

// Body renders the document body without the page around it.
func (h *HTML) Body(ctx *Context) string {
	return h.RenderAll(ctx, ctx.Doc.Nodes)
}

func (h *HTML) registerFuncs() {
	h.Register(doctree.KindSection, h.section)
	h.Register(doctree.KindTitle, h.title)
	h.Register(doctree.KindParagraph, h.paragraph)
	h.Register(doctree.KindSpan, h.span)
	h.Register(doctree.KindText, func(_ *Context, n doctree.Node) string {
		return html.EscapeString(n.(*doctree.Text).Value)
	})
	h.Register(doctree.KindEmphasis, func(_ *Context, n doctree.Node) string {
		return "<em>" + html.EscapeString(n.(*doctree.Emphasis).Value) + "</em>"
	})
	h.Register(doctree.KindStrong, func(_ *Context, n doctree.Node) string {
		return "<strong>" + html.EscapeString(n.(*doctree.Strong).Value) + "</strong>"
	})
	h.Register(doctree.KindLiteral, func(_ *Context, n doctree.Node) string {
		return "<code>" + html.EscapeString(n.(*doctree.Literal).Value) + "</code>"
	})
	h.Register(doctree.KindReference, h.reference)
	h.Register(doctree.KindLink, h.link)
	h.Register(doctree.KindList, h.list)
	h.Register(doctree.KindListItem, func(ctx *Context, n doctree.Node) string {
		return "<li>" + h.RenderAll(ctx, n.Children()) + "</li>"
	})
	h.Register(doctree.KindTable, h.table)
	h.Register(doctree.KindQuote, func(ctx *Context, n doctree.Node) string {
		return "<blockquote>\n" + h.RenderAll(ctx, n.Children()) + "\n</blockquote>"
	})
	h.Register(doctree.KindSeparator, func(*Context, doctree.Node) string { return "<hr>" })
	h.Register(doctree.KindCode, h.code)
	h.Register(doctree.KindRaw, func(_ *Context, n doctree.Node) string {
		raw := n.(*doctree.Raw)
		if raw.Format != "html" {
			return ""
		}
		return raw.Value
	})
	h.Register(doctree.KindAnchor, func(_ *Context, n doctree.Node) string {
		return fmt.Sprintf("<a id=\"%s\"></a>", html.EscapeString(slug.Make(n.(*doctree.Anchor).Name)))
	})
	h.Register(doctree.KindAdmonition, h.admonition)
	h.Register(doctree.KindContainer, func(ctx *Context, n doctree.Node) string {
		c := n.(*doctree.Container)
		return classDiv(append([]string{"container"}, c.Classes...), h.Render(ctx, c.Content))
	})
	h.Register(doctree.KindTopic, func(ctx *Context, n doctree.Node) string {
		t := n.(*doctree.Topic)
		title := ""
		if t.Title != "" {
			title = "<p class=\"topic-title\">" + html.EscapeString(t.Title) + "</p>\n"
		}
		return classDiv([]string{"topic"}, title+h.Render(ctx, t.Content))
	})
	h.Register(doctree.KindToc, h.toc)
	h.Register(doctree.KindImage, h.image)
	h.Register(doctree.KindDirectivePlaceholder, func(_ *Context, n doctree.Node) string {
		d := n.(*doctree.DirectivePlaceholder)
		return fmt.Sprintf("<!-- %s: %s -->", html.EscapeString(d.Name), html.EscapeString(d.Reason))
	})

	// headers are written into <head>
	for _, k := range []doctree.Kind{doctree.KindMeta, doctree.KindStylesheet, doctree.KindDocumentTitle} {
		h.Register(k, func(*Context, doctree.Node) string { return "" })
	}
}

func classDiv(classes []string, inner string) string {
	return fmt.Sprintf("<div class=\"%s\">\n%s\n</div>", html.EscapeString(strings.Join(classes, " ")), inner)
}

func (h *HTML) section(ctx *Context, n doctree.Node) string {
	s := n.(*doctree.Section)
	return fmt.Sprintf("<section id=\"%s\">\n%s\n</section>", html.EscapeString(s.Title.ID), h.RenderAll(ctx, s.Children()))
}

func (h *HTML) title(ctx *Context, n doctree.Node) string {
	t := n.(*doctree.Title)
	level := min(max(t.Level, 1), 6)
	return fmt.Sprintf("<h%d>%s</h%d>", level, h.Render(ctx, t.Value), level)
}

func (h *HTML) paragraph(ctx *Context, n doctree.Node) string {
	return "<p>" + h.Render(ctx, n.(*doctree.Paragraph).Value) + "</p>"
}

func (h *HTML) span(ctx *Context, n doctree.Node) string {
	var b strings.Builder
	for _, c := range n.Children() {
		b.WriteString(h.Render(ctx, c))
	}
	return b.String()
}

// reference renders a resolved role. Invalid references become plain text.
func (h *HTML) reference(ctx *Context, n doctree.Node) string {
	res := ctx.ResolveReference(n.(*doctree.Reference))
	if res.Invalid {
		return html.EscapeString(res.Text())
	}
	attrs := ""
	if t, ok := res.Attributes["title"]; ok {
		attrs = fmt.Sprintf(" title=\"%s\"", html.EscapeString(t))
	}
	return fmt.Sprintf("<a href=\"%s\"%s>%s</a>", html.EscapeString(ctx.RelativeDocURL(res.URL)), attrs, html.EscapeString(res.Text()))
}

func (h *HTML) link(ctx *Context, n doctree.Node) string {
	l := n.(*doctree.Link)
	url := l.URL
	if url == "" {
		var ok bool
		if url, ok = ctx.LinkURL(l.Text); !ok {
			ctx.Log.Warn("undefined link", "link", l.Text)
			return html.EscapeString(l.Text)
		}
	}
	return fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(url), html.EscapeString(l.Text))
}

func (h *HTML) list(ctx *Context, n doctree.Node) string {
	l := n.(*doctree.List)
	tag := "ul"
	if l.Ordered {
		tag = "ol"
	}
	return "<" + tag + ">\n" + h.RenderAll(ctx, l.Children()) + "\n</" + tag + ">"
}

func (h *HTML) table(ctx *Context, n doctree.Node) string {
	t := n.(*doctree.Table)
	var b strings.Builder
	b.WriteString("<table>\n")
	if head := t.HeaderRows(); len(head) > 0 {
		b.WriteString("<thead>\n")
		h.rows(ctx, &b, head, "th")
		b.WriteString("</thead>\n")
	}
	b.WriteString("<tbody>\n")
	h.rows(ctx, &b, t.BodyRows(), "td")
	b.WriteString("</tbody>\n</table>")
	return b.String()
}

func (h *HTML) rows(ctx *Context, b *strings.Builder, rows []*doctree.TableRow, tag string) {
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, col := range row.Columns {
			b.WriteString("<" + tag)
			if col.ColSpan > 1 {
				fmt.Fprintf(b, " colspan=\"%d\"", col.ColSpan)
			}
			if span := col.RenderedRowSpan(); span > 1 {
				fmt.Fprintf(b, " rowspan=\"%d\"", span)
			}
			b.WriteString(">")
			b.WriteString(h.cell(ctx, col))
			b.WriteString("</" + tag + ">")
		}
		b.WriteString("</tr>\n")
	}
}

func (h *HTML) cell(ctx *Context, col *doctree.TableColumn) string {
	switch {
	case col.IntentionallyEmpty():
		return ""
	case col.Node != nil:
		return h.Render(ctx, col.Node)
	case col.Content == "":
		return "&nbsp;"
	default:
		return html.EscapeString(col.Content)
	}
}

func (h *HTML) code(_ *Context, n doctree.Node) string {
	c := n.(*doctree.Code)
	var b strings.Builder
	b.WriteString("<pre")
	if c.Language != "" {
		fmt.Fprintf(&b, " class=\"language-%s\"", html.EscapeString(c.Language))
	}
	b.WriteString("><code>")
	for i, line := range strings.Split(c.Value, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if c.LineNumbers {
			fmt.Fprintf(&b, "<span class=\"linenos\">%d</span>", i+1)
		}
		if slices.Contains(c.Highlight, i+1) {
			b.WriteString("<span class=\"hll\">" + html.EscapeString(line) + "</span>")
		} else {
			b.WriteString(html.EscapeString(line))
		}
	}
	b.WriteString("</code></pre>")
	return b.String()
}

func (h *HTML) admonition(ctx *Context, n doctree.Node) string {
	a := n.(*doctree.Admonition)
	title := a.Title
	if title == "" {
		title = admonitionTitle(a.Name)
	}
	classes := append([]string{"admonition", a.Name}, a.Classes...)
	inner := "<p class=\"admonition-title\">" + html.EscapeString(title) + "</p>\n" + h.Render(ctx, a.Content)
	return classDiv(classes, inner)
}

// admonitionTitle turns "seealso" into "See also" and "note" into "Note".
func admonitionTitle(name string) string {
	if name == "seealso" {
		return "See also"
	}
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func (h *HTML) toc(ctx *Context, n doctree.Node) string {
	toc := n.(*doctree.Toc)
	if toc.Hidden {
		return ""
	}
	var b strings.Builder
	b.WriteString("<div class=\"toctree-wrapper\">\n")
	if toc.Caption != "" {
		b.WriteString("<p class=\"caption\">" + html.EscapeString(toc.Caption) + "</p>\n")
	}
	writeTocList(&b, ctx.TocItems(toc), 1)
	b.WriteString("</div>")
	return b.String()
}

func writeTocList(b *strings.Builder, items []TocItem, level int) {
	if len(items) == 0 {
		return
	}
	b.WriteString("<ul>\n")
	for _, it := range items {
		fmt.Fprintf(b, "<li class=\"toctree-l%d\"><a href=\"%s\">%s</a>", level, html.EscapeString(it.URL), html.EscapeString(it.Title))
		if len(it.Children) > 0 {
			b.WriteByte('\n')
			writeTocList(b, it.Children, level+1)
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
}

func (h *HTML) image(ctx *Context, n doctree.Node) string {
	img := n.(*doctree.Image)
	var b strings.Builder
	fmt.Fprintf(&b, "<img src=\"%s\" alt=\"%s\"", html.EscapeString(ctx.CopyAsset(img.URL)), html.EscapeString(img.Alt))
	for _, attr := range [][2]string{{"width", img.Width}, {"height", img.Height}} {
		if attr[1] != "" {
			fmt.Fprintf(&b, " %s=\"%s\"", attr[0], html.EscapeString(attr[1]))
		}
	}
	if img.Align != "" {
		b.WriteString(" class=\"align-" + html.EscapeString(img.Align) + "\"")
	}
	b.WriteString(">")
	if img.Caption == nil {
		return b.String()
	}
	return "<figure>\n" + b.String() + "\n<figcaption>" + h.Render(ctx, img.Caption) + "</figcaption>\n</figure>"
}

// TocHTML renders a title tree as nested lists, as used by the fjson "toc"
// field.
func TocHTML(items []TocItem) string {
	var b strings.Builder
	writeTocList(&b, items, 1)
	return b.String()
}
