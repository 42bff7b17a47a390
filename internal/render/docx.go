package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/fumiama/go-docx"
)

// docxBlockFunc writes one block node into the document being built.
type docxBlockFunc func(b *docxBuilder, n doctree.Node)

// Docx renders Word documents. Block kinds are dispatched through a
// Kind-keyed table like the text formats; inline content is flattened
// into runs of the enclosing paragraph.
type Docx struct {
	blocks map[doctree.Kind]docxBlockFunc
}

func NewDocx() *Docx {
	d := &Docx{blocks: make(map[doctree.Kind]docxBlockFunc)}
	d.registerFuncs()
	return d
}

func (d *Docx) Name() string      { return "docx" }
func (d *Docx) Extension() string { return "docx" }

func (d *Docx) RenderDocument(ctx *Context) ([]byte, error) {
	b := &docxBuilder{format: d, ctx: ctx, doc: docx.New().WithDefaultTheme()}
	b.blocks(ctx.Doc.Nodes)

	var buf bytes.Buffer
	if _, err := b.doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

type docxBuilder struct {
	format *Docx
	ctx    *Context
	doc    *docx.Docx
}

func (b *docxBuilder) blocks(nodes []doctree.Node) {
	for _, n := range nodes {
		b.block(n)
	}
}

func (b *docxBuilder) block(n doctree.Node) {
	if n == nil {
		return
	}
	if fn, ok := b.format.blocks[n.Kind()]; ok {
		fn(b, n)
		return
	}
	b.blocks(n.Children())
}

func (d *Docx) registerFuncs() {
	d.blocks[doctree.KindTitle] = func(b *docxBuilder, n doctree.Node) {
		t := n.(*doctree.Title)
		p := b.doc.AddParagraph().Style(fmt.Sprintf("Heading%d", min(max(t.Level, 1), 9)))
		size := 36 - 4*min(max(t.Level, 1), 4)
		p.AddText(doctree.PlainText(t)).Bold().Size(fmt.Sprint(size))
	}
	d.blocks[doctree.KindParagraph] = func(b *docxBuilder, n doctree.Node) {
		b.inline(b.doc.AddParagraph(), n.(*doctree.Paragraph).Value)
	}
	d.blocks[doctree.KindList] = func(b *docxBuilder, n doctree.Node) {
		for i, item := range n.(*doctree.List).Items {
			marker := "•"
			if n.(*doctree.List).Ordered {
				marker = fmt.Sprintf("%d.", i+1)
			}
			b.listItem(marker, item)
		}
	}
	d.blocks[doctree.KindTable] = func(b *docxBuilder, n doctree.Node) {
		b.table(n.(*doctree.Table))
	}
	d.blocks[doctree.KindCode] = func(b *docxBuilder, n doctree.Node) {
		p := b.doc.AddParagraph()
		p.AddText(n.(*doctree.Code).Value).Font("Courier New", "Courier New", "Courier New", "")
	}
	d.blocks[doctree.KindSeparator] = func(b *docxBuilder, _ doctree.Node) {
		b.doc.AddParagraph().Justification("center").AddText("* * *")
	}
	d.blocks[doctree.KindAdmonition] = func(b *docxBuilder, n doctree.Node) {
		a := n.(*doctree.Admonition)
		title := a.Title
		if title == "" {
			title = admonitionTitle(a.Name)
		}
		b.doc.AddParagraph().AddText(title).Bold().Shade("clear", "auto", "E7E6E6")
		b.block(a.Content)
	}
	d.blocks[doctree.KindTopic] = func(b *docxBuilder, n doctree.Node) {
		t := n.(*doctree.Topic)
		if t.Title != "" {
			b.doc.AddParagraph().AddText(t.Title).Bold()
		}
		b.block(t.Content)
	}
	d.blocks[doctree.KindToc] = func(b *docxBuilder, n doctree.Node) {
		toc := n.(*doctree.Toc)
		if toc.Hidden {
			return
		}
		b.tocItems(b.ctx.TocItems(toc), 0)
	}
	d.blocks[doctree.KindImage] = func(b *docxBuilder, n doctree.Node) {
		img := n.(*doctree.Image)
		p := b.doc.AddParagraph()
		if err := b.embed(p, img.URL); err != nil {
			b.ctx.Log.Error("embed image", "asset", img.URL, "error", err)
			p.AddText(img.Alt)
		}
		if img.Caption != nil {
			b.block(img.Caption)
		}
	}
	d.blocks[doctree.KindRaw] = func(*docxBuilder, doctree.Node) {}
	d.blocks[doctree.KindDirectivePlaceholder] = func(*docxBuilder, doctree.Node) {}
	d.blocks[doctree.KindAnchor] = func(*docxBuilder, doctree.Node) {}
}

func (b *docxBuilder) embed(p *docx.Paragraph, src string) error {
	if b.ctx.Source == nil {
		return errors.New("no source file system")
	}
	data, err := b.ctx.Source.Read(b.ctx.AssetPath(src))
	if err != nil {
		return err
	}
	_, err = p.AddInlineDrawing(data)
	return err
}

func (b *docxBuilder) listItem(marker string, item *doctree.ListItem) {
	for i, n := range item.Nodes {
		para, ok := n.(*doctree.Paragraph)
		if !ok {
			b.block(n)
			continue
		}
		p := b.doc.AddParagraph()
		if i == 0 {
			p.AddText(marker + " ")
		}
		b.inline(p, para.Value)
	}
}

func (b *docxBuilder) tocItems(items []TocItem, depth int) {
	for _, it := range items {
		p := b.doc.AddParagraph()
		p.AddText(strings.Repeat("    ", depth))
		p.AddLink(it.Title, it.URL)
		b.tocItems(it.Children, depth+1)
	}
}

func (b *docxBuilder) table(t *doctree.Table) {
	cols := 0
	for _, row := range t.Rows {
		cols = max(cols, len(row.Columns))
	}
	if cols == 0 {
		return
	}
	tbl := b.doc.AddTable(len(t.Rows), cols, 0, nil)
	for i, row := range t.Rows {
		tr := tbl.TableRows[i]
		for j, col := range row.Columns {
			cell := tr.TableCells[j]
			if col.ColSpan > 1 {
				cell.TableCellProperties.GridSpan = &docx.WGridSpan{Val: col.ColSpan}
			}
			p := cell.AddParagraph()
			switch {
			case col.IntentionallyEmpty():
			case col.Node != nil:
				b.inline(p, col.Node)
			case col.Content == "":
				p.AddText("\u00a0")
			default:
				p.AddText(col.Content)
			}
			if row.Header {
				for _, r := range p.Children {
					if run, ok := r.(*docx.Run); ok {
						run.Bold()
					}
				}
			}
		}
		for j := len(row.Columns); j < cols; j++ {
			tr.TableCells[j].AddParagraph()
		}
	}
}

// inline appends the text of a span to p as runs.
func (b *docxBuilder) inline(p *docx.Paragraph, n doctree.Node) {
	switch v := n.(type) {
	case *doctree.Text:
		p.AddText(v.Value)
	case *doctree.Emphasis:
		p.AddText(v.Value).Italic()
	case *doctree.Strong:
		p.AddText(v.Value).Bold()
	case *doctree.Literal:
		p.AddText(v.Value).Font("Courier New", "Courier New", "Courier New", "")
	case *doctree.Reference:
		res := b.ctx.ResolveReference(v)
		if res.Invalid {
			p.AddText(res.Text())
			return
		}
		p.AddLink(res.Text(), b.ctx.RelativeDocURL(res.URL))
	case *doctree.Link:
		url := v.URL
		if url == "" {
			var ok bool
			if url, ok = b.ctx.LinkURL(v.Text); !ok {
				p.AddText(v.Text)
				return
			}
		}
		p.AddLink(v.Text, url)
	case *doctree.Image:
		p.AddText(v.Alt)
	case *doctree.Raw:
	default:
		if n == nil {
			return
		}
		for _, c := range n.Children() {
			b.inline(p, c)
		}
	}
}
