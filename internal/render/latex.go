package render

import (
	"fmt"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/slug"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

func escapeLaTeX(s string) string { return latexEscaper.Replace(s) }

var latexSections = []string{"chapter", "section", "subsection", "subsubsection", "paragraph", "subparagraph"}

// LaTeX renders one LaTeX document per source file.
type LaTeX struct {
	*NodeRenderer
}

func NewLaTeX() *LaTeX {
	l := &LaTeX{NodeRenderer: NewNodeRenderer("\n\n")}
	l.registerFuncs()
	return l
}

func (l *LaTeX) Name() string      { return "latex" }
func (l *LaTeX) Extension() string { return "tex" }

func (l *LaTeX) RenderDocument(ctx *Context) ([]byte, error) {
	var b strings.Builder
	b.WriteString("\\documentclass{report}\n\\usepackage[utf8]{inputenc}\n\\usepackage{graphicx}\n\\usepackage{multirow}\n\\usepackage{hyperref}\n")
	fmt.Fprintf(&b, "\\title{%s}\n", escapeLaTeX(ctx.Doc.Title()))
	b.WriteString("\\begin{document}\n")
	b.WriteString(l.RenderAll(ctx, ctx.Doc.Nodes))
	b.WriteString("\n\\end{document}\n")
	return []byte(b.String()), nil
}

func (l *LaTeX) registerFuncs() {
	l.Register(doctree.KindSection, func(ctx *Context, n doctree.Node) string {
		return l.RenderAll(ctx, n.Children())
	})
	l.Register(doctree.KindTitle, func(ctx *Context, n doctree.Node) string {
		t := n.(*doctree.Title)
		cmd := latexSections[min(max(t.Level, 1), len(latexSections))-1]
		return fmt.Sprintf("\\%s{%s}\\label{%s}", cmd, l.Render(ctx, t.Value), t.ID)
	})
	l.Register(doctree.KindParagraph, func(ctx *Context, n doctree.Node) string {
		return l.Render(ctx, n.(*doctree.Paragraph).Value)
	})
	l.Register(doctree.KindSpan, func(ctx *Context, n doctree.Node) string {
		var b strings.Builder
		for _, c := range n.Children() {
			b.WriteString(l.Render(ctx, c))
		}
		return b.String()
	})
	l.Register(doctree.KindText, func(_ *Context, n doctree.Node) string {
		return escapeLaTeX(n.(*doctree.Text).Value)
	})
	l.Register(doctree.KindEmphasis, func(_ *Context, n doctree.Node) string {
		return "\\emph{" + escapeLaTeX(n.(*doctree.Emphasis).Value) + "}"
	})
	l.Register(doctree.KindStrong, func(_ *Context, n doctree.Node) string {
		return "\\textbf{" + escapeLaTeX(n.(*doctree.Strong).Value) + "}"
	})
	l.Register(doctree.KindLiteral, func(_ *Context, n doctree.Node) string {
		return "\\texttt{" + escapeLaTeX(n.(*doctree.Literal).Value) + "}"
	})
	l.Register(doctree.KindReference, func(ctx *Context, n doctree.Node) string {
		res := ctx.ResolveReference(n.(*doctree.Reference))
		if res.Invalid {
			return escapeLaTeX(res.Text())
		}
		return fmt.Sprintf("\\href{%s}{%s}", escapeURL(ctx.RelativeDocURL(res.URL)), escapeLaTeX(res.Text()))
	})
	l.Register(doctree.KindLink, func(ctx *Context, n doctree.Node) string {
		link := n.(*doctree.Link)
		url := link.URL
		if url == "" {
			var ok bool
			if url, ok = ctx.LinkURL(link.Text); !ok {
				ctx.Log.Warn("undefined link", "link", link.Text)
				return escapeLaTeX(link.Text)
			}
		}
		return fmt.Sprintf("\\href{%s}{%s}", escapeURL(url), escapeLaTeX(link.Text))
	})
	l.Register(doctree.KindList, func(ctx *Context, n doctree.Node) string {
		env := "itemize"
		if n.(*doctree.List).Ordered {
			env = "enumerate"
		}
		return "\\begin{" + env + "}\n" + l.RenderAll(ctx, n.Children()) + "\n\\end{" + env + "}"
	})
	l.Register(doctree.KindListItem, func(ctx *Context, n doctree.Node) string {
		return "\\item " + l.RenderAll(ctx, n.Children())
	})
	l.Register(doctree.KindTable, l.table)
	l.Register(doctree.KindQuote, func(ctx *Context, n doctree.Node) string {
		return "\\begin{quote}\n" + l.RenderAll(ctx, n.Children()) + "\n\\end{quote}"
	})
	l.Register(doctree.KindSeparator, func(*Context, doctree.Node) string {
		return "\\noindent\\rule{\\linewidth}{0.4pt}"
	})
	l.Register(doctree.KindCode, func(_ *Context, n doctree.Node) string {
		return "\\begin{verbatim}\n" + n.(*doctree.Code).Value + "\n\\end{verbatim}"
	})
	l.Register(doctree.KindRaw, func(_ *Context, n doctree.Node) string {
		raw := n.(*doctree.Raw)
		if raw.Format != "latex" {
			return ""
		}
		return raw.Value
	})
	l.Register(doctree.KindAnchor, func(_ *Context, n doctree.Node) string {
		return "\\label{" + slug.Make(n.(*doctree.Anchor).Name) + "}"
	})
	l.Register(doctree.KindAdmonition, func(ctx *Context, n doctree.Node) string {
		a := n.(*doctree.Admonition)
		title := a.Title
		if title == "" {
			title = admonitionTitle(a.Name)
		}
		return "\\begin{quote}\n\\textbf{" + escapeLaTeX(title) + "}\n\n" + l.Render(ctx, a.Content) + "\n\\end{quote}"
	})
	l.Register(doctree.KindTopic, func(ctx *Context, n doctree.Node) string {
		t := n.(*doctree.Topic)
		out := l.Render(ctx, t.Content)
		if t.Title != "" {
			out = "\\textbf{" + escapeLaTeX(t.Title) + "}\n\n" + out
		}
		return out
	})
	l.Register(doctree.KindToc, func(ctx *Context, n doctree.Node) string {
		toc := n.(*doctree.Toc)
		if toc.Hidden {
			return ""
		}
		return latexTocList(ctx.TocItems(toc))
	})
	l.Register(doctree.KindImage, func(ctx *Context, n doctree.Node) string {
		img := n.(*doctree.Image)
		inc := "\\includegraphics{" + ctx.CopyAsset(img.URL) + "}"
		if img.Caption == nil {
			return inc
		}
		return "\\begin{figure}[h]\n\\centering\n" + inc + "\n\\caption{" + l.Render(ctx, img.Caption) + "}\n\\end{figure}"
	})
	l.Register(doctree.KindDirectivePlaceholder, func(_ *Context, n doctree.Node) string {
		return "% " + n.(*doctree.DirectivePlaceholder).Name + ": " + strings.ReplaceAll(n.(*doctree.DirectivePlaceholder).Reason, "\n", " ")
	})
	for _, k := range []doctree.Kind{doctree.KindMeta, doctree.KindStylesheet, doctree.KindDocumentTitle} {
		l.Register(k, func(*Context, doctree.Node) string { return "" })
	}
}

func escapeURL(url string) string {
	return strings.NewReplacer(`#`, `\#`, `%`, `\%`).Replace(url)
}

func latexTocList(items []TocItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\\begin{itemize}\n")
	for _, it := range items {
		fmt.Fprintf(&b, "\\item \\href{%s}{%s}\n", escapeURL(it.URL), escapeLaTeX(it.Title))
		if sub := latexTocList(it.Children); sub != "" {
			b.WriteString(sub + "\n")
		}
	}
	b.WriteString("\\end{itemize}")
	return b.String()
}

func (l *LaTeX) table(ctx *Context, n doctree.Node) string {
	t := n.(*doctree.Table)
	cols := 0
	for _, row := range t.Rows {
		w := 0
		for _, c := range row.Columns {
			w += c.ColSpan
		}
		cols = max(cols, w)
	}
	var b strings.Builder
	b.WriteString("\\begin{tabular}{|" + strings.Repeat("l|", cols) + "}\n\\hline\n")

	// grid column -> rows below still covered by a multirow cell
	covered := make(map[int]int)
	for _, row := range t.Rows {
		var cells []string
		pos := 0
		skipCovered := func() {
			for covered[pos] > 0 {
				covered[pos]--
				cells = append(cells, "")
				pos++
			}
		}
		for _, col := range row.Columns {
			skipCovered()
			var cell string
			switch {
			case col.IntentionallyEmpty():
			case col.Node != nil:
				cell = l.Render(ctx, col.Node)
			case col.Content == "":
				cell = "~"
			default:
				cell = escapeLaTeX(col.Content)
			}
			if row.Header {
				cell = "\\textbf{" + cell + "}"
			}
			if span := col.RenderedRowSpan(); span > 1 {
				cell = fmt.Sprintf("\\multirow{%d}{*}{%s}", span, cell)
				for k := range col.ColSpan {
					covered[pos+k] = span - 1
				}
			}
			if col.ColSpan > 1 {
				cell = fmt.Sprintf("\\multicolumn{%d}{|l|}{%s}", col.ColSpan, cell)
			}
			cells = append(cells, cell)
			pos += col.ColSpan
		}
		skipCovered()
		b.WriteString(strings.Join(cells, " & ") + " \\\\\n" + latexRule(covered, cols) + "\n")
	}
	b.WriteString("\\end{tabular}")
	return b.String()
}

// latexRule draws the line under a row, leaving gaps where a multirow
// cell continues into the next row.
func latexRule(covered map[int]int, cols int) string {
	var ranges []string
	start := -1
	for c := 0; c <= cols; c++ {
		open := c < cols && covered[c] == 0
		if open && start < 0 {
			start = c
		}
		if !open && start >= 0 {
			ranges = append(ranges, fmt.Sprintf("\\cline{%d-%d}", start+1, c))
			start = -1
		}
	}
	if len(ranges) == 1 && ranges[0] == fmt.Sprintf("\\cline{1-%d}", cols) {
		return "\\hline"
	}
	return strings.Join(ranges, "")
}
