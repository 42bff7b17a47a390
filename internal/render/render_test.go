package render

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/guides/internal/directives"
	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/meta"
	"github.com/dgallion1/guides/internal/reference"
	"github.com/dgallion1/guides/internal/rst"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// build parses sources into a metas index, like a full build does before
// rendering.
func build(t *testing.T, sources map[string]string) (*meta.Metas, map[string]*doctree.Document) {
	t.Helper()
	p := rst.New(directives.NewRegistry(), rst.DefaultConfig(), nil, discardLogger())
	metas := meta.New()
	docs := make(map[string]*doctree.Document)
	for file, src := range sources {
		doc, err := p.Parse(file, []byte(src))
		if err != nil {
			t.Fatalf("parse %s: %v", file, err)
		}
		docs[file] = doc
		metas.Set(meta.NewEntry(doc, file+".rst", time.Now()))
	}
	return metas, docs
}

func newContext(doc *doctree.Document, metas *meta.Metas) *Context {
	refs := reference.New(metas, "api", discardLogger())
	return NewContext(doc, metas, refs, fsys.NewMemory(), fsys.NewMemory(), discardLogger())
}

type customNode struct{ nodes []doctree.Node }

func (c *customNode) Kind() doctree.Kind       { return "custom" }
func (c *customNode) Children() []doctree.Node { return c.nodes }

func TestNodeRenderer_DefaultFallback(t *testing.T) {
	r := NewNodeRenderer("")
	r.Register(doctree.KindText, func(_ *Context, n doctree.Node) string {
		return n.(*doctree.Text).Value
	})

	n := &customNode{nodes: []doctree.Node{&doctree.Text{Value: "inner"}}}
	if got := r.Render(nil, n); got != "inner" {
		t.Errorf("expected inner, got %q", got)
	}
	if got := r.Render(nil, &customNode{}); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	if r.Has("custom") {
		t.Error("expected no renderer for custom kind")
	}

	r.Register("custom", func(*Context, doctree.Node) string { return "override" })
	if got := r.Render(nil, n); got != "override" {
		t.Errorf("expected override, got %q", got)
	}
}

func TestFormats(t *testing.T) {
	formats := DefaultFormats()
	if got := strings.Join(formats.Names(), ","); got != "docx,html,latex" {
		t.Errorf("expected docx,html,latex, got %s", got)
	}
	f, err := formats.Get("HTML")
	if err != nil || f.Extension() != "html" {
		t.Fatalf("expected html format, got %v %v", f, err)
	}
	if _, err := formats.Get("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRelativeDocURL(t *testing.T) {
	ctx := newContext(&doctree.Document{Path: "guide/index"}, meta.New())

	tests := []struct{ in, want string }{
		{"install.html", "../install.html"},
		{"guide/setup.html#req", "setup.html#req"},
		{"guide/index.html#top", "#top"},
		{"guide/deep/page.html", "deep/page.html"},
		{"https://go.dev", "https://go.dev"},
		{"#local", "#local"},
	}
	for _, tt := range tests {
		if got := ctx.RelativeDocURL(tt.in); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, got)
		}
	}

	ctx.ext = "tex"
	if got := ctx.RelativeDocURL("guide/setup.html"); got != "setup.tex" {
		t.Errorf("expected setup.tex, got %s", got)
	}
}

func TestCopyAsset(t *testing.T) {
	var logs bytes.Buffer
	source, dest := fsys.NewMemory(), fsys.NewMemory()
	if err := source.Write("guide/img/logo.png", []byte("png")); err != nil {
		t.Fatal(err)
	}
	doc := &doctree.Document{Path: "guide/index"}
	ctx := NewContext(doc, meta.New(), reference.New(meta.New(), "api", discardLogger()),
		source, dest, slog.New(slog.NewJSONHandler(&logs, nil)))

	if got := ctx.CopyAsset("img/logo.png"); got != "img/logo.png" {
		t.Errorf("expected img/logo.png, got %s", got)
	}
	if !dest.Has("guide/img/logo.png") {
		t.Error("expected asset copied to destination")
	}
	if got := ctx.CopyAsset("/guide/img/logo.png"); got != "img/logo.png" {
		t.Errorf("expected img/logo.png, got %s", got)
	}

	if got := ctx.CopyAsset("missing.png"); got != "missing.png" {
		t.Errorf("expected missing.png, got %s", got)
	}
	if !strings.Contains(logs.String(), "asset not readable") {
		t.Errorf("expected missing asset to be logged, got %s", logs.String())
	}
	if got := ctx.CopyAsset("https://example.com/a.png"); got != "https://example.com/a.png" {
		t.Errorf("expected external URL unchanged, got %s", got)
	}
}

func TestTocItems(t *testing.T) {
	metas := meta.New()
	metas.Set(&meta.Entry{File: "index", URL: "index.html", Title: "Home", Tocs: [][]string{{"a", "b", "gone"}}})
	metas.Set(&meta.Entry{File: "a", URL: "a.html", Title: "Alpha", Titles: []*meta.TitleNode{
		{Title: "Alpha", ID: "alpha", Level: 1, Children: []*meta.TitleNode{
			{Title: "Usage", ID: "usage", Level: 2, Children: []*meta.TitleNode{
				{Title: "Flags", ID: "flags", Level: 3},
			}},
		}},
	}})
	metas.Set(&meta.Entry{File: "b", URL: "b.html"})
	ctx := newContext(&doctree.Document{Path: "index"}, metas)

	items := ctx.TocItems(&doctree.Toc{Index: 0})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Alpha" || items[0].URL != "a.html" || len(items[0].Children) != 1 {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[0].Children[0].URL != "a.html#usage" || len(items[0].Children[0].Children) != 1 {
		t.Errorf("unexpected nested item %+v", items[0].Children[0])
	}
	if items[1].Title != "b" {
		t.Errorf("expected file name as fallback title, got %q", items[1].Title)
	}

	items = ctx.TocItems(&doctree.Toc{Index: 0, MaxDepth: 2})
	if len(items[0].Children) != 1 || len(items[0].Children[0].Children) != 0 {
		t.Errorf("expected maxdepth 2 to stop below Usage, got %+v", items[0])
	}
	items = ctx.TocItems(&doctree.Toc{Index: 0, TitlesOnly: true})
	if len(items[0].Children) != 0 {
		t.Errorf("expected titlesonly to drop sections, got %+v", items[0])
	}
}
