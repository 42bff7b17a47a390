package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/guides/internal/chunker"
	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/meta"
	"github.com/dgallion1/guides/internal/reference"
	"github.com/dgallion1/guides/internal/render"
	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SearchIndexFile is written at the root of the output tree.
const SearchIndexFile = "searchindex.json"

// outputs writes everything phase 3 produces for one build.
type outputs struct {
	builder *Builder
	metas   *meta.Metas
	refs    *reference.Resolver
	order   []string // documents in toctree reading order
	opts    Options
}

// document renders doc in every format and writes the results. It returns
// the written paths and the number of invalid references.
func (o *outputs) document(doc *doctree.Document, formats []render.Format) ([]string, int, error) {
	b := o.builder
	log := b.log.With("file", doc.Path)

	var (
		written []string
		invalid = -1
		errs    *multierror.Error
		page    []byte
		pageCtx *render.Context
	)
	for _, f := range formats {
		ctx := render.NewContext(doc, o.metas, o.refs, b.source, b.dest, b.log)
		start := time.Now()
		data, err := render.Render(ctx, f)
		b.stats.Record(f.Name(), time.Since(start))
		if err != nil {
			log.Error("render failed", "format", f.Name(), "error", err)
			errs = multierror.Append(errs, err)
			continue
		}
		if invalid < 0 {
			invalid = ctx.InvalidReferences()
		}

		out := render.OutputPath(doc.Path, f.Extension())
		if err := b.dest.Write(out, data); err != nil {
			log.Error("output not written", "format", f.Name(), "error", err)
			errs = multierror.Append(errs, err)
			continue
		}
		log.Debug("output written", "format", f.Name(), "output", out)
		b.metrics.DocumentsRendered.WithLabelValues(f.Name()).Inc()
		written = append(written, out)
		if f.Name() == "html" {
			page, pageCtx = data, ctx
		}
	}
	invalid = max(invalid, 0)
	b.metrics.InvalidReferences.Add(float64(invalid))

	if o.opts.FJSON {
		out, err := o.fjson(doc, page, pageCtx)
		if err != nil {
			log.Error("fjson not written", "error", err)
			errs = multierror.Append(errs, err)
		} else {
			written = append(written, out)
		}
	}
	return written, invalid, errs.ErrorOrNil()
}

// FJSONLink is a titled link in an fjson page.
type FJSONLink struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// FJSONPage is the JSON rendition of a page for client side templating.
type FJSONPage struct {
	Title           string      `json:"title"`
	CurrentPageName string      `json:"current_page_name"`
	Parents         []FJSONLink `json:"parents"`
	Prev            *FJSONLink  `json:"prev"`
	Next            *FJSONLink  `json:"next"`
	Toc             string      `json:"toc"`
	Body            string      `json:"body"`
}

func (o *outputs) fjson(doc *doctree.Document, page []byte, ctx *render.Context) (string, error) {
	b := o.builder
	if page == nil {
		f, err := b.formats.Get("html")
		if err != nil {
			return "", err
		}
		ctx = render.NewContext(doc, o.metas, o.refs, b.source, b.dest, b.log)
		if page, err = render.Render(ctx, f); err != nil {
			return "", err
		}
	}
	body, err := pageBody(page)
	if err != nil {
		return "", fmt.Errorf("fjson %s: %w", doc.Path, err)
	}

	link := func(e *meta.Entry) FJSONLink {
		title := e.Title
		if title == "" {
			title = e.File
		}
		return FJSONLink{Title: title, Link: ctx.RelativeDocURL(e.URL)}
	}

	fp := FJSONPage{
		Title:           ctx.Entry.Title,
		CurrentPageName: doc.Path,
		Parents:         []FJSONLink{},
		Toc:             render.TocHTML(ctx.PageToc()),
		Body:            body,
	}
	parents := o.metas.Parents(doc.Path)
	slices.Reverse(parents)
	for _, p := range parents {
		fp.Parents = append(fp.Parents, link(p))
	}
	if i := slices.Index(o.order, doc.Path); i >= 0 {
		if i > 0 {
			if e, ok := o.metas.Get(o.order[i-1]); ok {
				l := link(e)
				fp.Prev = &l
			}
		}
		if i+1 < len(o.order) {
			if e, ok := o.metas.Get(o.order[i+1]); ok {
				l := link(e)
				fp.Next = &l
			}
		}
	}

	data, err := json.Marshal(fp)
	if err != nil {
		return "", fmt.Errorf("encode fjson %s: %w", doc.Path, err)
	}
	out := render.OutputPath(doc.Path, "fjson")
	if err := b.dest.Write(out, data); err != nil {
		return "", err
	}
	return out, nil
}

// pageBody returns the inner HTML of the body element of page.
func pageBody(page []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	body := find(root)
	if body == nil {
		return "", errors.New("page has no body")
	}
	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render body: %w", err)
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// SearchEntry is one chunk of the search index.
type SearchEntry struct {
	File       string   `json:"file"`
	URL        string   `json:"url"`
	Anchor     string   `json:"anchor,omitempty"`
	Title      string   `json:"title"`
	Breadcrumb []string `json:"breadcrumb"`
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Tokens     int      `json:"tokens"`
}

// SearchIndex is the content of searchindex.json.
type SearchIndex struct {
	Entries []SearchEntry `json:"entries"`
}

// searchIndex chunks the parsed documents and merges them with the entries
// of documents reused from the previous build.
func (o *outputs) searchIndex(docs map[string]*doctree.Document, files map[string]SourceFile) error {
	b := o.builder
	index := SearchIndex{Entries: []SearchEntry{}}

	if b.dest.Has(SearchIndexFile) {
		var prev SearchIndex
		data, err := b.dest.Read(SearchIndexFile)
		if err == nil {
			err = json.Unmarshal(data, &prev)
		}
		if err != nil {
			b.log.Warn("previous search index ignored", "error", err)
		}
		for _, e := range prev.Entries {
			if _, ok := files[e.File]; ok && docs[e.File] == nil {
				index.Entries = append(index.Entries, e)
			}
		}
	}

	for _, doc := range sortedDocs(docs) {
		e, ok := o.metas.Get(doc.Path)
		if !ok {
			continue
		}
		for _, c := range chunker.ChunkDocument(doc, b.chunkCfg) {
			url := e.URL
			if c.Anchor != "" {
				url += "#" + c.Anchor
			}
			index.Entries = append(index.Entries, SearchEntry{
				File:       c.File,
				URL:        url,
				Anchor:     c.Anchor,
				Title:      e.Title,
				Breadcrumb: c.Breadcrumb,
				Text:       c.Text,
				Index:      c.Index,
				Tokens:     c.Tokens,
			})
		}
	}
	sort.SliceStable(index.Entries, func(i, j int) bool {
		a, c := index.Entries[i], index.Entries[j]
		if a.File != c.File {
			return a.File < c.File
		}
		return a.Index < c.Index
	})

	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode search index: %w", err)
	}
	if err := b.dest.Write(SearchIndexFile, data); err != nil {
		b.log.Error("search index not written", "error", err)
		return err
	}
	return nil
}

func sortedDocs(docs map[string]*doctree.Document) []*doctree.Document {
	out := make([]*doctree.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// tocOrder lists documents in reading order: depth first through the
// toctrees, starting at "index" and then at every other root in file order.
func tocOrder(metas *meta.Metas) []string {
	entries := metas.All()
	var roots []*meta.Entry
	for _, e := range entries {
		if e.Parent == "" {
			roots = append(roots, e)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].File == "index" && roots[j].File != "index"
	})

	var order []string
	seen := make(map[string]bool)
	var visit func(e *meta.Entry)
	visit = func(e *meta.Entry) {
		if seen[e.File] {
			return
		}
		seen[e.File] = true
		order = append(order, e.File)
		for _, toc := range e.Tocs {
			for _, child := range toc {
				if ce, ok := metas.Get(child); ok {
					visit(ce)
				}
			}
		}
	}
	for _, r := range roots {
		visit(r)
	}
	// documents only reachable through a cycle
	for _, e := range entries {
		visit(e)
	}
	return order
}
