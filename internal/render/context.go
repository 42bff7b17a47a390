package render

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/meta"
	"github.com/dgallion1/guides/internal/reference"
)

// Context is everything rendering one document needs. It is scoped to a
// single document and must not be shared between goroutines.
type Context struct {
	Doc    *doctree.Document
	Entry  *meta.Entry
	Metas  *meta.Metas
	Refs   *reference.Resolver
	Source *fsys.FileSystem // where assets are read from
	Dest   *fsys.FileSystem // where output and copied assets go
	Log    *slog.Logger

	ext     string
	invalid int
	copied  map[string]bool
}

// NewContext builds the context for doc. A document that is not in metas
// gets a standalone entry, so it renders without cross-document links.
func NewContext(doc *doctree.Document, metas *meta.Metas, refs *reference.Resolver,
	source, dest *fsys.FileSystem, log *slog.Logger) *Context {
	entry, ok := metas.Get(doc.Path)
	if !ok {
		entry = meta.NewEntry(doc, "", time.Time{})
	}
	return &Context{
		Doc:    doc,
		Entry:  entry,
		Metas:  metas,
		Refs:   refs,
		Source: source,
		Dest:   dest,
		Log:    log.With("file", doc.Path),
		ext:    "html",
	}
}

// InvalidReferences is the number of references that did not resolve.
func (c *Context) InvalidReferences() int { return c.invalid }

// OutputPath is where a document's output goes for a format extension.
func OutputPath(file, ext string) string {
	return file + "." + ext
}

// ResolveReference resolves ref from the current document.
func (c *Context) ResolveReference(ref *doctree.Reference) reference.ResolvedReference {
	res := c.Refs.Resolve(reference.Context{File: c.Doc.Path, Links: c.Doc.Links}, ref)
	if res.Invalid {
		c.invalid++
	}
	return res
}

// LinkURL returns the URL of a named link declared in the document.
func (c *Context) LinkURL(name string) (string, bool) {
	if url, ok := c.Doc.Links[name]; ok {
		return url, true
	}
	for k, url := range c.Doc.Links {
		if strings.EqualFold(k, name) {
			return url, true
		}
	}
	return "", false
}

func isExternal(url string) bool {
	return strings.Contains(url, "://") || strings.HasPrefix(url, "mailto:") || strings.HasPrefix(url, "#")
}

// RelativeDocURL rewrites a URL relative to the output root, such as
// "guide/install.html#req", into one relative to the current document's
// output file. ".html" is swapped for the active format's extension.
// External URLs and fragments are returned unchanged.
func (c *Context) RelativeDocURL(url string) string {
	if url == "" || isExternal(url) {
		return url
	}
	target, frag, hasFrag := strings.Cut(url, "#")
	if c.ext != "html" {
		if t, ok := strings.CutSuffix(target, ".html"); ok {
			target = t + "." + c.ext
		}
	}
	rel := relativePath(doctree.Dir(c.Doc.Path), strings.TrimPrefix(target, "/"))
	if target == OutputPath(c.Doc.Path, c.ext) && hasFrag {
		rel = ""
	}
	if hasFrag {
		return rel + "#" + frag
	}
	return rel
}

// relativePath returns the path of to as seen from directory from. Both
// are relative to the same root.
func relativePath(from, to string) string {
	var fromParts, toParts []string
	if from != "" {
		fromParts = strings.Split(from, "/")
	}
	toParts = strings.Split(to, "/")

	i := 0
	for i < len(fromParts) && i < len(toParts)-1 && fromParts[i] == toParts[i] {
		i++
	}
	parts := make([]string, 0, len(fromParts)-i+len(toParts)-i)
	for range fromParts[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[i:]...)
	return strings.Join(parts, "/")
}

// CopyAsset copies an asset referenced from the current document from the
// source to the destination file system, keeping its relative location.
// Failures are logged and the reference is still returned, so a missing
// image never stops the render.
func (c *Context) CopyAsset(src string) string {
	if src == "" || isExternal(src) || strings.HasPrefix(src, "data:") {
		return src
	}
	p := c.AssetPath(src)
	if c.copied[p] || c.Source == nil || c.Dest == nil {
		return c.assetURL(p)
	}
	data, err := c.Source.Read(p)
	if err != nil {
		c.Log.Error("asset not readable", "asset", p, "error", err)
		return c.assetURL(p)
	}
	if err := c.Dest.Write(p, data); err != nil {
		c.Log.Error("asset not written", "asset", p, "error", err)
		return c.assetURL(p)
	}
	if c.copied == nil {
		c.copied = make(map[string]bool)
	}
	c.copied[p] = true
	return c.assetURL(p)
}

// AssetPath is the source path of an asset referenced from the current
// document. A leading "/" is relative to the source root.
func (c *Context) AssetPath(src string) string {
	if strings.HasPrefix(src, "/") {
		return strings.TrimPrefix(path.Clean(src), "/")
	}
	return strings.TrimPrefix(path.Join("/", doctree.Dir(c.Doc.Path), src), "/")
}

func (c *Context) assetURL(p string) string {
	return relativePath(doctree.Dir(c.Doc.Path), p)
}

// TocItem is one rendered toctree entry.
type TocItem struct {
	Title    string
	URL      string // relative to the current document
	Children []TocItem
}

// TocItems lists the documents of toc with their section titles down to
// the toctree's maxdepth. Entries missing from the index are skipped.
func (c *Context) TocItems(toc *doctree.Toc) []TocItem {
	var items []TocItem
	for _, file := range c.Entry.Toc(toc.Index) {
		e, ok := c.Metas.Get(file)
		if !ok {
			c.Log.Warn("toctree entry has no document", "entry", file)
			continue
		}
		title := e.Title
		if title == "" {
			title = e.File
		}
		item := TocItem{Title: title, URL: c.RelativeDocURL(e.URL)}
		if !toc.TitlesOnly && toc.MaxDepth != 1 {
			// the first title is the document title itself
			var sub []*meta.TitleNode
			for _, t := range e.Titles {
				sub = append(sub, t.Children...)
			}
			item.Children = c.titleItems(e.URL, sub, 2, toc.MaxDepth)
		}
		items = append(items, item)
	}
	return items
}

// PageToc is the title tree of the current document.
func (c *Context) PageToc() []TocItem {
	return c.titleItems(c.Entry.URL, c.Entry.Titles, 1, 0)
}

func (c *Context) titleItems(url string, titles []*meta.TitleNode, depth, maxDepth int) []TocItem {
	if maxDepth > 0 && depth > maxDepth {
		return nil
	}
	var items []TocItem
	for _, t := range titles {
		items = append(items, TocItem{
			Title:    t.Title,
			URL:      c.RelativeDocURL(url + "#" + t.ID),
			Children: c.titleItems(url, t.Children, depth+1, maxDepth),
		})
	}
	return items
}
