package reference

import (
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/meta"
	"github.com/dgallion1/guides/internal/slug"
)

// docRole links to a document by path, optionally to one of its sections.
type docRole struct {
	metas *meta.Metas
}

func (r docRole) Resolve(ctx Context, ref *doctree.Reference) ResolvedReference {
	file := doctree.ResolvePath(ctx.File, ref.Target)
	e, ok := r.metas.Get(file)
	if !ok {
		return invalid(ref)
	}
	res := ResolvedReference{File: e.File, Title: e.Title, URL: e.URL}
	if ref.Anchor != "" {
		id := slug.Make(ref.Anchor)
		if t := e.FindTitle(ref.Anchor); t != nil {
			id = t.ID
			res.Title = t.Title
		}
		res.URL += "#" + id
	}
	if ref.Text != "" {
		res.Title = ref.Text
	}
	return res
}

// refRole resolves a label: declared links in the current document first,
// then declared links anywhere, then section and document titles.
type refRole struct {
	metas *meta.Metas
}

func (r refRole) Resolve(ctx Context, ref *doctree.Reference) ResolvedReference {
	target := ref.Target

	if url, ok := ctx.Links[target]; ok {
		if e, found := r.metas.Get(ctx.File); found {
			return withText(linkTarget(e, url, target), ref)
		}
		return withText(linkTarget(&meta.Entry{File: ctx.File, URL: ctx.File + ".html"}, url, target), ref)
	}
	if e, url, ok := r.metas.FindLink(target); ok {
		return withText(linkTarget(e, url, target), ref)
	}
	if e, t, ok := r.metas.FindByTitle(target); ok {
		res := ResolvedReference{File: e.File, Title: e.Title, URL: e.URL}
		if t != nil {
			res.Title = t.Title
			res.URL += "#" + t.ID
		}
		return withText(res, ref)
	}
	return invalid(ref)
}

// linkTarget turns a declared link into a reference. Anchors ("#id")
// point into the declaring document.
func linkTarget(e *meta.Entry, url, name string) ResolvedReference {
	anchor, isAnchor := strings.CutPrefix(url, "#")
	if !isAnchor {
		return ResolvedReference{Title: name, URL: url}
	}
	res := ResolvedReference{File: e.File, Title: e.Title, URL: e.URL + url}
	if t := e.FindTitle(anchor); t != nil {
		res.Title = t.Title
	}
	if res.Title == "" {
		res.Title = name
	}
	return res
}

func withText(res ResolvedReference, ref *doctree.Reference) ResolvedReference {
	if ref.Text != "" {
		res.Title = ref.Text
	}
	return res
}
