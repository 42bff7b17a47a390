// Package meta holds the cross-document index built between parsing and
// rendering: one Entry per document with its titles, toctrees, links and
// dependencies.
package meta

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/slug"
)

// ErrUnknownDependency is returned when resolving a dependency the entry
// never declared.
var ErrUnknownDependency = errors.New("unknown dependency")

// TitleNode is one section title with the titles nested below it.
type TitleNode struct {
	Title    string       `json:"title"`
	ID       string       `json:"id"`
	Level    int          `json:"level"`
	Children []*TitleNode `json:"children,omitempty"`
}

// Entry is the metadata of one document.
type Entry struct {
	File    string            `json:"file"`              // logical path, no extension
	Source  string            `json:"source"`            // source file name including extension
	URL     string            `json:"url"`
	Title   string            `json:"title"`
	Titles  []*TitleNode      `json:"titles,omitempty"`
	Tocs    [][]string        `json:"tocs,omitempty"`    // resolved files per toctree, in document order
	ModTime time.Time         `json:"mtime"`
	Depends []string          `json:"depends,omitempty"`
	Links   map[string]string `json:"links,omitempty"`
	Parent  string            `json:"parent,omitempty"`

	// ResolvedDependencies records originals already rewritten by
	// ResolveDependency.
	ResolvedDependencies map[string]bool `json:"resolved,omitempty"`
}

// NewEntry builds the entry for a freshly parsed document. Toctrees are
// sized but left empty until the toctree resolver runs.
func NewEntry(doc *doctree.Document, source string, modTime time.Time) *Entry {
	return &Entry{
		File:    doc.Path,
		Source:  source,
		URL:     doc.Path + ".html",
		Title:   doc.Title(),
		Titles:  titleTree(doc.Nodes),
		Tocs:    make([][]string, len(doc.Tocs())),
		ModTime: modTime,
		Depends: slices.Clone(doc.Dependencies),
		Links:   maps.Clone(doc.Links),
	}
}

func titleTree(nodes []doctree.Node) []*TitleNode {
	var out []*TitleNode
	for _, n := range nodes {
		sec, ok := n.(*doctree.Section)
		if !ok {
			continue
		}
		out = append(out, &TitleNode{
			Title:    doctree.PlainText(sec.Title),
			ID:       sec.Title.ID,
			Level:    sec.Title.Level,
			Children: titleTree(sec.Nodes),
		})
	}
	return out
}

// ResolveDependency replaces the placeholder orig with resolved. An empty
// resolved value and an orig that was already resolved are no-ops.
func (e *Entry) ResolveDependency(orig, resolved string) error {
	if resolved == "" || e.ResolvedDependencies[orig] {
		return nil
	}
	i := slices.Index(e.Depends, orig)
	if i < 0 {
		return fmt.Errorf("%w %q in %s", ErrUnknownDependency, orig, e.File)
	}
	if slices.Contains(e.Depends, resolved) {
		e.Depends = slices.Delete(e.Depends, i, i+1)
	} else {
		e.Depends[i] = resolved
	}
	if e.ResolvedDependencies == nil {
		e.ResolvedDependencies = make(map[string]bool)
	}
	e.ResolvedDependencies[orig] = true
	return nil
}

// AddDependency records dep once.
func (e *Entry) AddDependency(dep string) {
	if !slices.Contains(e.Depends, dep) {
		e.Depends = append(e.Depends, dep)
	}
}

// RemoveDependency drops dep if present.
func (e *Entry) RemoveDependency(dep string) {
	if i := slices.Index(e.Depends, dep); i >= 0 {
		e.Depends = slices.Delete(e.Depends, i, i+1)
	}
}

// FindTitle returns the title whose text or id slugifies to the same value
// as s, searching depth-first.
func (e *Entry) FindTitle(s string) *TitleNode {
	want := slug.Make(s)
	if want == "" {
		return nil
	}
	var find func([]*TitleNode) *TitleNode
	find = func(nodes []*TitleNode) *TitleNode {
		for _, t := range nodes {
			if t.ID == want || slug.Make(t.Title) == want {
				return t
			}
			if found := find(t.Children); found != nil {
				return found
			}
		}
		return nil
	}
	return find(e.Titles)
}

// HasTitle reports whether the entry's title or any section title matches
// s after slugification.
func (e *Entry) HasTitle(s string) bool {
	return slug.Equal(e.Title, s) || e.FindTitle(s) != nil
}

// Toc returns the resolved files of the toctree at index i.
func (e *Entry) Toc(i int) []string {
	if i < 0 || i >= len(e.Tocs) {
		return nil
	}
	return e.Tocs[i]
}
