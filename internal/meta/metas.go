package meta

import (
	"sort"
	"sync"

	"github.com/dgallion1/guides/internal/slug"
)

// Metas is the index of every Entry in a build, keyed by logical file
// path. It is safe for concurrent use.
type Metas struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	// pending holds parents for children whose entry does not exist yet.
	pending map[string]string
}

func New() *Metas {
	return &Metas{
		entries: make(map[string]*Entry),
		pending: make(map[string]string),
	}
}

// Set registers or replaces an entry. A parent recorded for the file
// before it existed is applied now.
func (m *Metas) Set(e *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if parent, ok := m.pending[e.File]; ok {
		e.Parent = parent
		delete(m.pending, e.File)
	}
	m.entries[e.File] = e
}

func (m *Metas) Get(file string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[file]
	return e, ok
}

func (m *Metas) Delete(file string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, file)
}

func (m *Metas) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// All returns every entry sorted by file.
func (m *Metas) All() []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked()
}

func (m *Metas) sortedLocked() []*Entry {
	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Pending returns the parent recorded for a file that has no entry yet.
func (m *Metas) Pending(file string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pending[file]
	return p, ok
}

// LinkParents recomputes every parent pointer from the resolved toctrees.
// When several documents list the same child the first one in file order
// wins. Children without an entry are remembered and linked by Set.
func (m *Metas) LinkParents() {
	m.mu.Lock()
	defer m.mu.Unlock()

	parents := make(map[string]string)
	for _, e := range m.sortedLocked() {
		for _, toc := range e.Tocs {
			for _, child := range toc {
				if child == e.File {
					continue
				}
				if _, taken := parents[child]; !taken {
					parents[child] = e.File
				}
			}
		}
	}

	m.pending = make(map[string]string)
	for _, e := range m.entries {
		e.Parent = parents[e.File]
	}
	for child, parent := range parents {
		if _, ok := m.entries[child]; !ok {
			m.pending[child] = parent
		}
	}
}

// Parents returns the chain of ancestors of file, nearest first. Cycles
// stop at the first repeated file.
func (m *Metas) Parents(file string) []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var chain []*Entry
	seen := map[string]bool{file: true}
	e := m.entries[file]
	for e != nil && e.Parent != "" && !seen[e.Parent] {
		seen[e.Parent] = true
		parent, ok := m.entries[e.Parent]
		if !ok {
			break
		}
		chain = append(chain, parent)
		e = parent
	}
	return chain
}

// FindLink looks up a declared link name across all entries in file order.
func (m *Metas) FindLink(name string) (*Entry, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.sortedLocked() {
		if url, ok := e.Links[name]; ok {
			return e, url, true
		}
	}
	return nil, "", false
}

// FindByTitle finds the first entry, in file order, whose document title
// or one of whose section titles matches title after slugification. The
// returned TitleNode is nil when the document title matched.
func (m *Metas) FindByTitle(title string) (*Entry, *TitleNode, bool) {
	if slug.Make(title) == "" {
		return nil, nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.sortedLocked()
	for _, e := range entries {
		if slug.Equal(e.Title, title) {
			return e, nil, true
		}
	}
	for _, e := range entries {
		if t := e.FindTitle(title); t != nil {
			return e, t, true
		}
	}
	return nil, nil, false
}

// Replace swaps in a whole set of entries, e.g. after loading the cache.
func (m *Metas) Replace(entries []*Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry, len(entries))
	for _, e := range entries {
		m.entries[e.File] = e
	}
	m.pending = make(map[string]string)
}
