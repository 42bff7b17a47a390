package pipeline

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/meta"
)

// SourceFile is one collected source document.
type SourceFile struct {
	File    string // logical path without extension
	Source  string // path including extension
	ModTime time.Time
}

// FileCollector lists the source tree.
type FileCollector struct {
	fs      *fsys.FileSystem
	exclude []string
	log     *slog.Logger
}

func NewFileCollector(fs *fsys.FileSystem, exclude []string, log *slog.Logger) *FileCollector {
	return &FileCollector{fs: fs, exclude: exclude, log: log}
}

// Collect returns every source file keyed by logical path. When two files
// share a logical path (guide.rst and guide.md) the first in sorted order
// wins.
func (c *FileCollector) Collect() (map[string]SourceFile, error) {
	names, err := c.fs.Find(fsys.FindSpec{Extensions: doctree.SourceExtensions, Exclude: c.exclude})
	if err != nil {
		return nil, fmt.Errorf("collect sources: %w", err)
	}

	files := make(map[string]SourceFile, len(names))
	for _, name := range names {
		file := doctree.StripExtension(name)
		if prev, ok := files[file]; ok {
			c.log.Warn("duplicate source for document", "file", file, "kept", prev.Source, "ignored", name)
			continue
		}
		mtime, err := c.fs.ModTime(name)
		if err != nil {
			return nil, err
		}
		files[file] = SourceFile{File: file, Source: name, ModTime: mtime}
	}
	return files, nil
}

// StaleFiles decides which collected files must be parsed again. hasOutputs
// reports whether every output of a file already exists. With force every
// file is stale.
func StaleFiles(files map[string]SourceFile, metas *meta.Metas, force bool, hasOutputs func(file string) bool) []string {
	stale := make(map[string]bool)
	for file, sf := range files {
		e, ok := metas.Get(file)
		if force || !ok || sf.ModTime.After(e.ModTime) || !hasOutputs(file) {
			stale[file] = true
		}
	}

	// one hop over direct dependencies, judged on the first pass only
	changed := make(map[string]bool, len(stale))
	for file := range stale {
		changed[file] = true
	}
	for file := range files {
		if stale[file] {
			continue
		}
		e, _ := metas.Get(file)
		for _, dep := range e.Depends {
			if _, _, ok := doctree.ParseUnresolvedDependency(dep); ok {
				continue
			}
			if _, ok := files[dep]; !ok || changed[dep] {
				stale[file] = true
				break
			}
		}
	}

	for grew := true; grew; {
		grew = false
		for file := range files {
			if stale[file] {
				continue
			}
			if e, ok := metas.Get(file); ok && e.Parent != "" && stale[e.Parent] {
				stale[file] = true
				grew = true
			}
		}
	}

	out := make([]string, 0, len(stale))
	for file := range stale {
		out = append(out, file)
	}
	sort.Strings(out)
	return out
}
