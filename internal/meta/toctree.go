package meta

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/fsys"
)

// TocResolver turns toctree entries into document paths. Glob entries are
// matched against the source tree below the referencing document.
type TocResolver struct {
	fs  *fsys.FileSystem
	log *slog.Logger
}

func NewTocResolver(fs *fsys.FileSystem, log *slog.Logger) *TocResolver {
	return &TocResolver{fs: fs, log: log}
}

// Resolve records the files of every toctree of the entry's document and
// adds them as dependencies.
func (r *TocResolver) Resolve(e *Entry, tocs []*doctree.Toc) {
	log := r.log.With("file", e.File)
	for _, toc := range tocs {
		files := r.resolveToc(e.File, toc, log)
		for len(e.Tocs) <= toc.Index {
			e.Tocs = append(e.Tocs, nil)
		}
		e.Tocs[toc.Index] = files
		for _, f := range files {
			e.AddDependency(f)
		}
	}
}

func (r *TocResolver) resolveToc(file string, toc *doctree.Toc, log *slog.Logger) []string {
	isGlob := func(entry string) bool { return toc.Glob && strings.Contains(entry, "*") }

	explicit := make(map[string]bool)
	for _, entry := range toc.Entries {
		if !isGlob(entry) {
			explicit[doctree.ResolvePath(file, entry)] = true
		}
	}

	var files []string
	seen := make(map[string]bool)
	for _, entry := range toc.Entries {
		if !isGlob(entry) {
			p := doctree.ResolvePath(file, entry)
			if seen[p] {
				continue
			}
			if !r.exists(p) {
				log.Warn("toctree entry not found", "entry", entry)
			}
			seen[p] = true
			files = append(files, p)
			continue
		}

		matches, err := r.glob(file, entry)
		if err != nil {
			log.Error("toctree glob failed", "pattern", entry, "error", err)
			continue
		}
		for _, m := range matches {
			if m == file || explicit[m] || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files
}

func (r *TocResolver) exists(p string) bool {
	for _, ext := range doctree.SourceExtensions {
		if r.fs.Has(p + ext) {
			return true
		}
	}
	return false
}

// glob lists documents below the directory of file matching pattern.
// "*" also matches "/", so a pattern descends into subdirectories.
func (r *TocResolver) glob(file, pattern string) ([]string, error) {
	resolved := doctree.ResolvePath(file, pattern)
	re, err := globRegexp(resolved)
	if err != nil {
		return nil, err
	}
	found, err := r.fs.Find(fsys.FindSpec{Dir: doctree.Dir(file), Extensions: doctree.SourceExtensions})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range found {
		doc := doctree.StripExtension(f)
		if re.MatchString(doc) && !slices.Contains(out, doc) {
			out = append(out, doc)
		}
	}
	slices.Sort(out)
	return out, nil
}

func globRegexp(pattern string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(pattern)
	return regexp.Compile("^" + strings.ReplaceAll(quoted, `\*`, ".*") + "$")
}
