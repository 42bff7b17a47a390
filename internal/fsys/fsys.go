// Package fsys is the file-system collaborator used for sources, build
// output and the metadata cache. Paths are slash separated and relative to
// the root of the tree.
package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

type FileSystem struct {
	fs afero.Fs
}

func New(fs afero.Fs) *FileSystem {
	return &FileSystem{fs: fs}
}

// NewOS roots a FileSystem at a directory on disk.
func NewOS(root string) *FileSystem {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root))
}

func NewMemory() *FileSystem {
	return New(afero.NewMemMapFs())
}

func abs(p string) string {
	return path.Join("/", filepath.ToSlash(p))
}

func (f *FileSystem) Read(p string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, abs(p))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// Write creates parent directories as needed and replaces any existing file.
func (f *FileSystem) Write(p string, data []byte) error {
	name := abs(p)
	if err := f.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path.Dir(p), err)
	}
	if err := afero.WriteFile(f.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func (f *FileSystem) Has(p string) bool {
	ok, err := afero.Exists(f.fs, abs(p))
	return err == nil && ok
}

func (f *FileSystem) ModTime(p string) (time.Time, error) {
	info, err := f.fs.Stat(abs(p))
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", p, err)
	}
	return info.ModTime(), nil
}

func (f *FileSystem) Remove(p string) error {
	if err := f.fs.Remove(abs(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

// FindSpec selects files for Find.
type FindSpec struct {
	Dir        string   // start directory, "" for the root
	Extensions []string // keep only these extensions; empty keeps all
	Exclude    []string // directories to skip, relative to the root
}

// Find walks Dir recursively and returns matching file paths in sorted
// order. A missing start directory yields no files.
func (f *FileSystem) Find(spec FindSpec) ([]string, error) {
	root := abs(spec.Dir)
	if ok, _ := afero.DirExists(f.fs, root); !ok {
		return nil, nil
	}

	excluded := make(map[string]bool, len(spec.Exclude))
	for _, e := range spec.Exclude {
		excluded[abs(e)] = true
	}

	var out []string
	err := afero.Walk(f.fs, root, func(name string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name = filepath.ToSlash(name)
		if info.IsDir() {
			if excluded[name] || (name != root && strings.HasPrefix(info.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesExtension(name, spec.Extensions) {
			return nil
		}
		out = append(out, strings.TrimPrefix(name, "/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", spec.Dir, err)
	}
	sort.Strings(out)
	return out, nil
}

func matchesExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
