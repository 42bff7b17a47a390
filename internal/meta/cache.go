package meta

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/guides/internal/fsys"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoCache is returned by a Store that holds no index yet.
var ErrNoCache = errors.New("no cached index")

// cacheVersion is bumped whenever Entry changes shape. A cache written
// by another version is treated as missing.
const cacheVersion = 1

// Store persists the whole index between builds.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type cacheFile struct {
	Version int      `json:"version"`
	Entries []*Entry `json:"entries"`
}

// Encode serializes every entry in file order.
func (m *Metas) Encode() ([]byte, error) {
	data, err := json.Marshal(cacheFile{Version: cacheVersion, Entries: m.All()})
	if err != nil {
		return nil, fmt.Errorf("encode metas: %w", err)
	}
	return data, nil
}

// Decode replaces the index with the entries in data. On any error the
// index is left untouched.
func (m *Metas) Decode(data []byte) error {
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("decode metas: %w", err)
	}
	if cf.Version != cacheVersion {
		return fmt.Errorf("decode metas: version %d: %w", cf.Version, ErrNoCache)
	}
	for i, e := range cf.Entries {
		if e == nil || e.File == "" {
			return fmt.Errorf("decode metas: entry %d has no file", i)
		}
	}
	m.Replace(cf.Entries)
	return nil
}

// LoadFrom reads the index from store.
func (m *Metas) LoadFrom(ctx context.Context, store Store) error {
	data, err := store.Load(ctx)
	if err != nil {
		return err
	}
	return m.Decode(data)
}

// SaveTo writes the index to store.
func (m *Metas) SaveTo(ctx context.Context, store Store) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	return store.Save(ctx, data)
}

// FileStore keeps the index as a single JSON file.
type FileStore struct {
	fs   *fsys.FileSystem
	name string
}

func NewFileStore(fs *fsys.FileSystem, name string) *FileStore {
	if name == "" {
		name = "metas.json"
	}
	return &FileStore{fs: fs, name: name}
}

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if !s.fs.Has(s.name) {
		return nil, ErrNoCache
	}
	return s.fs.Read(s.name)
}

func (s *FileStore) Save(ctx context.Context, data []byte) error {
	return s.fs.Write(s.name, data)
}
