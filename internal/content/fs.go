package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// FSStore serves documents from a filesystem tree with one directory per
// kind (rulebook/, packs/, boards/) and one <name>.json file per document.
type FSStore struct {
	fsys fs.FS
}

// NewFSStore creates a store rooted at the given directory.
//
// Precondition: dir should exist; a missing directory surfaces as ErrNotFound
// on Load and an error on List.
func NewFSStore(dir string) *FSStore {
	return &FSStore{fsys: os.DirFS(dir)}
}

// NewFSStoreFS creates a store over an arbitrary fs.FS with the standard layout.
func NewFSStoreFS(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// Load reads the JSON document for (kind, name).
//
// Postcondition: Returns the raw bytes, or an error wrapping ErrNotFound if
// the file does not exist.
func (s *FSStore) Load(kind Kind, name string) ([]byte, error) {
	dir, err := Dir(kind)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, path.Join(dir, name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s %q: %w", kind, name, err)
	}
	return data, nil
}

// List enumerates document names of the given kind in lexical order.
//
// Postcondition: Returns a sorted slice (may be empty) or a non-nil error if
// the kind directory cannot be read.
func (s *FSStore) List(kind Kind) ([]string, error) {
	dir, err := Dir(kind)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s documents: %w", kind, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}
