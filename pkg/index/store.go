package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store holds the ordered item list and the parallel vector matrix, bound to
// a persisted backing file. Row i of vectors is always the embedding of
// items[i].Content as of its last update.
//
// Fields are unexported: all mutation goes through Updater so the alignment
// invariant is enforced in one place. A Store is owned by a single writer at
// a time; there is no internal locking.
type Store struct {
	path  string
	items []StoreItem

	// vectors is nil before first population ("unset"), which is distinct
	// from an initialized matrix with zero rows.
	vectors [][]float32
}

// storeDocument is the persisted representation: a single JSON document
// holding the items and the full vector matrix in matching order.
type storeDocument struct {
	Items   []StoreItem `json:"items"`
	Vectors [][]float32 `json:"vectors"`
}

// Load reads a persisted store from path. A missing file is not an error: it
// returns a fresh empty store bound to that path. Any other read or parse
// failure returns ErrCorruptStore, so data loss is never silently masked as
// a first run.
func Load(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving store path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Store{path: abs}, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCorruptStore, abs, err)
	}

	var doc storeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrCorruptStore, abs, err)
	}

	if len(doc.Vectors) != len(doc.Items) {
		return nil, fmt.Errorf("%w: %s has %d items but %d vectors",
			ErrCorruptStore, abs, len(doc.Items), len(doc.Vectors))
	}

	s := &Store{
		path:  abs,
		items: doc.Items,
		// A persisted store always has a populated matrix; an empty one
		// round-trips as unset, which save treats as nothing to persist.
		vectors: doc.Vectors,
	}
	if len(doc.Vectors) == 0 {
		s.vectors = nil
	}

	return s, nil
}

// Save serializes the items and the full vector matrix to the bound path as
// a single atomic unit: the document is written to a temp file and renamed
// over the previous one, replacing on-disk content entirely. Saving a store
// whose vectors are unset is a no-op.
func (s *Store) Save() error {
	if s.vectors == nil {
		return nil
	}

	doc := storeDocument{
		Items:   s.items,
		Vectors: s.vectors,
	}
	if doc.Items == nil {
		doc.Items = []StoreItem{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp store file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing store file: %w", err)
	}

	return nil
}

// Path returns the absolute path of the persisted backing file.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of indexed items.
func (s *Store) Len() int {
	return len(s.items)
}

// Items returns a copy of the indexed items, preserving store order.
func (s *Store) Items() []StoreItem {
	out := make([]StoreItem, len(s.items))
	copy(out, s.items)
	return out
}

// Dimensions returns the vector dimensionality, or 0 if the matrix is unset
// or empty.
func (s *Store) Dimensions() int {
	if len(s.vectors) == 0 {
		return 0
	}
	return len(s.vectors[0])
}

// idToHash builds the id -> content hash mapping for change detection.
func (s *Store) idToHash() map[string]string {
	m := make(map[string]string, len(s.items))
	for _, item := range s.items {
		m[item.ID] = item.ContentHash
	}
	return m
}

// idToIndex builds the id -> position mapping for the replace-or-append step.
func (s *Store) idToIndex() map[string]int {
	m := make(map[string]int, len(s.items))
	for i, item := range s.items {
		m[item.ID] = i
	}
	return m
}
