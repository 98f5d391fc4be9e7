package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/semstore/semstore/pkg/embeddings"
	"github.com/semstore/semstore/pkg/utils"
)

// SyncMode controls whether an update may delete store entries.
type SyncMode int

const (
	// Additive only adds new items and refreshes changed ones; store
	// entries absent from the input set are left in place.
	Additive SyncMode = iota

	// Full additionally removes store entries whose id is absent from the
	// input set.
	Full
)

func (m SyncMode) String() string {
	if m == Full {
		return "full"
	}
	return "additive"
}

// Updater is the only mutation path into a Store. It owns the incremental
// sync algorithm: diff by content hash, embed exactly the stale batch, then
// apply removals and replace-or-append while keeping items and vectors
// aligned row for row.
type Updater struct {
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// NewUpdater creates an Updater around the given embedder collaborator.
// Configuration (model identity, size limits) travels with the embedder, so
// multiple stores with different embedders can coexist in one process.
func NewUpdater(embedder embeddings.Embedder, logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{
		embedder: embedder,
		logger:   logger,
	}
}

// Update synchronizes the store with the incoming item set and returns the
// ids of all items that were (re)embedded, in diff order. An empty result
// means the store was already current: no embedding call is made and nothing
// is mutated.
//
// Failures abort the whole operation with no retry. After a failed update
// the in-memory store state is indeterminate (a full-sync removal may have
// been applied before the embedding call failed); callers should reload from
// disk before reusing the store.
func (u *Updater) Update(ctx context.Context, items []Item, s *Store, mode SyncMode) ([]string, error) {
	stamped := asStoreItems(items, u.embedder.Model())

	staleIdx := StaleOrNew(stamped, s)
	if len(staleIdx) == 0 {
		u.logger.Info("store is current", zap.Int("items", len(items)))
		return nil, nil
	}

	if err := u.checkInputSizes(stamped, staleIdx); err != nil {
		return nil, err
	}

	contents := make([]string, len(staleIdx))
	for i, idx := range staleIdx {
		contents[i] = stamped[idx].Content
		u.logger.Debug("embedding item",
			zap.String("id", stamped[idx].ID),
			zap.String("preview", utils.Truncate(stamped[idx].Content, 30)),
			zap.Int("bytes", len(stamped[idx].Content)),
		)
	}

	// One batch request for exactly the stale contents.
	vectors, err := u.embedder.Embed(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("embedding %d items: %w", len(contents), err)
	}
	if len(vectors) != len(staleIdx) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d items",
			embeddings.ErrEmbedding, len(vectors), len(staleIdx))
	}

	// Reject dimension drift before any mutation: a batch that doesn't
	// match the existing matrix (e.g. after switching embedding models)
	// would corrupt the store and panic later queries.
	dims := s.Dimensions()
	if dims == 0 {
		dims = len(vectors[0])
	}
	for i, vector := range vectors {
		if len(vector) != dims {
			return nil, fmt.Errorf("%w: embedding for %q has %d dimensions, store has %d (embedder changed?)",
				embeddings.ErrEmbedding, stamped[staleIdx[i]].ID, len(vector), dims)
		}
	}

	if s.vectors == nil {
		s.vectors = make([][]float32, 0, len(staleIdx))
	}

	if mode == Full {
		u.compact(stamped, s)
	}

	idToIdx := s.idToIndex()
	for i, vector := range vectors {
		item := stamped[staleIdx[i]]
		if idx, ok := idToIdx[item.ID]; ok {
			// Replace the entry and overwrite its vector row together
			// so the row always matches the stored content hash.
			s.items[idx] = item
			s.vectors[idx] = vector
		} else {
			s.items = append(s.items, item)
			s.vectors = append(s.vectors, vector)
			idToIdx[item.ID] = len(s.items) - 1
		}
	}

	updated := make([]string, len(staleIdx))
	for i, idx := range staleIdx {
		updated[i] = stamped[idx].ID
	}

	u.logger.Info("store updated",
		zap.Int("embedded", len(updated)),
		zap.Int("items", s.Len()),
		zap.String("mode", mode.String()),
	)

	return updated, nil
}

// UpdateAndPersist runs Update and saves the store when anything changed. An
// empty result skips persistence: the on-disk store is already current.
func (u *Updater) UpdateAndPersist(ctx context.Context, items []Item, s *Store, mode SyncMode) ([]string, error) {
	updated, err := u.Update(ctx, items, s, mode)
	if err != nil {
		return nil, err
	}

	if len(updated) > 0 {
		if err := s.Save(); err != nil {
			return nil, fmt.Errorf("persisting store: %w", err)
		}
	}

	return updated, nil
}

// checkInputSizes rejects the whole batch when any stale item exceeds the
// embedder's declared per-input limit, identifying the offending items.
func (u *Updater) checkInputSizes(items []StoreItem, staleIdx []int) error {
	limit := u.embedder.MaxInputBytes()
	if limit <= 0 {
		return nil
	}

	var over []string
	for _, idx := range staleIdx {
		if len(items[idx].Content) > limit {
			over = append(over, items[idx].ID)
		}
	}

	if len(over) > 0 {
		return &InputTooLargeError{IDs: over, Limit: limit}
	}
	return nil
}

// compact removes store entries absent from the incoming item set. Items and
// vectors are rebuilt together with a filter-and-copy pass rather than
// deleted row by row, so removing multiple rows cannot shift later indices.
func (u *Updater) compact(items []StoreItem, s *Store) {
	removed := Removed(items, s)
	if len(removed) == 0 {
		return
	}

	drop := make(map[int]struct{}, len(removed))
	for _, idx := range removed {
		drop[idx] = struct{}{}
	}

	keptItems := make([]StoreItem, 0, len(s.items)-len(removed))
	keptVectors := make([][]float32, 0, len(s.items)-len(removed))
	for i := range s.items {
		if _, gone := drop[i]; gone {
			u.logger.Debug("removing item", zap.String("id", s.items[i].ID))
			continue
		}
		keptItems = append(keptItems, s.items[i])
		keptVectors = append(keptVectors, s.vectors[i])
	}

	s.items = keptItems
	s.vectors = keptVectors
}
