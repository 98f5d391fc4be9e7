package index

// StaleOrNew returns the indices of incoming items that need (re)embedding:
// those whose id is absent from the store or whose content hash differs from
// the stored hash. Indices are in input order. The store is not mutated.
func StaleOrNew(items []StoreItem, s *Store) []int {
	idToHash := s.idToHash()

	var idxs []int
	for i, item := range items {
		stored, ok := idToHash[item.ID]
		if !ok || item.ContentHash != stored {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// Removed returns the store positions whose id is not present in the
// incoming item set. Used by full sync, where deletions are enabled;
// additive sync skips this entirely. The store is not mutated.
func Removed(items []StoreItem, s *Store) []int {
	current := make(map[string]struct{}, len(items))
	for _, item := range items {
		current[item.ID] = struct{}{}
	}

	var idxs []int
	for i, item := range s.items {
		if _, ok := current[item.ID]; !ok {
			idxs = append(idxs, i)
		}
	}
	return idxs
}
