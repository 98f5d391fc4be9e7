package index

// RawVectors exposes the vector matrix to tests so the item/vector alignment
// invariant can be asserted directly.
func RawVectors(s *Store) [][]float32 {
	return s.vectors
}

// SetRawState lets tests construct stores in specific shapes without going
// through an embedder.
func SetRawState(s *Store, items []StoreItem, vectors [][]float32) {
	s.items = items
	s.vectors = vectors
}
