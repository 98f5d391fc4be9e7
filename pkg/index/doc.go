// Package index maintains a small persistent collection of text items and
// their embedding vectors.
//
// The store keeps an ordered list of items alongside a parallel matrix of
// float32 vectors: row i of the matrix is always the embedding of item i's
// content as of its last update. The Updater is the only mutation path and is
// responsible for preserving that alignment across inserts, replacements, and
// deletions. Re-indexing is incremental: items are fingerprinted with a cheap
// content hash, and only new or changed items are sent to the embedder.
//
// The index is single-writer. Nothing in this package locks; callers must
// serialize access to a given Store.
package index
