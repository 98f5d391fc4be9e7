// Package embeddings defines the embedding-generation contract used by the
// index. Any provider satisfying Embedder is substitutable.
package embeddings

import "context"

// Embedder generates vector embeddings for batches of text.
type Embedder interface {
	// Embed converts texts into vector embeddings, one output vector per
	// input text, in the same order. This layer issues one batch request
	// per call; batching minimizes round trips and cost.
	//
	// Implementations must reject (fail, not silently truncate) inputs
	// exceeding their declared size limit with ErrInputTooLarge.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the identifier of the embedding model/version, e.g.
	// "openai/text-embedding-3-small". It is stamped into stored items so
	// stores produced by different embedders stay distinguishable.
	Model() string

	// MaxInputBytes returns the declared per-input size limit in bytes.
	// Zero means unlimited.
	MaxInputBytes() int

	// Close releases any resources held by the embedder.
	Close() error
}
