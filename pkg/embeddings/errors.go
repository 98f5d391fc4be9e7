package embeddings

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails
	// (network, quota, auth, malformed response).
	ErrEmbedding = errors.New("embedding failed")

	// ErrInputTooLarge is returned when an input exceeds the embedder's
	// declared per-input size limit. Inputs are rejected, never truncated.
	ErrInputTooLarge = errors.New("embedding input too large")
)
