package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/semstore/semstore/pkg/embeddings"
)

var (
	// ErrCorruptStore is returned when a persisted store exists but cannot
	// be read or parsed. An absent store is not an error: Load initializes
	// a fresh empty store instead, and never masks corruption as a first
	// run.
	ErrCorruptStore = errors.New("corrupt store file")

	// ErrEmptyStore is returned when querying a store that has no vectors
	// yet.
	ErrEmptyStore = errors.New("store has no vectors")
)

// InputTooLargeError reports items whose content exceeds the embedder's
// declared per-input size limit. The whole batch fails; nothing is embedded
// or stored.
type InputTooLargeError struct {
	// IDs are the offending item ids, in input order.
	IDs []string

	// Limit is the embedder's per-input limit in bytes.
	Limit int
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("input exceeds embedder limit of %d bytes: %s",
		e.Limit, strings.Join(e.IDs, ", "))
}

// Unwrap ties the typed error into the embeddings sentinel so callers can
// classify with errors.Is(err, embeddings.ErrInputTooLarge).
func (e *InputTooLargeError) Unwrap() error {
	return embeddings.ErrInputTooLarge
}
