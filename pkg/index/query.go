package index

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/semstore/semstore/pkg/embeddings"
)

// FilterFunc decides whether a ranked item is kept in query results.
type FilterFunc func(StoreItem) bool

// TypeFilter keeps items whose metadata type matches t.
func TypeFilter(t string) FilterFunc {
	return func(item StoreItem) bool {
		return item.Meta[MetaTypeKey] == t
	}
}

// Result is a single query hit: the stored item plus its similarity score
// against the query vector.
type Result struct {
	StoreItem

	Score float32
}

// Querier answers nearest-neighbor queries over a store. It is read-only:
// no query mutates the store.
type Querier struct {
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// NewQuerier creates a Querier around the given embedder collaborator. The
// embedder should match the one used to build the store; scores across
// mismatched embedding spaces are meaningless.
func NewQuerier(embedder embeddings.Embedder, logger *zap.Logger) *Querier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Querier{
		embedder: embedder,
		logger:   logger,
	}
}

// Query embeds prompt, scores every stored vector by dot product (providers
// return normalized embeddings, so this approximates cosine similarity), and
// returns the top count items by descending score. Ties keep store order.
//
// With a filter, the full ranking is scanned in order and only items passing
// the filter are kept, stopping at count matches; fewer than count may be
// returned. Querying a store with no vectors returns ErrEmptyStore.
func (q *Querier) Query(ctx context.Context, prompt string, count int, s *Store, filter FilterFunc) ([]Result, error) {
	if s.vectors == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyStore, s.path)
	}

	vectors, err := q.embedder.Embed(ctx, []string{prompt})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings for query", embeddings.ErrEmbedding, len(vectors))
	}
	queryVector := vectors[0]

	if dims := s.Dimensions(); dims != 0 && len(queryVector) != dims {
		return nil, fmt.Errorf("query vector has %d dimensions, store has %d (embedder mismatch?)",
			len(queryVector), dims)
	}

	scores := make([]float32, len(s.vectors))
	for i, v := range s.vectors {
		scores[i] = dot(v, queryVector)
	}

	ranks := make([]int, len(scores))
	for i := range ranks {
		ranks[i] = i
	}
	sort.SliceStable(ranks, func(a, b int) bool {
		return scores[ranks[a]] > scores[ranks[b]]
	})

	q.logger.Debug("query ranked",
		zap.Int("candidates", len(ranks)),
		zap.Int("count", count),
	)

	if count < 0 {
		count = 0
	}

	results := make([]Result, 0, count)
	for _, idx := range ranks {
		if len(results) >= count {
			break
		}
		if filter != nil && !filter(s.items[idx]) {
			continue
		}
		results = append(results, Result{StoreItem: s.items[idx], Score: scores[idx]})
	}

	return results, nil
}

// dot computes the dot product of two vectors. Assumes equal length; the
// store guarantees uniform dimensionality and the embedder the rest.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
