package testutils

import (
	"context"
	"fmt"

	"github.com/semstore/semstore/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings and
// records every batch it is asked to embed.
type MockEmbedder struct {
	// Embeddings maps input text to the vector to return. Texts without
	// an entry get Default.
	Embeddings map[string][]float32

	// Default is returned for texts with no Embeddings entry.
	Default []float32

	// FailOn causes Embed to fail when any input text matches.
	FailOn string

	// Limit is the declared per-input size limit. Zero means unlimited.
	Limit int

	// ModelID is the reported model identifier.
	ModelID string

	// Calls records each batch passed to Embed, in order.
	Calls [][]string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
		ModelID:    "test/mock-embedder",
	}
}

func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.Calls = append(m.Calls, append([]string(nil), texts...))

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			return nil, fmt.Errorf("%w: mock failure for: %s", embeddings.ErrEmbedding, text)
		}
		if m.Limit > 0 && len(text) > m.Limit {
			return nil, fmt.Errorf("%w: input %d", embeddings.ErrInputTooLarge, i)
		}
		if emb, ok := m.Embeddings[text]; ok {
			out[i] = emb
			continue
		}
		out[i] = m.Default
	}

	return out, nil
}

func (m *MockEmbedder) Model() string {
	return m.ModelID
}

func (m *MockEmbedder) MaxInputBytes() int {
	return m.Limit
}

func (m *MockEmbedder) Close() error {
	return nil
}

// EmbedCalls returns the number of batch calls made so far.
func (m *MockEmbedder) EmbedCalls() int {
	return len(m.Calls)
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)
