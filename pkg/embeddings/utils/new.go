// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"os"

	"github.com/semstore/semstore/pkg/embeddings"
	"github.com/semstore/semstore/pkg/embeddings/ollama"
	"github.com/semstore/semstore/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType  string
	TargetURL     string
	Model         string
	MaxInputBytes int

	// APIKeyEnv names the environment variable holding the provider API
	// key, for providers that need one.
	APIKeyEnv string
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:       o.TargetURL,
			Model:         o.Model,
			MaxInputBytes: o.MaxInputBytes,
		})
	case "openai":
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:        os.Getenv(o.APIKeyEnv),
			BaseURL:       o.TargetURL,
			Model:         o.Model,
			MaxInputBytes: o.MaxInputBytes,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
