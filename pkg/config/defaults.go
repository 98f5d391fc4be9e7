package config

const (
	defaultEmbeddingProvider = "ollama"
	defaultEmbeddingTarget   = "http://localhost:11434"
	defaultEmbeddingModel    = "nomic-embed-text"

	defaultSyncRoot = "."
	defaultSyncGlob = "**/*"

	defaultQueryTopK = 5

	// DefaultStoreFile is the store file name inside the .semstore/ dir.
	DefaultStoreFile = "store.json"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
			Target:   defaultEmbeddingTarget,
			Model:    defaultEmbeddingModel,
		},
		Sync: SyncConfig{
			Root: defaultSyncRoot,
			Glob: defaultSyncGlob,
		},
		Query: QueryConfig{
			TopK: defaultQueryTopK,
		},
	}
}
