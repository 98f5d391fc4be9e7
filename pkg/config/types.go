package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent semstore configuration stored as
// config.toml in the .semstore/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Store     StoreConfig     `toml:"store"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Sync      SyncConfig      `toml:"sync"`
	Query     QueryConfig     `toml:"query"`
}

// StoreConfig holds settings for the persisted store backing file.
type StoreConfig struct {
	// Path is the store file location. Empty means store.json inside the
	// resolved .semstore/ directory.
	Path string `toml:"path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the provider API
	// key. The key itself never lands in the config file.
	APIKeyEnv string `toml:"api_key_env,omitempty"`

	// MaxInputBytes overrides the provider's per-input size limit.
	MaxInputBytes int `toml:"max_input_bytes,omitempty"`
}

// SyncConfig holds defaults for the sync command's ingestion pass.
type SyncConfig struct {
	Root string `toml:"root,omitempty"`
	Glob string `toml:"glob,omitempty"`

	// Full enables deletions: store entries absent from the ingested set
	// are removed. Off by default (additive sync).
	Full bool `toml:"full,omitempty"`
}

// QueryConfig holds defaults for the query command.
type QueryConfig struct {
	TopK int `toml:"top_k,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"store.path": {
		get: func(c *Config) string { return c.Store.Path },
		set: func(c *Config, v string) error { c.Store.Path = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.api_key_env": {
		get: func(c *Config) string { return c.Embedding.APIKeyEnv },
		set: func(c *Config, v string) error { c.Embedding.APIKeyEnv = v; return nil },
	},
	"embedding.max_input_bytes": {
		get: func(c *Config) string { return strconv.Itoa(c.Embedding.MaxInputBytes) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("embedding.max_input_bytes must be an integer: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("embedding.max_input_bytes must not be negative")
			}
			c.Embedding.MaxInputBytes = n
			return nil
		},
	},
	"sync.root": {
		get: func(c *Config) string { return c.Sync.Root },
		set: func(c *Config, v string) error { c.Sync.Root = v; return nil },
	},
	"sync.glob": {
		get: func(c *Config) string { return c.Sync.Glob },
		set: func(c *Config, v string) error { c.Sync.Glob = v; return nil },
	},
	"sync.full": {
		get: func(c *Config) string { return strconv.FormatBool(c.Sync.Full) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("sync.full must be true or false: %w", err)
			}
			c.Sync.Full = b
			return nil
		},
	},
	"query.top_k": {
		get: func(c *Config) string { return strconv.Itoa(c.Query.TopK) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("query.top_k must be an integer: %w", err)
			}
			if n <= 0 {
				return fmt.Errorf("query.top_k must be positive")
			}
			c.Query.TopK = n
			return nil
		},
	},
}
