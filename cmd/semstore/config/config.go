// Package configcmder provides the config command for managing persistent
// semstore configuration stored in the .semstore/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent semstore configuration.

Configuration is stored as config.toml in the .semstore/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  store.path,
  embedding.provider, embedding.target, embedding.model,
  embedding.api_key_env, embedding.max_input_bytes,
  sync.root, sync.glob, sync.full,
  query.top_k

Use subcommands to get, set, or list configuration values:
  semstore config set <key> <value>    Set a configuration value
  semstore config get <key>            Get a configuration value
  semstore config list                 List all configuration values

Examples:
  semstore config set embedding.provider ollama
  semstore config set embedding.model nomic-embed-text
  semstore config get sync.glob
  semstore config list`

const configShortDesc string = "Manage persistent semstore configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
