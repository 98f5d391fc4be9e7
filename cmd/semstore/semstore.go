// Package semstorecmder
package semstorecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/semstore/semstore/cmd/semstore/config"
	initcmder "github.com/semstore/semstore/cmd/semstore/init"
	querycmder "github.com/semstore/semstore/cmd/semstore/query"
	statuscmder "github.com/semstore/semstore/cmd/semstore/status"
	synccmder "github.com/semstore/semstore/cmd/semstore/sync"
	versioncmder "github.com/semstore/semstore/cmd/version"
)

const semstoreLongDesc string = `Semstore is a persistent embedding index for local content.

Sync files into a store using:
  semstore sync              Embed new and changed files into the store
  semstore sync --full       Also remove store entries whose files are gone

Then query by meaning:
  semstore query "how do I configure logging?"`

const semstoreShortDesc string = "Semstore - persistent embedding index"

func NewSemstoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semstore",
		Short: semstoreShortDesc,
		Long:  semstoreLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .semstore/ directory location")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(synccmder.NewSyncCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
