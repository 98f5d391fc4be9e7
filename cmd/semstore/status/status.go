// Package statuscmder provides the status command for inspecting the store
// and reporting what a sync would change.
package statuscmder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semstore/semstore/pkg/cliui"
	"github.com/semstore/semstore/pkg/config"
	"github.com/semstore/semstore/pkg/index"
	"github.com/semstore/semstore/pkg/ingest"
)

type statusCommander struct {
	storePath string
	root      string
	glob      string
}

const statusLongDesc string = `Show the current store state.

Displays the store file location, entry count, and vector dimensions, then
compares the store against the files currently matching the sync root and
glob: how many would be embedded and how many would be removed by a full
sync. The store is never modified.

Examples:
  semstore status
  semstore status --root ./docs --glob "**/*.md"`

const statusShortDesc string = "Show store state and pending changes"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.resolveConfig(cmd)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagStorePath, &cmder.storePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagSyncRoot, &cmder.root)
	config.AddStringFlag(cmd, config.Flags, config.FlagSyncGlob, &cmder.glob)

	return cmd
}

func (c *statusCommander) resolveConfig(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, []string{
		config.FlagStorePath,
		config.FlagSyncRoot,
		config.FlagSyncGlob,
	})

	c.storePath = v.GetString("store.path")
	c.root = v.GetString("sync.root")
	c.glob = v.GetString("sync.glob")

	if c.storePath == "" {
		cfger, err := config.NewConfiger(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		c.storePath = cfger.StorePath(nil)
	}

	return nil
}

func (c *statusCommander) run() error {
	store, err := index.Load(c.storePath)
	if err != nil {
		return fmt.Errorf("loading store: %w", err)
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Store:     "), cliui.ValueStyle.Render(store.Path()))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Entries:   "), cliui.ValueStyle.Render(strconv.Itoa(store.Len())))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Dimensions:"), cliui.ValueStyle.Render(strconv.Itoa(store.Dimensions())))
	if embedders := storeEmbedders(store); len(embedders) > 0 {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Embedder:  "), cliui.ValueStyle.Render(strings.Join(embedders, ", ")))
	}
	fmt.Println()

	items, err := ingest.Files(c.root, c.glob, nil)
	if err != nil {
		return fmt.Errorf("ingesting files: %w", err)
	}

	incoming := make([]index.StoreItem, len(items))
	for i, item := range items {
		incoming[i] = index.StoreItem{
			Item:        item,
			ContentHash: index.ContentHash(item.Content),
		}
	}

	stale := index.StaleOrNew(incoming, store)
	removed := index.Removed(incoming, store)

	if len(stale) == 0 && len(removed) == 0 {
		fmt.Printf("  %s Store is in sync with %d matched files.\n\n",
			cliui.SuccessMark, len(items))
		return nil
	}

	fmt.Printf("  %s files matched under %s\n", cliui.ValueStyle.Render(strconv.Itoa(len(items))), cliui.DimStyle.Render(c.root))
	if len(stale) > 0 {
		fmt.Printf("  %s would be embedded by %s\n",
			cliui.KeyStyle.Render(strconv.Itoa(len(stale))),
			cliui.DimStyle.Render("semstore sync"),
		)
	}
	if len(removed) > 0 {
		fmt.Printf("  %s would be removed by %s\n",
			cliui.KeyStyle.Render(strconv.Itoa(len(removed))),
			cliui.DimStyle.Render("semstore sync --full"),
		)
	}
	fmt.Println()

	return nil
}

// storeEmbedders returns the distinct embedder identifiers stamped into the
// store, sorted. More than one means the store was built with mixed
// embedders and scores across them are not comparable.
func storeEmbedders(store *index.Store) []string {
	seen := make(map[string]struct{})
	for _, item := range store.Items() {
		if item.Embedder != "" {
			seen[item.Embedder] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
