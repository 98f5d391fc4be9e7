// Package synccmder provides the `semstore sync` CLI command.
package synccmder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semstore/semstore/pkg/cliui"
	"github.com/semstore/semstore/pkg/config"
	"github.com/semstore/semstore/pkg/dotdir"
	"github.com/semstore/semstore/pkg/embeddings"
	embeddingutils "github.com/semstore/semstore/pkg/embeddings/utils"
	"github.com/semstore/semstore/pkg/index"
	"github.com/semstore/semstore/pkg/ingest"
	"github.com/semstore/semstore/pkg/logger"
)

// watchDebounce batches bursts of filesystem events (editors often fire
// several per save) into a single resync.
const watchDebounce = 500 * time.Millisecond

type syncCommander struct {
	storePath string
	root      string
	glob      string
	full      bool
	watch     bool

	provider      string
	target        string
	model         string
	apiKeyEnv     string
	maxInputBytes int

	debug  bool
	logger *zap.Logger
}

const syncLongDesc string = `Sync files under a root directory into the store.

Each matched file is content-hashed; only files that are new or whose content
changed since the last sync are embedded. Unchanged files are never re-embedded
and a sync with no changes leaves the store file untouched.

By default sync is additive: store entries whose files no longer match are
kept. With --full, such entries are removed from the store.

With --watch, the root directory is watched for changes and the store is
resynced automatically until interrupted.

Examples:
  semstore sync
  semstore sync --root ./docs --glob "**/*.md"
  semstore sync --full
  semstore sync --watch`

const syncShortDesc string = "Sync files into the store"

// NewSyncCmd creates the sync cobra command.
func NewSyncCmd() *cobra.Command {
	cmder := &syncCommander{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: syncShortDesc,
		Long:  syncLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.resolveConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagStorePath, &cmder.storePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagSyncRoot, &cmder.root)
	config.AddStringFlag(cmd, config.Flags, config.FlagSyncGlob, &cmder.glob)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.model)
	cmd.Flags().BoolVarP(&cmder.full, "full", "f", false, "Remove store entries whose files no longer match")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Watch the root directory and resync on changes")

	return cmd
}

// resolveConfig merges flags, environment, config file, and defaults via
// viper. Flags win when set.
func (c *syncCommander) resolveConfig(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, []string{
		config.FlagStorePath,
		config.FlagSyncRoot,
		config.FlagSyncGlob,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
	})

	c.storePath = v.GetString("store.path")
	c.root = v.GetString("sync.root")
	c.glob = v.GetString("sync.glob")
	c.provider = v.GetString("embedding.provider")
	c.target = v.GetString("embedding.target")
	c.model = v.GetString("embedding.model")
	c.apiKeyEnv = v.GetString("embedding.api_key_env")
	c.maxInputBytes = v.GetInt("embedding.max_input_bytes")

	if !cmd.Flags().Changed("full") {
		c.full = v.GetBool("sync.full")
	}

	if c.storePath == "" {
		cfger, err := config.NewConfiger(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		c.storePath = cfger.StorePath(nil)
	}

	return nil
}

func (c *syncCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug).With(zap.String("sync_id", uuid.NewString()))
	defer func() { _ = c.logger.Sync() }()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType:  c.provider,
		TargetURL:     c.target,
		Model:         c.model,
		MaxInputBytes: c.maxInputBytes,
		APIKeyEnv:     c.apiKeyEnv,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	if !c.watch {
		return c.syncOnce(ctx, embedder)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.syncOnce(ctx, embedder); err != nil {
		return err
	}

	return c.watchLoop(ctx, embedder)
}

// syncOnce runs a single ingest-diff-embed-persist pass.
func (c *syncCommander) syncOnce(ctx context.Context, embedder embeddings.Embedder) error {
	items, err := ingest.Files(c.root, c.glob, c.logger)
	if err != nil {
		return fmt.Errorf("ingesting files: %w", err)
	}

	store, err := index.Load(c.storePath)
	if err != nil {
		return fmt.Errorf("loading store: %w", err)
	}

	mode := index.Additive
	if c.full {
		mode = index.Full
	}

	updater := index.NewUpdater(embedder, c.logger)

	var updated []string
	stepMsg := fmt.Sprintf("Syncing %d files (%s)", len(items), mode)
	if err := cliui.Step(os.Stdout, stepMsg, func() error {
		var updateErr error
		updated, updateErr = updater.UpdateAndPersist(ctx, items, store, mode)
		return updateErr
	}); err != nil {
		var tooLarge *index.InputTooLargeError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w\n\nSplit these files or raise embedding.max_input_bytes", err)
		}
		return err
	}

	if len(updated) == 0 {
		fmt.Printf("  %s %s\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render("Store is up to date."))
	} else {
		fmt.Printf("  %s Embedded %s files\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(fmt.Sprintf("%d", len(updated))),
		)
		for _, id := range updated {
			fmt.Printf("    %s\n", cliui.DimStyle.Render(id))
		}
	}

	fmt.Printf("  %s %s %s\n\n",
		cliui.KeyStyle.Render("Store:"),
		cliui.DimStyle.Render(c.storePath),
		cliui.DimStyle.Render(fmt.Sprintf("(%d entries)", store.Len())),
	)

	return nil
}

// watchLoop resyncs on filesystem changes under the root until ctx is
// cancelled. Event bursts are debounced into one pass.
func (c *syncCommander) watchLoop(ctx context.Context, embedder embeddings.Embedder) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirs(watcher, c.root); err != nil {
		return fmt.Errorf("watching %s: %w", c.root, err)
	}

	fmt.Printf("  %s Watching %s for changes. Ctrl-C to stop.\n\n",
		cliui.DimStyle.Render("●"),
		cliui.KeyStyle.Render(c.root),
	)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n  %s Stopped watching.\n", cliui.DimStyle.Render("●"))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if strings.Contains(event.Name, string(filepath.Separator)+dotdir.DirName()) {
				continue
			}
			c.logger.Debug("filesystem event",
				zap.String("op", event.Op.String()),
				zap.String("path", event.Name),
			)

			// New directories must join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addDirs(watcher, event.Name)
				}
			}

			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			if err := c.syncOnce(ctx, embedder); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Printf("  %s %v\n\n", cliui.FailMark, err)
				c.logger.Error("resync failed", zap.Error(err))
			}
		}
	}
}

// addDirs registers root and every directory below it with the watcher.
// fsnotify watches are not recursive.
func addDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == dotdir.DirName() {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
