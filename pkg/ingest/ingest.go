// Package ingest reads files into index items.
//
// It is the ingestion collaborator for the index: it walks a root directory
// with a glob pattern and produces one Item per readable text file, skipping
// anything that does not decode as UTF-8.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/semstore/semstore/pkg/index"
)

// Files reads files under root matching pattern (doublestar syntax, so
// "**/*.md" recurses) and returns one item per text file. Item ids are
// forward-slash normalized paths relative to root, so a store built on one
// platform stays stable on another. Files that are not valid UTF-8 are
// skipped, not failed, as are hidden files and anything under a hidden
// directory.
func Files(root, pattern string, logger *zap.Logger) ([]index.Item, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %q under %s: %w", pattern, root, err)
	}

	items := make([]index.Item, 0, len(matches))
	for _, match := range matches {
		// Hidden files and directories stay out of the index. This also
		// keeps a local .semstore/ (store.json, config.toml) from being
		// ingested into its own store.
		if hasHiddenSegment(match) {
			continue
		}

		info, err := fs.Stat(fsys, match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		data, err := fs.ReadFile(fsys, match)
		if err != nil {
			logger.Debug("skipping unreadable file",
				zap.String("path", match),
				zap.Error(err),
			)
			continue
		}

		if !utf8.Valid(data) {
			logger.Debug("skipping non-text file", zap.String("path", match))
			continue
		}

		// fs.FS paths are already slash-separated, which is exactly the
		// id normalization the store wants.
		items = append(items, index.Item{
			ID:      match,
			Content: string(data),
			Meta: map[string]string{
				index.MetaTypeKey: index.MetaTypeFile,
			},
		})
	}

	logger.Info("ingested files",
		zap.String("root", root),
		zap.String("glob", pattern),
		zap.Int("matched", len(matches)),
		zap.Int("ingested", len(items)),
	)

	return items, nil
}

// hasHiddenSegment reports whether any element of the slash-separated path
// starts with a dot.
func hasHiddenSegment(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
