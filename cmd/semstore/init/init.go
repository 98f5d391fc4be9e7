// Package initcmder provides the init command for initializing a local
// .semstore directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/semstore/semstore/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .semstore/ directory in the current working directory.

Creates a local .semstore/ directory that takes precedence over the default
~/.semstore/ directory for the store file and configuration.

This is useful for maintaining a separate store per project or directory.

Examples:
  semstore init`

const initShortDesc string = "Initialize a local .semstore/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName())

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .semstore directory: %w", err)
	}

	fmt.Printf("Initialized .semstore directory: %s\n", dir)
	return nil
}
