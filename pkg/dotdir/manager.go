// Package dotdir manages the .semstore/ and ~/.semstore directories.
//
// The dotdir holds the config.toml and the default store.json backing file.
// A local ./.semstore/ directory takes precedence over ~/.semstore so state
// can be kept per project.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the semstore directory.
	dirName = ".semstore"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .semstore/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.semstore/ dir
//  3. Home ~/.semstore/ dir
//
// If no directory is resolved, Target returns an empty string without error;
// callers fall back to defaults and `semstore init` creates the local dir.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating semstore directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if dir, ok := m.localDir(); ok {
		return filepath.Abs(dir)
	}

	if dir, ok := m.homeDir(); ok {
		return filepath.Abs(dir)
	}

	return "", nil
}

// localDir reports the ./.semstore directory if it exists.
func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(cwd, dirName)
	info, err := os.Stat(dir)
	return dir, err == nil && info.IsDir()
}

// homeDir reports the ~/.semstore directory if it exists.
func (m *Manager) homeDir() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(home, dirName)
	info, err := os.Stat(dir)
	return dir, err == nil && info.IsDir()
}

// DirName returns the dot-directory name (".semstore").
func DirName() string {
	return dirName
}
