// Package config locates the plint configuration tree and seeds it with
// the embedded defaults on first run.
package config

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/plint-dev/plint/internal/constants"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/plint-dev/plint/internal/ruleset"
)

//go:embed defaults
var defaults embed.FS

// Dir returns the configuration directory: $PLINT_CONFIG when set,
// otherwise ~/.config/plint.
func Dir() (string, error) {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGConfigSubdir, constants.AppName), nil
}

// DataDir returns the data directory (~/.local/share/plint).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGDataSubdir, constants.AppName), nil
}

// EnsureFiles materializes the embedded default tree under dir. Existing
// files are left alone unless force is set, so user edits survive
// re-initialization.
func EnsureFiles(dir string, force bool) error {
	return fs.WalkDir(defaults, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("defaults", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, constants.DirMode)
		}

		if !force {
			if _, err := os.Stat(target); err == nil {
				logger.Debug("keeping existing config file", "path", target)
				return nil
			}
		}

		data, err := defaults.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, constants.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		logger.Debug("wrote default config file", "path", target)
		return nil
	})
}

// Load resolves the config directory and loads the rule store from it. A
// directory that has never been initialized loads as an empty store; that
// is a valid, permissive configuration, not an error.
func Load(dir string) (*ruleset.Store, error) {
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return nil, err
		}
	}
	return ruleset.LoadTree(dir)
}
