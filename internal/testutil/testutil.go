// Package testutil provides shared test utilities for plint tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plint-dev/plint/internal/constants"
)

// SetupConfigDir creates a temporary config directory populated with the
// given files (paths relative to the directory root) and points
// PLINT_CONFIG at it for the duration of the test.
func SetupConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	t.Setenv(constants.EnvConfigDir, dir)
	return dir
}

// WriteTree writes files (paths relative to root) into an existing
// directory, creating parents as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}
}

// SliceDoc builds a minimal slice document with one category of rules.
func SliceDoc(name, category, rulesTOML string) string {
	return "[metadata]\nname = \"" + name + "\"\nversion = \"1.0.0\"\n\n[[rules." + category + "]]\n" + rulesTOML + "\n"
}
