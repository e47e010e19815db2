package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plint-dev/plint/internal/constants"
)

func TestDirHonorsEnvOverride(t *testing.T) {
	t.Setenv(constants.EnvConfigDir, "/custom/plint")
	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/custom/plint" {
		t.Errorf("Dir() = %q", dir)
	}
}

func TestEnsureFiles(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureFiles(dir, false); err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{
		"config.toml",
		"rules/slices/security.toml",
		"rules/slices/pnpm.toml",
		"rules/profiles/pnpm.toml",
		"rules/profiles/web.toml",
		"rules/profiles/general.toml",
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("default file %s not written: %v", rel, err)
		}
	}
}

func TestEnsureFilesKeepsEdits(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureFiles(dir, false); err != nil {
		t.Fatal(err)
	}

	edited := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(edited, []byte("# my edits\n"), constants.FileMode); err != nil {
		t.Fatal(err)
	}

	if err := EnsureFiles(dir, false); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(edited)
	if string(data) != "# my edits\n" {
		t.Error("re-init without --force overwrote a user edit")
	}

	if err := EnsureFiles(dir, true); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(edited)
	if string(data) == "# my edits\n" {
		t.Error("forced init kept the user edit")
	}
}

func TestDefaultsLoadCleanly(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureFiles(dir, false); err != nil {
		t.Fatal(err)
	}

	store, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"security", "pnpm"} {
		if _, ok := store.Slices[name]; !ok {
			t.Errorf("default slice %q did not load", name)
		}
	}
	if len(store.Profiles) != 3 {
		t.Errorf("profiles = %d, want 3", len(store.Profiles))
	}

	known := store.KnownRuleNames()
	for _, name := range []string{"private_key", "npm_in_pnpm_project", "insecure_c_functions"} {
		if _, ok := known[name]; !ok {
			t.Errorf("default rule %q missing", name)
		}
	}
}
