package ruleset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const goodSlice = `
[metadata]
name = "security"

[[rules.credentials]]
name = "aws_key"
pattern = "AKIA"
`

func TestLoadTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", "[policy]\nmode = \"allowlist\"\n")
	writeFile(t, dir, "rules/slices/security.toml", goodSlice)
	writeFile(t, dir, "rules/profiles/web.toml", `
slices = ["security"]

[metadata]
name = "web"

[activation]
indicators = ["package.json"]
`)
	writeFile(t, dir, "rules/active/extra.toml", `
[metadata]
name = "extra"

[[rules.misc]]
name = "todo_marker"
pattern = "FIXME"
`)

	store, err := LoadTree(dir)
	if err != nil {
		t.Fatal(err)
	}
	if store.Override.Policy.Mode != "allowlist" {
		t.Errorf("mode = %q", store.Override.Policy.Mode)
	}
	if _, ok := store.Slices["security"]; !ok {
		t.Error("security slice not loaded")
	}
	if len(store.Profiles) != 1 {
		t.Errorf("profiles = %d, want 1", len(store.Profiles))
	}
	if len(store.Active) != 1 {
		t.Errorf("active = %d, want 1", len(store.Active))
	}

	known := store.KnownRuleNames()
	for _, name := range []string{"aws_key", "todo_marker"} {
		if _, ok := known[name]; !ok {
			t.Errorf("known rule names missing %q", name)
		}
	}
}

func TestLoadTreeSkipsBrokenDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rules/slices/good.toml", goodSlice)
	writeFile(t, dir, "rules/slices/broken.toml", "[metadata\nnot toml")
	writeFile(t, dir, "rules/profiles/broken.toml", "????")

	store, err := LoadTree(dir)
	if err != nil {
		t.Fatalf("broken slice/profile documents must not fail the load: %v", err)
	}
	if len(store.Slices) != 1 {
		t.Errorf("slices = %d, want 1 (broken skipped)", len(store.Slices))
	}
	if len(store.Profiles) != 0 {
		t.Errorf("profiles = %d, want 0", len(store.Profiles))
	}
}

func TestLoadTreeBrokenOverrideIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", "[policy]\nmode = \"blocklist\"\n")

	if _, err := LoadTree(dir); err == nil {
		t.Fatal("invalid override document must fail the load")
	}
}

func TestLoadTreeDuplicateSliceKeepsFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rules/slices/a.toml", `
[metadata]
name = "security"

[[rules.x]]
name = "first"
pattern = "a"
`)
	writeFile(t, dir, "rules/slices/b.toml", `
[metadata]
name = "security"

[[rules.x]]
name = "second"
pattern = "b"
`)

	store, err := LoadTree(dir)
	if err != nil {
		t.Fatal(err)
	}
	doc := store.Slices["security"]
	if doc == nil {
		t.Fatal("security slice not loaded")
	}
	// Files load in sorted order, so a.toml wins.
	if _, ok := doc.RuleNames()["first"]; !ok {
		t.Error("expected the first-loaded document to win")
	}
}

func TestLoadTreeMissingDirectory(t *testing.T) {
	store, err := LoadTree(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing tree should load as empty store: %v", err)
	}
	if len(store.Slices) != 0 || len(store.Profiles) != 0 {
		t.Error("expected empty store")
	}
}
