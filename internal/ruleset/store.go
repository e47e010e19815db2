package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plint-dev/plint/internal/logger"
)

// Store holds every document loaded for one invocation. It is constructed
// fresh each run and passed explicitly; there is no ambient registry, so
// tests can build arbitrary stores without touching disk.
type Store struct {
	Override *OverrideDocument

	// Slices is keyed by metadata.name.
	Slices map[string]*SliceDocument

	// Profiles are ordered by file name so composition is deterministic.
	Profiles []*ProfileDocument

	// Active are standalone enabled rule documents; their rules run
	// regardless of profile activation, subject to the composed
	// enable/disable membership.
	Active []*SliceDocument
}

// NewStore returns an empty store with a default override document.
func NewStore() *Store {
	return &Store{
		Override: &OverrideDocument{},
		Slices:   make(map[string]*SliceDocument),
	}
}

// LoadTree reads a config directory laid out as:
//
//	config.toml            override document
//	rules/slices/*.toml    slice documents
//	rules/profiles/*.toml  profile documents
//	rules/active/*.toml    active-rule documents
//
// A malformed override document is fatal: the caller asked for it and
// cannot proceed without knowing the policy mode. A malformed slice,
// profile, or active document is logged and skipped; one broken file never
// corrupts documents loaded from other sources.
func LoadTree(dir string) (*Store, error) {
	store := NewStore()

	overridePath := filepath.Join(dir, "config.toml")
	if data, err := os.ReadFile(overridePath); err == nil {
		doc, perr := ParseOverride(data)
		if perr != nil {
			return nil, fmt.Errorf("%s: %w", overridePath, perr)
		}
		store.Override = doc
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", overridePath, err)
	}

	for _, path := range tomlFiles(filepath.Join(dir, "rules", "slices")) {
		doc, err := readSlice(path)
		if err != nil {
			logger.Warn("skipping slice document", "path", path, "error", err)
			continue
		}
		if _, dup := store.Slices[doc.Metadata.Name]; dup {
			logger.Warn("duplicate slice name, keeping first", "name", doc.Metadata.Name, "path", path)
			continue
		}
		store.Slices[doc.Metadata.Name] = doc
		logger.Debug("loaded slice", "name", doc.Metadata.Name)
	}

	for _, path := range tomlFiles(filepath.Join(dir, "rules", "profiles")) {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping profile document", "path", path, "error", err)
			continue
		}
		doc, err := ParseProfile(data)
		if err != nil {
			logger.Warn("skipping profile document", "path", path, "error", err)
			continue
		}
		store.Profiles = append(store.Profiles, doc)
		logger.Debug("loaded profile", "name", doc.Metadata.Name)
	}

	for _, path := range tomlFiles(filepath.Join(dir, "rules", "active")) {
		doc, err := readSlice(path)
		if err != nil {
			logger.Warn("skipping active rule document", "path", path, "error", err)
			continue
		}
		store.Active = append(store.Active, doc)
		logger.Debug("loaded active rules", "name", doc.Metadata.Name)
	}

	logger.Debug("rule store loaded",
		"slices", len(store.Slices),
		"profiles", len(store.Profiles),
		"active", len(store.Active))
	return store, nil
}

// KnownRuleNames returns every rule name declared in any slice or active
// document, for dangling-reference warnings during composition.
func (s *Store) KnownRuleNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, doc := range s.Slices {
		for name := range doc.RuleNames() {
			names[name] = struct{}{}
		}
	}
	for _, doc := range s.Active {
		for name := range doc.RuleNames() {
			names[name] = struct{}{}
		}
	}
	return names
}

func readSlice(path string) (*SliceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSlice(data)
}

// tomlFiles lists *.toml files under dir in sorted order. A missing
// directory is an empty result, not an error.
func tomlFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths
}
