// Package profile decides which profiles apply to a project. Activation is
// deliberately coarse: a profile answers "is this plausibly a project of
// this kind?", not "does every rule in it apply". Fine-grained scoping
// happens later, per rule.
package profile

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/plint-dev/plint/internal/ruleset"
)

// headerSize is how much of a file a "header" content trigger inspects.
const headerSize = 1024

// Activate evaluates every profile's activation predicate against the
// project rooted at root and returns the activated profiles in input order.
// Predicates are independent of each other and side-effect free; multiple
// activations are expected, not an error.
func Activate(root string, profiles []*ruleset.ProfileDocument) []*ruleset.ProfileDocument {
	var active []*ruleset.ProfileDocument
	for _, p := range profiles {
		if IsActive(root, p) {
			logger.Debug("profile activated", "profile", p.Metadata.Name)
			active = append(active, p)
		}
	}
	return active
}

// ActivatedNames is Activate reduced to profile names, for reporting.
func ActivatedNames(root string, profiles []*ruleset.ProfileDocument) []string {
	var names []string
	for _, p := range Activate(root, profiles) {
		names = append(names, p.Metadata.Name)
	}
	return names
}

// IsActive evaluates one profile's ActivationSpec: a pure OR across the
// four evidence categories, and a pure OR within each. No negation, no
// priority.
func IsActive(root string, p *ruleset.ProfileDocument) bool {
	spec := p.Activation

	for _, indicator := range spec.Indicators {
		if _, err := os.Stat(filepath.Join(root, indicator)); err == nil {
			logger.Debug("profile indicator present", "profile", p.Metadata.Name, "indicator", indicator)
			return true
		}
	}

	for _, path := range spec.Paths {
		if _, err := os.Stat(filepath.Join(root, path)); err == nil {
			logger.Debug("profile path present", "profile", p.Metadata.Name, "path", path)
			return true
		}
	}

	for _, pattern := range spec.Globs {
		if globMatchesAny(root, pattern) {
			logger.Debug("profile glob matched", "profile", p.Metadata.Name, "glob", pattern)
			return true
		}
	}

	for _, trigger := range spec.Content {
		if contentTriggerFires(root, trigger) {
			logger.Debug("profile content matched", "profile", p.Metadata.Name)
			return true
		}
	}

	return false
}

// globMatchesAny reports whether pattern matches at least one file under
// root. Invalid patterns warn and count as no match.
func globMatchesAny(root, pattern string) bool {
	matches, err := doublestar.FilepathGlob(filepath.Join(root, filepath.FromSlash(pattern)))
	if err != nil {
		logger.Warn("invalid activation glob", "glob", pattern, "error", err)
		return false
	}
	return len(matches) > 0
}

// contentTriggerFires reports whether any of the trigger's match strings
// occurs in any file selected by its globs (default: every file).
func contentTriggerFires(root string, trigger ruleset.ContentTrigger) bool {
	globs := trigger.Globs
	if len(globs) == 0 {
		globs = []string{"**/*"}
	}

	for _, pattern := range globs {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			logger.Warn("invalid content glob", "glob", pattern, "error", err)
			continue
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if fileContainsAny(path, trigger.Matches, trigger.Position == "header") {
				return true
			}
		}
	}
	return false
}

func fileContainsAny(path string, needles []string, headerOnly bool) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var data []byte
	if headerOnly {
		buf := make([]byte, headerSize)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return false
		}
		data = buf[:n]
	} else {
		data, err = io.ReadAll(f)
		if err != nil {
			return false
		}
	}

	content := string(data)
	for _, needle := range needles {
		if strings.Contains(content, needle) {
			return true
		}
	}
	return false
}
