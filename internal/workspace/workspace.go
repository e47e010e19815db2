// Package workspace inspects a JavaScript project root for its package
// manager and flags lockfile inconsistencies.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/plint-dev/plint/internal/logger"
	"gopkg.in/yaml.v3"
)

// Manager identifies a JavaScript package manager.
type Manager string

const (
	ManagerNpm     Manager = "npm"
	ManagerPnpm    Manager = "pnpm"
	ManagerYarn    Manager = "yarn"
	ManagerBun     Manager = "bun"
	ManagerUnknown Manager = ""
)

// lockfiles maps each manager to the lockfile it owns.
var lockfiles = map[Manager]string{
	ManagerNpm:  "package-lock.json",
	ManagerPnpm: "pnpm-lock.yaml",
	ManagerYarn: "yarn.lock",
	ManagerBun:  "bun.lockb",
}

// packageJSON is the subset of package.json the detector reads.
type packageJSON struct {
	PackageManager string `json:"packageManager"`
}

// pnpmWorkspace is the subset of pnpm-workspace.yaml the detector reads;
// its mere presence is the signal, but parsing it validates the file.
type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// Detect returns the package manager a project root declares. The
// packageManager field in package.json is authoritative; lockfiles and
// pnpm-workspace.yaml are the fallback evidence. ManagerUnknown means the
// root does not look like a JavaScript project at all.
func Detect(root string) Manager {
	if m := fromPackageJSON(root); m != ManagerUnknown {
		return m
	}

	if _, err := os.Stat(filepath.Join(root, "pnpm-workspace.yaml")); err == nil {
		return ManagerPnpm
	}
	for _, m := range []Manager{ManagerPnpm, ManagerYarn, ManagerBun, ManagerNpm} {
		if _, err := os.Stat(filepath.Join(root, lockfiles[m])); err == nil {
			return m
		}
	}
	return ManagerUnknown
}

func fromPackageJSON(root string) Manager {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ManagerUnknown
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		logger.Warn("malformed package.json", "root", root, "error", err)
		return ManagerUnknown
	}
	// The field carries a version suffix, e.g. "pnpm@9.1.0".
	name, _, _ := strings.Cut(pkg.PackageManager, "@")
	switch Manager(name) {
	case ManagerNpm, ManagerPnpm, ManagerYarn, ManagerBun:
		return Manager(name)
	}
	return ManagerUnknown
}

// WorkspacePackages parses pnpm-workspace.yaml and returns its package
// globs. A missing file is an empty result, not an error.
func WorkspacePackages(root string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ws pnpmWorkspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("pnpm-workspace.yaml: %w", err)
	}
	return ws.Packages, nil
}

// Violation is one lockfile consistency problem.
type Violation struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Check flags lockfiles that contradict the project's declared package
// manager: a pnpm project with a package-lock.json checked in, a yarn
// project carrying pnpm-lock.yaml, and so on. A project with no declared
// manager passes vacuously.
func Check(root string) []Violation {
	declared := Detect(root)
	if declared == ManagerUnknown {
		return nil
	}

	var violations []Violation
	for _, m := range []Manager{ManagerNpm, ManagerPnpm, ManagerYarn, ManagerBun} {
		if m == declared {
			continue
		}
		lock := lockfiles[m]
		if _, err := os.Stat(filepath.Join(root, lock)); err == nil {
			violations = append(violations, Violation{
				File: lock,
				Message: fmt.Sprintf("%s belongs to %s but this project uses %s; remove it to avoid dependency drift",
					lock, m, declared),
			})
		}
	}
	return violations
}
