package detect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plint-dev/plint/internal/constants"
	"github.com/plint-dev/plint/internal/logger"
)

// ApplyFixes returns content with every fixable issue's match replaced by
// its rendered fix, plus the number of fixes applied. Replacement is by
// exact (line, column) span, so all non-matched text survives byte for
// byte. Issues without a fix are ignored.
func ApplyFixes(content string, issues []Issue) (string, int) {
	fixable := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if is.Fix != nil && is.Line > 0 {
			fixable = append(fixable, is)
		}
	}
	if len(fixable) == 0 {
		return content, 0
	}

	// Apply bottom-up and right-to-left so earlier spans keep their offsets.
	sort.Slice(fixable, func(i, j int) bool {
		if fixable[i].Line != fixable[j].Line {
			return fixable[i].Line > fixable[j].Line
		}
		return fixable[i].Column > fixable[j].Column
	})

	lines := splitLines(content)
	applied := 0
	for _, is := range fixable {
		if is.Line > len(lines) {
			continue
		}
		line := lines[is.Line-1]
		end := is.Column + len(is.Matched)
		if is.Column < 0 || end > len(line) || line[is.Column:end] != is.Matched {
			// The span moved since detection; skip rather than corrupt.
			continue
		}
		lines[is.Line-1] = line[:is.Column] + *is.Fix + line[end:]
		applied++
	}
	return joinLines(lines), applied
}

// FixFile applies the issues' fixes to the file at path. With dryRun the
// rewritten content is computed but not written. Writes go through a
// temporary file in the same directory followed by an atomic rename, so a
// failure never leaves the file partially written.
func FixFile(path string, issues []Issue, dryRun bool) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fixed, applied := ApplyFixes(string(raw), issues)
	if applied == 0 || dryRun {
		return applied, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".plint-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(fixed); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmpPath, info.Mode())
	} else {
		os.Chmod(tmpPath, constants.FileMode)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	logger.Debug("applied fixes", "path", path, "count", applied)
	return applied, nil
}

// splitLines and joinLines round-trip content exactly: splitting on "\n"
// preserves trailing newlines and any carriage returns inside lines.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
