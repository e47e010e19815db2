// Package lint walks a source tree and runs the composed policy's rules
// over every eligible file. Files are scanned concurrently; results are
// aggregated and sorted so repeated runs over an unchanged tree produce
// identical reports.
package lint

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/plint-dev/plint/internal/detect"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/plint-dev/plint/internal/policy"
	"github.com/plint-dev/plint/internal/ruleset"
	"github.com/plint-dev/plint/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxFileSizeMB caps how large a file the runner will read.
const DefaultMaxFileSizeMB = 5

// DefaultWorkers is the scan concurrency when the config does not set one.
const DefaultWorkers = 8

// defaultIgnores are skipped even without configuration. Dependency and
// VCS trees dominate walk time and never carry project source.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/dist/**",
	"**/target/**",
}

// Options configures one lint run.
type Options struct {
	Root string

	// Fix applies each issue's fix in place; DryRun computes fixes without
	// writing. DryRun implies no writes even when Fix is set.
	Fix    bool
	DryRun bool

	Ignore      []string
	MaxFileSize int64
	Workers     int
}

// Report is the outcome of one run.
type Report struct {
	RunID      string                `json:"run_id"`
	Root       string                `json:"root"`
	Profiles   []string              `json:"profiles,omitempty"`
	Issues     []detect.Issue        `json:"issues"`
	Violations []workspace.Violation `json:"workspace_violations,omitempty"`
	Files      int                   `json:"files_scanned"`
	Fixed      int                   `json:"fixes_applied"`
	Duration   time.Duration         `json:"duration_ns"`
}

// HasFindings reports whether anything was flagged.
func (r *Report) HasFindings() bool {
	return len(r.Issues) > 0 || len(r.Violations) > 0
}

// MaxSeverity returns the strongest severity among the issues, or ok=false
// when there are none.
func (r *Report) MaxSeverity() (ruleset.Severity, bool) {
	var max ruleset.Severity
	found := false
	for _, is := range r.Issues {
		if !found || is.Severity.Rank() > max.Rank() {
			max = is.Severity
			found = true
		}
	}
	return max, found
}

// Runner executes lint runs against one composed policy.
type Runner struct {
	policy *policy.EffectivePolicy
	opts   Options
}

// NewRunner builds a runner. Zero option fields fall back to defaults.
func NewRunner(p *policy.EffectivePolicy, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSizeMB * 1024 * 1024
	}
	return &Runner{policy: p, opts: opts}
}

// Run walks the tree and scans every eligible file with every rule whose
// file_glob admits it. With Fix set, fixes are applied per file inside the
// file's own worker, so no file is ever written by two goroutines.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:    uuid.NewString(),
		Root:     r.opts.Root,
		Profiles: r.policy.Profiles,
	}

	ignore := append([]string{}, defaultIgnores...)
	ignore = append(ignore, r.opts.Ignore...)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	var mu sync.Mutex
	walkErr := filepath.WalkDir(r.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(r.opts.Root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != r.opts.Root && ignored(rel+"/", ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignored(rel, ignore) {
			return nil
		}
		if info, ierr := d.Info(); ierr == nil && info.Size() > r.opts.MaxFileSize {
			logger.Debug("skipping oversized file", "path", rel, "size", info.Size())
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		g.Go(func() error {
			issues, fixed, err := r.scanFile(path, rel)
			if err != nil {
				logger.Warn("failed to scan file", "path", rel, "error", err)
				return nil
			}
			mu.Lock()
			report.Files++
			report.Issues = append(report.Issues, issues...)
			report.Fixed += fixed
			mu.Unlock()
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if walkErr != nil && walkErr != context.Canceled {
		return nil, walkErr
	}

	report.Violations = workspace.Check(r.opts.Root)

	sort.Slice(report.Issues, func(i, j int) bool {
		a, b := report.Issues[i], report.Issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Rule < b.Rule
	})

	report.Duration = time.Since(start)
	logger.Debug("lint run complete",
		"run_id", report.RunID,
		"files", report.Files,
		"issues", len(report.Issues),
		"fixed", report.Fixed)
	return report, nil
}

// scanFile reads one file and runs every applicable rule over it. Issues
// carry the root-relative path.
func (r *Runner) scanFile(path, rel string) ([]detect.Issue, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	text := string(data)
	if !utf8Like(text) {
		return nil, 0, nil
	}

	var issues []detect.Issue
	for _, rule := range r.policy.Rules {
		if rule.Def.FileGlob != "" && !rule.MatchesFile(rel) {
			continue
		}
		issues = append(issues, rule.Detector.Detect(rel, text)...)
	}

	fixed := 0
	if r.opts.Fix && len(issues) > 0 {
		fixed, err = detect.FixFile(path, issues, r.opts.DryRun)
		if err != nil {
			return issues, 0, err
		}
	}
	return issues, fixed, nil
}

// ignored reports whether rel matches any ignore glob. Directory entries
// arrive with a trailing slash so patterns like "**/dist/**" prune the
// whole subtree.
func ignored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if strings.HasSuffix(rel, "/") {
			if ok, err := doublestar.Match(pattern, rel+"x"); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// utf8Like rejects files that are almost certainly binary. A NUL byte in
// the first kilobyte is the cheap, reliable signal.
func utf8Like(text string) bool {
	head := text
	if len(head) > 1024 {
		head = head[:1024]
	}
	return !strings.ContainsRune(head, 0)
}

// Render writes a human-readable report. With pretty set, findings get
// severity icons for terminal output; otherwise the format is plain and
// grep-friendly.
func Render(w io.Writer, report *Report, pretty bool) {
	for _, is := range report.Issues {
		prefix := string(is.Severity)
		if pretty {
			prefix = severityIcon(is.Severity) + " " + prefix
		}
		fmt.Fprintf(w, "%s:%d:%d: %s: %s (%s)\n", is.File, is.Line, is.Column, prefix, is.Message, is.Rule)
	}
	for _, v := range report.Violations {
		fmt.Fprintf(w, "%s: warning: %s\n", v.File, v.Message)
	}

	fmt.Fprintf(w, "\n%d file(s) scanned, %d issue(s)", report.Files, len(report.Issues))
	if report.Fixed > 0 {
		fmt.Fprintf(w, ", %d fix(es) applied", report.Fixed)
	}
	fmt.Fprintf(w, " in %s\n", report.Duration.Round(time.Millisecond))
}

func severityIcon(s ruleset.Severity) string {
	switch s {
	case ruleset.SeverityCritical:
		return "✖"
	case ruleset.SeverityError:
		return "✖"
	case ruleset.SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}
