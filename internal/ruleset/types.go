// Package ruleset loads and represents the declarative rule documents plint
// runs on: domain rule groups (slices), context-activation definitions
// (profiles), standalone active-rule documents, and the user override
// document. Documents are parsed once per invocation and immutable after.
package ruleset

// Severity grades a rule violation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for decision reduction; higher is stronger.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 0
	}
	return -1
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s.Rank() >= 0
}

// RuleKind selects the detection primitive a rule compiles to.
type RuleKind string

const (
	// KindPattern matches a regular expression against text.
	KindPattern RuleKind = "pattern"
	// KindCall matches identifier-call syntax (name followed by an open
	// paren) for a set of function names.
	KindCall RuleKind = "call"
)

// RuleDefinition is one declarative rule as it appears in a slice or
// active-rule document. Compilation into an executable detector happens in
// the policy package; definitions themselves are plain data.
type RuleDefinition struct {
	Name string   `toml:"name"`
	Kind RuleKind `toml:"kind"`

	// Pattern is the regular expression for pattern rules.
	Pattern string `toml:"pattern"`
	// Functions are the flagged callable names for call rules.
	Functions []string `toml:"functions"`

	Severity Severity `toml:"severity"`

	// Message is a template with {matched}, {file}, {line}, {column},
	// {function} and named-capture-group placeholders.
	Message string `toml:"message"`

	// Fix, when non-empty, is a replacement template rendered with the same
	// placeholders. An empty Fix means the rule offers no auto-fix.
	Fix string `toml:"fix"`

	CaseSensitive bool `toml:"case_sensitive"`

	// Triggers restricts the rule to specific event kinds in hook mode.
	// Empty means the rule applies to every event.
	Triggers []string `toml:"triggers"`

	// FileGlob scopes the rule to matching paths (doublestar syntax).
	// Empty means every file.
	FileGlob string `toml:"file_glob"`

	// Condition is an optional expr-lang boolean expression evaluated
	// against the event payload (command, content, file_path, event_kind,
	// source, tool_name).
	Condition string `toml:"condition"`
}

// HasFix reports whether the rule carries a fix template.
func (r *RuleDefinition) HasFix() bool {
	return r.Fix != ""
}

// Metadata is the required header block of every document.
type Metadata struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Scope       string `toml:"scope"`
	Description string `toml:"description"`
}

// ContentTrigger activates a profile when any of Matches appears in a file
// selected by Globs.
type ContentTrigger struct {
	Matches []string `toml:"matches"`
	Globs   []string `toml:"globs"`
	// Position is "header" to inspect only the first KB of each file, or
	// "any" (the default) for whole-file search.
	Position string `toml:"position"`
}

// ActivationSpec is the evidence predicate of a profile: a disjunction
// across four categories, each itself a disjunction.
type ActivationSpec struct {
	Indicators []string         `toml:"indicators"`
	Paths      []string         `toml:"paths"`
	Globs      []string         `toml:"globs"`
	Content    []ContentTrigger `toml:"content"`
}

// ChecksSpec carries the rule names a profile turns on or off.
type ChecksSpec struct {
	Enable  []string `toml:"enable"`
	Disable []string `toml:"disable"`
}

// ProfileDocument bundles an activation predicate with the slices it pulls
// in and its enable/disable sets.
type ProfileDocument struct {
	Metadata   Metadata       `toml:"metadata"`
	Activation ActivationSpec `toml:"activation"`
	Checks     ChecksSpec     `toml:"checks"`
	Slices     []string       `toml:"slices"`
}

// SliceDocument is a named, versioned collection of rule definitions grouped
// by category. Active-rule documents share this shape; they are slices that
// run outside the profile hierarchy.
type SliceDocument struct {
	Metadata Metadata                    `toml:"metadata"`
	Messages map[string]string           `toml:"messages"`
	Rules    map[string][]RuleDefinition `toml:"rules"`
}

// PolicySpec is the composed-policy section of the override document.
type PolicySpec struct {
	// Mode is "allowlist" or "denylist"; denylist is the default.
	Mode           string   `toml:"mode"`
	EnabledChecks  []string `toml:"enabled_checks"`
	DisabledChecks []string `toml:"disabled_checks"`
}

// LintSpec holds batch-lint settings from the override document.
type LintSpec struct {
	Ignore        []string `toml:"ignore"`
	MaxFileSizeMB int64    `toml:"max_file_size_mb"`
	Workers       int      `toml:"workers"`
}

// OverrideDocument is the user-level config.toml.
type OverrideDocument struct {
	Policy PolicySpec `toml:"policy"`
	Lint   LintSpec   `toml:"lint"`
}
