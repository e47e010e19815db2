// Package detect implements the two generic detection primitives: pattern
// detection and call-by-name detection. Detectors compile once from a rule
// definition and are pure functions of (rule, text) afterwards; fix
// application is a separate, explicitly gated operation.
package detect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/plint-dev/plint/internal/ruleset"
)

// Issue is a single finding. Produced, never mutated.
type Issue struct {
	Rule     string           `json:"rule_name"`
	Severity ruleset.Severity `json:"severity"`
	File     string           `json:"file_path,omitempty"`
	Line     int              `json:"line,omitempty"`
	Column   int              `json:"column,omitempty"`
	Matched  string           `json:"matched,omitempty"`
	Message  string           `json:"message"`

	// Fix is the rendered replacement, nil when the rule carries no fix
	// template.
	Fix *string `json:"fix,omitempty"`
}

// Detector evaluates one compiled rule against a file's text.
type Detector interface {
	// Name returns the rule name the detector was compiled from.
	Name() string

	// Detect returns one issue per non-overlapping match in text. It
	// performs no I/O and does not mutate its input.
	Detect(file, text string) []Issue

	// Rewrite replaces every match in text with its rendered fix and
	// reports whether anything changed. Text without matches, or a rule
	// without a fix template, comes back unchanged.
	Rewrite(text string) (string, bool)
}

// Compile builds a detector from a rule definition. Pattern rules compile
// their regular expression once, honoring case_sensitive; call rules expand
// each function name into identifier-call syntax.
func Compile(def ruleset.RuleDefinition) (Detector, error) {
	if !def.Severity.Valid() {
		return nil, fmt.Errorf("rule %q: invalid severity %q", def.Name, def.Severity)
	}
	switch def.Kind {
	case ruleset.KindPattern:
		return compilePattern(def)
	case ruleset.KindCall:
		return compileCalls(def)
	}
	return nil, fmt.Errorf("rule %q: unknown kind %q", def.Name, def.Kind)
}

// patternDetector matches a regular expression, one issue per
// non-overlapping match per line.
type patternDetector struct {
	def ruleset.RuleDefinition
	re  *regexp.Regexp
}

func compilePattern(def ruleset.RuleDefinition) (*patternDetector, error) {
	if def.Pattern == "" {
		return nil, fmt.Errorf("rule %q: empty pattern", def.Name)
	}
	expr := def.Pattern
	if !def.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", def.Name, err)
	}
	return &patternDetector{def: def, re: re}, nil
}

func (d *patternDetector) Name() string { return d.def.Name }

func (d *patternDetector) Detect(file, text string) []Issue {
	var issues []Issue
	for lineIdx, line := range strings.Split(text, "\n") {
		for _, loc := range d.re.FindAllStringSubmatchIndex(line, -1) {
			vars := d.matchVars(file, line, lineIdx+1, loc)
			issue := Issue{
				Rule:     d.def.Name,
				Severity: d.def.Severity,
				File:     file,
				Line:     lineIdx + 1,
				Column:   loc[0],
				Matched:  line[loc[0]:loc[1]],
				Message:  renderTemplate(d.def.Message, vars),
			}
			if d.def.HasFix() {
				fix := renderTemplate(d.def.Fix, vars)
				issue.Fix = &fix
			}
			issues = append(issues, issue)
		}
	}
	return issues
}

func (d *patternDetector) Rewrite(text string) (string, bool) {
	if !d.def.HasFix() {
		return text, false
	}
	// Rewriting runs line by line, same as Detect, so anchors bind to line
	// boundaries in both.
	changed := false
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = replaceAllSubmatchFunc(d.re, line, func(l string, loc []int) string {
			changed = true
			return renderTemplate(d.def.Fix, d.matchVars("", l, 0, loc))
		})
	}
	if !changed {
		return text, false
	}
	return strings.Join(lines, "\n"), true
}

// matchVars builds the template variable set for one match: the standard
// placeholders plus any named capture groups.
func (d *patternDetector) matchVars(file, line string, lineNum int, loc []int) map[string]string {
	vars := map[string]string{
		"matched": line[loc[0]:loc[1]],
		"file":    file,
		"line":    strconv.Itoa(lineNum),
		"column":  strconv.Itoa(loc[0]),
	}
	for i, name := range d.re.SubexpNames() {
		if name == "" || 2*i+1 >= len(loc) || loc[2*i] < 0 {
			continue
		}
		vars[name] = line[loc[2*i]:loc[2*i+1]]
	}
	return vars
}

// callDetector flags identifier-call syntax for a set of function names.
// The fix template replaces only the identifier, keeping the open paren.
type callDetector struct {
	def   ruleset.RuleDefinition
	names []string
	res   []*regexp.Regexp
}

func compileCalls(def ruleset.RuleDefinition) (*callDetector, error) {
	if len(def.Functions) == 0 {
		return nil, fmt.Errorf("rule %q: no functions", def.Name)
	}
	d := &callDetector{def: def}
	for _, fn := range def.Functions {
		expr := `\b(` + regexp.QuoteMeta(fn) + `)\s*\(`
		if !def.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", def.Name, err)
		}
		d.names = append(d.names, fn)
		d.res = append(d.res, re)
	}
	return d, nil
}

func (d *callDetector) Name() string { return d.def.Name }

func (d *callDetector) Detect(file, text string) []Issue {
	var issues []Issue
	for lineIdx, line := range strings.Split(text, "\n") {
		for i, re := range d.res {
			for _, loc := range re.FindAllStringSubmatchIndex(line, -1) {
				vars := map[string]string{
					"matched":  line[loc[0]:loc[1]],
					"function": d.names[i],
					"file":     file,
					"line":     strconv.Itoa(lineIdx + 1),
					"column":   strconv.Itoa(loc[0]),
				}
				issue := Issue{
					Rule:     d.def.Name,
					Severity: d.def.Severity,
					File:     file,
					Line:     lineIdx + 1,
					Column:   loc[0],
					Matched:  line[loc[0]:loc[1]],
					Message:  renderTemplate(d.def.Message, vars),
				}
				if d.def.HasFix() {
					// The identifier span is capture group 1; rewriting it
					// alone preserves spacing and the paren.
					fixed := line[loc[0]:loc[2]] + renderTemplate(d.def.Fix, vars) + line[loc[3]:loc[1]]
					issue.Fix = &fixed
				}
				issues = append(issues, issue)
			}
		}
	}
	return issues
}

func (d *callDetector) Rewrite(text string) (string, bool) {
	if !d.def.HasFix() {
		return text, false
	}
	// Line by line, same as Detect.
	changed := false
	lines := strings.Split(text, "\n")
	for li, line := range lines {
		for i, re := range d.res {
			fn := d.names[i]
			line = replaceAllSubmatchFunc(re, line, func(s string, loc []int) string {
				changed = true
				vars := map[string]string{"matched": s[loc[0]:loc[1]], "function": fn}
				return s[loc[0]:loc[2]] + renderTemplate(d.def.Fix, vars) + s[loc[3]:loc[1]]
			})
		}
		lines[li] = line
	}
	if !changed {
		return text, false
	}
	return strings.Join(lines, "\n"), true
}

// renderTemplate substitutes {name} placeholders from vars. Placeholders
// without a binding are left as-is.
func renderTemplate(tmpl string, vars map[string]string) string {
	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// replaceAllSubmatchFunc is ReplaceAllStringFunc with access to submatch
// indexes. repl receives the full input and the match location slice and
// returns the replacement for the whole match.
func replaceAllSubmatchFunc(re *regexp.Regexp, s string, repl func(s string, loc []int) string) string {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(s[last:loc[0]])
		b.WriteString(repl(s, loc))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
