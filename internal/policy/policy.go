// Package policy composes the per-invocation effective rule set from the
// override document and the activated profiles, and compiles each surviving
// rule definition into its executable form.
package policy

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/plint-dev/plint/internal/detect"
	"github.com/plint-dev/plint/internal/event"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/plint-dev/plint/internal/ruleset"
)

// Mode selects allowlist or denylist membership semantics.
type Mode string

const (
	ModeAllowlist Mode = "allowlist"
	ModeDenylist  Mode = "denylist"
)

// ParseMode maps the override document's mode string to a Mode; the empty
// string means the denylist default.
func ParseMode(s string) Mode {
	if s == string(ModeAllowlist) {
		return ModeAllowlist
	}
	return ModeDenylist
}

// EffectivePolicy is the fully resolved rule set for one invocation. It is
// a value object: built fresh per run or event, never persisted, never
// mutated after Compose returns.
type EffectivePolicy struct {
	Mode     Mode
	Enabled  map[string]struct{}
	Disabled map[string]struct{}

	// Rules is the concrete ordered list of compiled rules that will run.
	Rules []*CompiledRule

	// Profiles are the names of the activated profiles, for reporting.
	Profiles []string
}

// CompiledRule pairs a rule definition with its compiled detector, trigger
// set, and optional content condition. Immutable once compiled.
type CompiledRule struct {
	Def      ruleset.RuleDefinition
	Detector detect.Detector

	// restricted is set when the definition declared any triggers at all.
	// A declared-but-all-unknown trigger list must match nothing, not
	// everything, so the declaration is tracked separately from the
	// resolved set.
	restricted bool
	triggers   map[event.Kind]struct{}

	cond *vm.Program
}

// MatchesTrigger reports whether the rule applies to events of kind k.
func (r *CompiledRule) MatchesTrigger(k event.Kind) bool {
	if !r.restricted {
		return true
	}
	_, ok := r.triggers[k]
	return ok
}

// MatchesFile reports whether the rule's file_glob admits path. A rule
// without a glob admits every path; an invalid glob admits none.
func (r *CompiledRule) MatchesFile(path string) bool {
	if r.Def.FileGlob == "" {
		return true
	}
	ok, err := doublestar.Match(r.Def.FileGlob, path)
	if err != nil {
		logger.Warn("invalid file glob", "rule", r.Def.Name, "glob", r.Def.FileGlob, "error", err)
		return false
	}
	return ok
}

// EvalCondition runs the rule's content condition against env. A rule
// without a condition always passes. Evaluation errors are reported so the
// caller can treat the rule as not matching.
func (r *CompiledRule) EvalCondition(env map[string]any) (bool, error) {
	if r.cond == nil {
		return true, nil
	}
	out, err := expr.Run(r.cond, env)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	return isBool && ok, nil
}

// Runs applies the composed membership test to a rule name.
func (p *EffectivePolicy) Runs(name string) bool {
	if _, disabled := p.Disabled[name]; disabled {
		// Disable wins over enable on conflict: the conservative-safe
		// default, in both modes.
		return false
	}
	if p.Mode == ModeAllowlist {
		_, enabled := p.Enabled[name]
		return enabled
	}
	return true
}

// Compose merges the override document and the activated profiles into one
// effective policy and expands the activated profiles into the concrete
// compiled rule list. It is a pure function of its inputs: repeated calls
// yield an identical policy.
//
// Enable and disable sets are unions (not last-writer-wins) over the
// override document and every activated profile. Dangling references --
// unknown rule names, unknown slice names -- warn and are ignored;
// composition never fails the run over them. A rule whose regex, condition,
// or severity fails to compile is skipped with a warning and the rest of
// the rules still run.
func Compose(mode Mode, override *ruleset.OverrideDocument, activated []*ruleset.ProfileDocument, store *ruleset.Store) *EffectivePolicy {
	p := &EffectivePolicy{
		Mode:     mode,
		Enabled:  make(map[string]struct{}),
		Disabled: make(map[string]struct{}),
	}

	known := store.KnownRuleNames()
	addNames := func(dst map[string]struct{}, names []string, origin string) {
		for _, name := range names {
			if _, ok := known[name]; !ok {
				logger.Warn("unknown rule name ignored", "name", name, "origin", origin)
				continue
			}
			dst[name] = struct{}{}
		}
	}

	if override != nil {
		addNames(p.Enabled, override.Policy.EnabledChecks, "override")
		addNames(p.Disabled, override.Policy.DisabledChecks, "override")
	}
	for _, prof := range activated {
		p.Profiles = append(p.Profiles, prof.Metadata.Name)
		addNames(p.Enabled, prof.Checks.Enable, prof.Metadata.Name)
		addNames(p.Disabled, prof.Checks.Disable, prof.Metadata.Name)
	}

	// Expand activated profiles into slice documents, first reference wins,
	// then append the standalone active-rule documents.
	var docs []*ruleset.SliceDocument
	seenSlice := make(map[string]struct{})
	for _, prof := range activated {
		for _, name := range prof.Slices {
			if _, dup := seenSlice[name]; dup {
				continue
			}
			doc, ok := store.Slices[name]
			if !ok {
				logger.Warn("unknown slice reference ignored", "slice", name, "profile", prof.Metadata.Name)
				continue
			}
			seenSlice[name] = struct{}{}
			docs = append(docs, doc)
		}
	}
	docs = append(docs, store.Active...)

	seenRule := make(map[string]struct{})
	for _, doc := range docs {
		for _, def := range doc.Definitions() {
			if _, dup := seenRule[def.Name]; dup {
				continue
			}
			seenRule[def.Name] = struct{}{}
			if !p.Runs(def.Name) {
				continue
			}
			compiled, err := compileRule(def)
			if err != nil {
				logger.Warn("skipping rule", "rule", def.Name, "error", err)
				continue
			}
			p.Rules = append(p.Rules, compiled)
		}
	}

	logger.Debug("policy composed",
		"mode", p.Mode,
		"profiles", len(p.Profiles),
		"rules", len(p.Rules))
	return p
}

// ComposeStore is Compose with the mode read from the store's override
// document.
func ComposeStore(store *ruleset.Store, activated []*ruleset.ProfileDocument) *EffectivePolicy {
	return Compose(ParseMode(store.Override.Policy.Mode), store.Override, activated, store)
}

func compileRule(def ruleset.RuleDefinition) (*CompiledRule, error) {
	detector, err := detect.Compile(def)
	if err != nil {
		return nil, err
	}

	r := &CompiledRule{Def: def, Detector: detector}

	if len(def.Triggers) > 0 {
		r.restricted = true
		r.triggers = make(map[event.Kind]struct{}, len(def.Triggers))
		for _, t := range def.Triggers {
			k := event.ParseKind(t)
			if k == event.KindUnknown {
				logger.Warn("unknown trigger ignored", "rule", def.Name, "trigger", t)
				continue
			}
			r.triggers[k] = struct{}{}
		}
	}

	if def.Condition != "" {
		prog, err := expr.Compile(def.Condition,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
			expr.AsBool())
		if err != nil {
			return nil, err
		}
		r.cond = prog
	}

	return r, nil
}
