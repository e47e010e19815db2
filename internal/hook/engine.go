// Package hook evaluates one normalized lifecycle event against a composed
// policy and reduces the findings to a single verdict. Evaluation is pure:
// no filesystem access, no mutation of the event or the policy, the same
// inputs always produce the same decision.
package hook

import (
	"strings"

	"github.com/plint-dev/plint/internal/detect"
	"github.com/plint-dev/plint/internal/event"
	"github.com/plint-dev/plint/internal/logger"
	"github.com/plint-dev/plint/internal/policy"
	"github.com/plint-dev/plint/internal/ruleset"
)

// Verdict is the reduced outcome of one event evaluation.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictWarn  Verdict = "warn"
	VerdictDeny  Verdict = "deny"
)

// Decision is what the consumer acts on. Message and Rule come from the
// strongest finding; RewrittenCommand is carried independently of verdict
// strength, so an advisory rewrite survives alongside a warning from
// another rule.
type Decision struct {
	Verdict Verdict `json:"verdict"`
	Message string  `json:"message,omitempty"`

	// Rule names the finding that determined the verdict.
	Rule string `json:"rule,omitempty"`

	// RewrittenCommand is the command after the first applicable rewrite,
	// empty when nothing rewrote it. Carried even on deny; wire formatters
	// decide whether their protocol surfaces it.
	RewrittenCommand string `json:"rewritten_command,omitempty"`

	// Issues are every finding from the evaluation, in rule order.
	Issues []detect.Issue `json:"issues,omitempty"`
}

// Engine evaluates events against one composed policy. Stateless apart
// from the policy reference; safe for concurrent use.
type Engine struct {
	policy *policy.EffectivePolicy
}

// NewEngine wraps a composed policy for evaluation.
func NewEngine(p *policy.EffectivePolicy) *Engine {
	return &Engine{policy: p}
}

// Evaluate runs every applicable rule against the event's payload and
// reduces the findings to one decision.
//
// A rule applies when its trigger set admits the event's kind, its
// file_glob admits the event's file path, and its content condition holds.
// Command payloads are additionally scanned segment by segment after shell
// splitting. Rule evaluation errors degrade to "no match" and never
// escalate the verdict.
func (e *Engine) Evaluate(ev *event.Event) *Decision {
	d := &Decision{Verdict: VerdictAllow}

	payload, ok := ev.Payload()
	if !ok {
		return d
	}

	// Shell splitting applies only to command payloads. A command the
	// parser rejects is still scanned whole; rules see the raw text.
	var segments []string
	if ev.Command != "" && ev.Content == "" {
		segs, err := SplitCommandChain(ev.Command)
		if err != nil {
			logger.Debug("command not parseable as shell, scanning raw", "error", err)
		} else {
			segments = segs
		}
	}

	env := conditionEnv(ev)
	var strongest *detect.Issue

	for _, rule := range e.policy.Rules {
		if !rule.MatchesTrigger(ev.Kind) {
			continue
		}
		if rule.Def.FileGlob != "" {
			if ev.FilePath == "" || !rule.MatchesFile(ev.FilePath) {
				continue
			}
		}
		if ok, err := rule.EvalCondition(env); err != nil {
			logger.Warn("condition evaluation failed, treating as no match",
				"rule", rule.Def.Name, "error", err)
			continue
		} else if !ok {
			continue
		}

		issues := rule.Detector.Detect(ev.FilePath, payload)
		for _, seg := range segments {
			if seg == payload {
				continue
			}
			issues = append(issues, rule.Detector.Detect(ev.FilePath, seg)...)
		}
		if len(issues) == 0 {
			continue
		}

		d.Issues = append(d.Issues, issues...)

		for i := range issues {
			is := &issues[i]
			// Strongest severity wins; ties keep the earlier-declared rule,
			// which this in-order scan gives us for free.
			if strongest == nil || is.Severity.Rank() > strongest.Severity.Rank() {
				strongest = is
			}
		}

		// First applicable rewrite wins, independent of verdict strength.
		if d.RewrittenCommand == "" && ev.Command != "" && rule.Def.HasFix() {
			if rewritten, changed := rewriteCommand(rule.Detector, ev.Command, segments); changed {
				d.RewrittenCommand = rewritten
				logger.Debug("command rewritten", "rule", rule.Def.Name)
			}
		}
	}

	if strongest != nil {
		d.Message = strongest.Message
		d.Rule = strongest.Rule
		switch strongest.Severity {
		case ruleset.SeverityCritical, ruleset.SeverityError:
			d.Verdict = VerdictDeny
		case ruleset.SeverityWarning:
			d.Verdict = VerdictWarn
		}
	}

	logger.Debug("event evaluated",
		"kind", ev.Kind,
		"verdict", d.Verdict,
		"issues", len(d.Issues),
		"rule", d.Rule)
	return d
}

// rewriteCommand applies the detector's fix to the raw command, falling back
// to per-segment rewriting for chained commands. A changed segment is spliced
// back into the raw text so operators and ordering survive; a segment the
// shell printer normalized away from the raw text is left alone.
func rewriteCommand(det detect.Detector, raw string, segments []string) (string, bool) {
	if rewritten, changed := det.Rewrite(raw); changed {
		return rewritten, true
	}
	out := raw
	changed := false
	for _, seg := range segments {
		if seg == raw || !strings.Contains(out, seg) {
			continue
		}
		if rewritten, ok := det.Rewrite(seg); ok {
			out = strings.Replace(out, seg, rewritten, 1)
			changed = true
		}
	}
	return out, changed
}

// conditionEnv exposes the event to rule conditions as plain fields.
func conditionEnv(ev *event.Event) map[string]any {
	return map[string]any{
		"event_kind": string(ev.Kind),
		"source":     ev.Source,
		"file_path":  ev.FilePath,
		"command":    ev.Command,
		"content":    ev.Content,
		"tool_name":  ev.ToolName,
		"cwd":        ev.Cwd,
	}
}
