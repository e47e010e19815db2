package ruleset

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// ParseSlice decodes a slice (or active-rule) document from TOML.
// Rules with an empty message fall back to the [messages] entry keyed by the
// rule name.
func ParseSlice(data []byte) (*SliceDocument, error) {
	var doc SliceDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if doc.Metadata.Name == "" {
		return nil, fmt.Errorf("missing metadata.name")
	}

	for cat, defs := range doc.Rules {
		for i := range defs {
			def := &defs[i]
			if def.Name == "" {
				return nil, fmt.Errorf("rule %d in category %q has no name", i, cat)
			}
			if def.Kind == "" {
				def.Kind = KindPattern
			}
			if def.Severity == "" {
				def.Severity = SeverityWarning
			}
			if def.Message == "" {
				def.Message = doc.Messages[def.Name]
			}
		}
	}

	return &doc, nil
}

// ParseProfile decodes a profile document from TOML.
func ParseProfile(data []byte) (*ProfileDocument, error) {
	var doc ProfileDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if doc.Metadata.Name == "" {
		return nil, fmt.Errorf("missing metadata.name")
	}
	return &doc, nil
}

// ParseOverride decodes the user override document from TOML.
func ParseOverride(data []byte) (*OverrideDocument, error) {
	var doc OverrideDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	switch doc.Policy.Mode {
	case "", "allowlist", "denylist":
	default:
		return nil, fmt.Errorf("invalid policy mode %q", doc.Policy.Mode)
	}
	return &doc, nil
}

// Definitions flattens the document's categories into one ordered sequence:
// categories in sorted name order, rules in document order within each.
// The ordering is what makes composition and tie-breaking deterministic.
func (d *SliceDocument) Definitions() []RuleDefinition {
	cats := make([]string, 0, len(d.Rules))
	for cat := range d.Rules {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var defs []RuleDefinition
	for _, cat := range cats {
		defs = append(defs, d.Rules[cat]...)
	}
	return defs
}

// RuleNames returns the set of rule names declared in the document.
func (d *SliceDocument) RuleNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, defs := range d.Rules {
		for i := range defs {
			names[defs[i].Name] = struct{}{}
		}
	}
	return names
}
