package ruleset

import (
	"testing"
)

func TestParseSlice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, doc *SliceDocument)
	}{
		{
			name: "minimal rule with defaults",
			input: `
[metadata]
name = "security"

[[rules.credentials]]
name = "aws_key"
pattern = "AKIA[0-9A-Z]{16}"
`,
			check: func(t *testing.T, doc *SliceDocument) {
				defs := doc.Definitions()
				if len(defs) != 1 {
					t.Fatalf("expected 1 rule, got %d", len(defs))
				}
				if defs[0].Kind != KindPattern {
					t.Errorf("default kind = %q, want pattern", defs[0].Kind)
				}
				if defs[0].Severity != SeverityWarning {
					t.Errorf("default severity = %q, want warning", defs[0].Severity)
				}
			},
		},
		{
			name: "message fallback from messages table",
			input: `
[metadata]
name = "security"

[messages]
aws_key = "AWS key found"

[[rules.credentials]]
name = "aws_key"
pattern = "AKIA"
`,
			check: func(t *testing.T, doc *SliceDocument) {
				defs := doc.Definitions()
				if defs[0].Message != "AWS key found" {
					t.Errorf("message = %q, want fallback from [messages]", defs[0].Message)
				}
			},
		},
		{
			name: "explicit message wins over messages table",
			input: `
[metadata]
name = "security"

[messages]
aws_key = "fallback"

[[rules.credentials]]
name = "aws_key"
pattern = "AKIA"
message = "explicit"
`,
			check: func(t *testing.T, doc *SliceDocument) {
				if got := doc.Definitions()[0].Message; got != "explicit" {
					t.Errorf("message = %q, want explicit", got)
				}
			},
		},
		{
			name:    "missing metadata name",
			input:   "[[rules.x]]\nname = \"a\"\npattern = \"b\"\n",
			wantErr: true,
		},
		{
			name: "unnamed rule",
			input: `
[metadata]
name = "security"

[[rules.credentials]]
pattern = "AKIA"
`,
			wantErr: true,
		},
		{
			name:    "invalid toml",
			input:   "[metadata\nname = ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseSlice([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, doc)
			}
		})
	}
}

func TestDefinitionsOrdering(t *testing.T) {
	input := `
[metadata]
name = "mixed"

[[rules.zeta]]
name = "z1"
pattern = "a"

[[rules.alpha]]
name = "a1"
pattern = "b"

[[rules.alpha]]
name = "a2"
pattern = "c"
`
	doc, err := ParseSlice([]byte(input))
	if err != nil {
		t.Fatal(err)
	}

	// Categories sort by name; rules keep document order within a category.
	want := []string{"a1", "a2", "z1"}
	defs := doc.Definitions()
	if len(defs) != len(want) {
		t.Fatalf("got %d definitions, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("defs[%d].Name = %q, want %q", i, defs[i].Name, name)
		}
	}
}

func TestParseProfile(t *testing.T) {
	input := `
slices = ["security"]

[metadata]
name = "web"

[activation]
indicators = ["package.json"]
globs = ["**/*.tsx"]

[checks]
disable = ["weak_hash"]
`
	doc, err := ParseProfile([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.Name != "web" {
		t.Errorf("name = %q, want web", doc.Metadata.Name)
	}
	if len(doc.Slices) != 1 || doc.Slices[0] != "security" {
		t.Errorf("slices = %v, want [security]", doc.Slices)
	}
	if len(doc.Activation.Indicators) != 1 || len(doc.Activation.Globs) != 1 {
		t.Errorf("activation not parsed: %+v", doc.Activation)
	}
	if len(doc.Checks.Disable) != 1 {
		t.Errorf("checks.disable = %v", doc.Checks.Disable)
	}
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"denylist", "[policy]\nmode = \"denylist\"\n", false},
		{"allowlist", "[policy]\nmode = \"allowlist\"\n", false},
		{"bad mode", "[policy]\nmode = \"blocklist\"\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOverride([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseOverride() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeverityRank(t *testing.T) {
	order := []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
	if Severity("fatal").Valid() {
		t.Error("unknown severity should not be valid")
	}
}
