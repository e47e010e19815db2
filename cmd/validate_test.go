package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/plint-dev/plint/internal/testutil"
	"github.com/spf13/cobra"
)

const testSlice = `
[metadata]
name = "security"

[[rules.credentials]]
name = "aws_key"
pattern = "AKIA[0-9A-Z]{16}"
severity = "critical"
message = "AWS key"

[[rules.credentials]]
name = "weak_hash"
kind = "call"
functions = ["md5"]
severity = "warning"
message = "weak hash"
`

const testProfile = `
slices = ["security"]

[metadata]
name = "general"

[activation]
globs = ["**/*"]
`

func runCommand(t *testing.T, run func(cmd *cobra.Command, args []string) error, args []string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := run(cmd, args); err != nil {
		t.Fatalf("command error: %v", err)
	}
	return buf.String()
}

func TestRunValidate(t *testing.T) {
	testutil.SetupConfigDir(t, map[string]string{
		"config.toml":                 "[policy]\nmode = \"denylist\"\ndisabled_checks = [\"weak_hash\"]\n",
		"rules/slices/security.toml":  testSlice,
		"rules/profiles/general.toml": testProfile,
	})
	configDir = ""

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"main.go": "package main\n"})

	output := runCommand(t, runValidate, []string{root})

	for _, want := range []string{
		"Policy mode: denylist",
		"general",
		"aws_key",
		"Disabled: weak_hash",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "weak_hash  ") {
		t.Errorf("disabled rule listed as runnable:\n%s", output)
	}
}

func TestRunValidateEmptyConfig(t *testing.T) {
	testutil.SetupConfigDir(t, nil)
	configDir = ""

	output := runCommand(t, runValidate, []string{t.TempDir()})
	if !strings.Contains(output, "Rules that would run (0)") {
		t.Errorf("empty config should compose zero rules:\n%s", output)
	}
}

func TestValidateCmdUsage(t *testing.T) {
	if !strings.HasPrefix(validateCmd.Use, "validate") {
		t.Errorf("validateCmd.Use = %q", validateCmd.Use)
	}
	if validateCmd.Short == "" || validateCmd.Long == "" {
		t.Error("validateCmd help text should not be empty")
	}
}
