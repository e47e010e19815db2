package hook

import (
	"reflect"
	"testing"
)

func TestSplitCommandChain(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single command", "ls -la", []string{"ls -la"}},
		{"and chain", "npm install && npm test", []string{"npm install", "npm test"}},
		{"or chain", "make || echo failed", []string{"make", "echo failed"}},
		{"semicolons", "cd /tmp; ls; pwd", []string{"cd /tmp", "ls", "pwd"}},
		{"pipe", "cat log | grep error", []string{"cat log", "grep error"}},
		{"background", "sleep 5 & echo done", []string{"sleep 5", "echo done"}},
		{"quoted separator", `echo "a && b"`, []string{`echo "a && b"`}},
		{"subshell", "(cd /tmp && rm -rf junk)", []string{"cd /tmp", "rm -rf junk"}},
		{"if clause", "if true; then npm install; fi", []string{"true", "npm install"}},
		{"mixed operators", "a && b | c; d", []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitCommandChain(tt.cmd)
			if err != nil {
				t.Fatalf("SplitCommandChain(%q) error: %v", tt.cmd, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCommandChain(%q) = %v, want %v", tt.cmd, got, tt.want)
			}
		})
	}
}

func TestSplitCommandChainUnparseable(t *testing.T) {
	if _, err := SplitCommandChain("if true; then"); err != ErrUnparseable {
		t.Errorf("error = %v, want ErrUnparseable", err)
	}
}
