package hooklog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := Init(dir, false); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(Reset)
	return dir
}

func TestLogAndRecent(t *testing.T) {
	dir := setup(t)

	entries := []Entry{
		{EventKind: "pre_run_command", Source: "claude", Decision: "allow", DurationMs: 1.5},
		{EventKind: "pre_run_command", Source: "claude", Decision: "warn", Rule: "npm_in_pnpm_project", DurationMs: 2.0},
		{EventKind: "pre_write_code", Source: "kiro", Decision: "deny", Rule: "private_key", DurationMs: 0.5},
	}
	for _, e := range entries {
		if err := Log(e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Recent(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// Newest first.
	if got[0].Decision != "deny" || got[2].Decision != "allow" {
		t.Errorf("order wrong: %s ... %s", got[0].Decision, got[2].Decision)
	}
	for _, e := range got {
		if e.ID == "" || e.Timestamp == "" {
			t.Errorf("entry missing assigned id/timestamp: %+v", e)
		}
	}

	limited, err := Recent(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
}

func TestLogDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, true); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(Reset)

	if err := Log(Entry{Decision: "allow"}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("disabled logger wrote files")
	}
}

func TestCompact(t *testing.T) {
	dir := setup(t)

	// A past day's file plus today's.
	old := filepath.Join(dir, "hook-2020-01-01.jsonl")
	if err := os.WriteFile(old, []byte(`{"id":"x","decision":"allow","event_kind":"stop","duration_ms":1}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Log(Entry{EventKind: "pre_run_command", Decision: "warn"}); err != nil {
		t.Fatal(err)
	}

	if err := Compact(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old plain file still present after compaction")
	}
	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Errorf("compressed file missing: %v", err)
	}
	today := filepath.Join(dir, "hook-"+time.Now().UTC().Format(dayFormat)+".jsonl")
	if _, err := os.Stat(today); err != nil {
		t.Errorf("today's file must survive compaction: %v", err)
	}

	// Compressed entries still readable.
	got, err := Recent(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries across plain+gz, want 2", len(got))
	}

	// Idempotent.
	if err := Compact(); err != nil {
		t.Fatal(err)
	}
}

func TestSummarize(t *testing.T) {
	dir := setup(t)

	for _, e := range []Entry{
		{EventKind: "pre_run_command", Source: "claude", Decision: "allow", DurationMs: 1.0},
		{EventKind: "pre_run_command", Source: "claude", Decision: "deny", Rule: "hard", DurationMs: 3.0},
	} {
		if err := Log(e); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := Summarize(dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d", stats.Total)
	}
	if stats.ByDecision["deny"] != 1 || stats.ByDecision["allow"] != 1 {
		t.Errorf("by decision = %v", stats.ByDecision)
	}
	if stats.ByRule["hard"] != 1 {
		t.Errorf("by rule = %v", stats.ByRule)
	}
	if stats.MeanDurationMs != 2.0 {
		t.Errorf("mean duration = %f", stats.MeanDurationMs)
	}
}

func TestRecentSkipsTornLines(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "hook-2024-06-01.jsonl")
	content := `{"id":"a","decision":"allow","event_kind":"stop","duration_ms":1}` + "\n" + `{"id":"b","deci`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Recent(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("got %d entries, want 1 (torn tail skipped)", len(got))
	}
}
