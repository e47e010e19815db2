// Package hooklog records every hook decision to day-stamped JSONL files.
// Logging failures never affect the decision: a hook that cannot write its
// log still answers the IDE.
package hooklog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/plint-dev/plint/internal/constants"
	"github.com/plint-dev/plint/internal/logger"
)

// TimestampFormat is the format used for entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.0Z07:00"

// dayFormat names the per-day log files: hook-2006-01-02.jsonl.
const dayFormat = "2006-01-02"

// Entry is one recorded hook decision.
type Entry struct {
	ID               string  `json:"id"`
	Timestamp        string  `json:"timestamp"`
	EventKind        string  `json:"event_kind"`
	Source           string  `json:"source"`
	SessionID        string  `json:"session_id,omitempty"`
	FilePath         string  `json:"file_path,omitempty"`
	ToolName         string  `json:"tool_name,omitempty"`
	Command          string  `json:"command,omitempty"`
	Decision         string  `json:"decision"`
	Rule             string  `json:"rule,omitempty"`
	Message          string  `json:"message,omitempty"`
	RewrittenCommand string  `json:"rewritten_command,omitempty"`
	DurationMs       float64 `json:"duration_ms"`
}

var (
	mu      sync.Mutex
	logDir  string
	enabled bool
)

// DefaultDir returns the default log directory (~/.local/share/plint/logs).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.XDGDataSubdir, constants.AppName, constants.HookLogSubdir), nil
}

// Init enables hook logging into dir, or the default directory when dir is
// empty. Pass disable=true to turn logging off entirely.
func Init(dir string, disable bool) error {
	mu.Lock()
	defer mu.Unlock()

	if disable {
		enabled = false
		return nil
	}

	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		return err
	}

	logDir = dir
	enabled = true
	logger.Debug("hook logging initialized", "dir", dir)
	return nil
}

// Reset disables logging and forgets the directory. Used for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	logDir = ""
	enabled = false
}

// Log appends one entry to today's log file. A no-op when logging is
// disabled. Assigns the entry ID and timestamp.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || logDir == "" {
		return nil
	}

	now := time.Now().UTC()
	entry.ID = uuid.NewString()
	entry.Timestamp = now.Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := filepath.Join(logDir, "hook-"+now.Format(dayFormat)+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// Compact gzips every day file older than today and removes the originals.
// Already-compressed files are left alone. Safe to run repeatedly.
func Compact() error {
	mu.Lock()
	dir := logDir
	mu.Unlock()
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return err
		}
	}

	today := "hook-" + time.Now().UTC().Format(dayFormat) + ".jsonl"
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") || name == today {
			continue
		}
		if err := gzipFile(filepath.Join(dir, name)); err != nil {
			logger.Warn("failed to compact log file", "file", name, "error", err)
			continue
		}
		logger.Debug("compacted log file", "file", name)
	}
	return nil
}

func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(path + ".gz")
		return err
	}
	return os.Remove(path)
}

// Recent returns the most recent entries across plain and compacted day
// files, newest first, capped at limit (0 means no cap).
func Recent(dir string, limit int) ([]Entry, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasPrefix(name, "hook-") {
			continue
		}
		if strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".jsonl.gz") {
			names = append(names, name)
		}
	}
	// Day-stamped names sort chronologically; walk newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var out []Entry
	for _, name := range names {
		entries, err := readDayFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("skipping unreadable log file", "file", name, "error", err)
			continue
		}
		// Entries within a file are oldest first; flip them.
		for i := len(entries) - 1; i >= 0; i-- {
			out = append(out, entries[i])
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func readDayFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			// A torn tail line from a crashed writer is expected; skip it.
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// Stats summarizes the recorded decisions.
type Stats struct {
	Total      int            `json:"total"`
	ByDecision map[string]int `json:"by_decision"`
	ByKind     map[string]int `json:"by_kind"`
	BySource   map[string]int `json:"by_source"`
	ByRule     map[string]int `json:"by_rule"`

	// MeanDurationMs is the average evaluation time across all entries.
	MeanDurationMs float64 `json:"mean_duration_ms"`
}

// Summarize computes stats over every entry in dir.
func Summarize(dir string) (*Stats, error) {
	entries, err := Recent(dir, 0)
	if err != nil {
		return nil, err
	}

	s := &Stats{
		ByDecision: make(map[string]int),
		ByKind:     make(map[string]int),
		BySource:   make(map[string]int),
		ByRule:     make(map[string]int),
	}
	var totalMs float64
	for _, e := range entries {
		s.Total++
		s.ByDecision[e.Decision]++
		s.ByKind[e.EventKind]++
		s.BySource[e.Source]++
		if e.Rule != "" {
			s.ByRule[e.Rule]++
		}
		totalMs += e.DurationMs
	}
	if s.Total > 0 {
		s.MeanDurationMs = totalMs / float64(s.Total)
	}
	return s, nil
}

// Format renders stats for terminal output.
func (s *Stats) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total decisions: %d\n", s.Total)
	fmt.Fprintf(&b, "Mean duration:   %.1fms\n", s.MeanDurationMs)
	writeCounts := func(title string, m map[string]int) {
		if len(m) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if m[keys[i]] != m[keys[j]] {
				return m[keys[i]] > m[keys[j]]
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			fmt.Fprintf(&b, "  %-24s %d\n", k, m[k])
		}
	}
	writeCounts("By decision", s.ByDecision)
	writeCounts("By event kind", s.ByKind)
	writeCounts("By source", s.BySource)
	writeCounts("By rule", s.ByRule)
	return b.String()
}
