package hook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/plint-dev/plint/internal/event"
)

// Mapper translates one IDE's hook payload into the normalized event and
// renders decisions back in that IDE's response dialect. The engine itself
// never sees IDE-specific shapes.
type Mapper interface {
	// Name is the source identifier recorded on mapped events.
	Name() string

	// MapEvent parses a raw payload into a normalized event. Payloads the
	// mapper cannot classify come back with KindUnknown, not an error;
	// errors mean the payload was not even valid JSON.
	MapEvent(raw []byte) (*event.Event, error)

	// FormatResponse renders a decision as the JSON the IDE expects on
	// stdout.
	FormatResponse(d *Decision) (string, error)
}

// ForSource returns the mapper for a source name. Unrecognized names get
// the generic mapper, so an unfamiliar IDE degrades to pass-through
// mapping instead of failing.
func ForSource(name string) Mapper {
	switch strings.ToLower(name) {
	case "claude", "claude-code":
		return &ClaudeMapper{}
	case "windsurf":
		return &WindsurfMapper{}
	case "kiro":
		return &KiroMapper{}
	default:
		return &GenericMapper{}
	}
}

// claudeInput is the hook payload Claude Code writes to stdin.
type claudeInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`
	ToolName       string `json:"tool_name"`
	ToolInput      struct {
		Command  string `json:"command"`
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
		NewText  string `json:"new_string"`
	} `json:"tool_input"`
	Prompt  string `json:"prompt"`
	Message string `json:"message"`
}

// ClaudeMapper handles Claude Code's hook protocol.
type ClaudeMapper struct{}

func (m *ClaudeMapper) Name() string { return "claude" }

func (m *ClaudeMapper) MapEvent(raw []byte) (*event.Event, error) {
	var in claudeInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("invalid claude payload: %w", err)
	}

	ev := &event.Event{
		Kind:      m.kindFor(in),
		Source:    m.Name(),
		SessionID: in.SessionID,
		Timestamp: time.Now().UTC(),
		Cwd:       in.Cwd,
		FilePath:  in.ToolInput.FilePath,
		Command:   in.ToolInput.Command,
		ToolName:  in.ToolName,
	}
	switch {
	case in.ToolInput.Content != "":
		ev.Content = in.ToolInput.Content
	case in.ToolInput.NewText != "":
		ev.Content = in.ToolInput.NewText
	case in.Prompt != "":
		ev.Content = in.Prompt
	case in.Message != "":
		ev.Content = in.Message
	}
	return ev, nil
}

// kindFor refines Claude's coarse PreToolUse/PostToolUse into the
// file/command kinds the rule triggers distinguish, keyed on the tool.
func (m *ClaudeMapper) kindFor(in claudeInput) event.Kind {
	pre := in.HookEventName == "PreToolUse"
	post := in.HookEventName == "PostToolUse"
	if pre || post {
		switch in.ToolName {
		case "Bash":
			if pre {
				return event.KindPreRunCommand
			}
			return event.KindPostRunCommand
		case "Write", "Edit", "MultiEdit", "NotebookEdit":
			if pre {
				return event.KindPreWriteCode
			}
			return event.KindPostWriteCode
		case "Read", "Glob", "Grep":
			if pre {
				return event.KindPreReadCode
			}
			return event.KindPostReadCode
		}
		if pre {
			return event.KindPreToolUse
		}
		return event.KindPostToolUse
	}

	switch in.HookEventName {
	case "SessionStart":
		return event.KindSessionStart
	case "SessionEnd":
		return event.KindSessionEnd
	case "UserPromptSubmit":
		return event.KindPreUserPrompt
	case "Notification":
		return event.KindNotification
	case "PermissionRequest":
		return event.KindPermissionRequest
	case "Stop":
		return event.KindStop
	case "SubagentStop":
		return event.KindSubagentStop
	}
	return event.KindUnknown
}

func (m *ClaudeMapper) FormatResponse(d *Decision) (string, error) {
	type specificOutput struct {
		HookEventName string         `json:"hookEventName"`
		UpdatedInput  map[string]any `json:"updatedInput,omitempty"`
	}
	type response struct {
		Continue           *bool           `json:"continue,omitempty"`
		StopReason         string          `json:"stopReason,omitempty"`
		SystemMessage      string          `json:"systemMessage,omitempty"`
		HookSpecificOutput *specificOutput `json:"hookSpecificOutput,omitempty"`
	}

	var resp response
	switch d.Verdict {
	case VerdictDeny:
		no := false
		resp.Continue = &no
		resp.StopReason = d.Message
	case VerdictWarn:
		resp.SystemMessage = d.Message
	case VerdictAllow:
		if d.Message != "" {
			resp.SystemMessage = d.Message
		}
	}
	if d.RewrittenCommand != "" && d.Verdict != VerdictDeny {
		resp.HookSpecificOutput = &specificOutput{
			HookEventName: "PreToolUse",
			UpdatedInput:  map[string]any{"command": d.RewrittenCommand},
		}
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// windsurfInput is the flat payload Windsurf's cascade hooks emit.
type windsurfInput struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Workspace string `json:"workspace"`
	Tool      string `json:"tool"`
	Command   string `json:"command"`
	File      string `json:"file"`
	Text      string `json:"text"`
}

// WindsurfMapper handles Windsurf's hook payloads, which already use
// snake_case lifecycle names close to the normalized kinds.
type WindsurfMapper struct{}

func (m *WindsurfMapper) Name() string { return "windsurf" }

func (m *WindsurfMapper) MapEvent(raw []byte) (*event.Event, error) {
	var in windsurfInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("invalid windsurf payload: %w", err)
	}
	return &event.Event{
		Kind:      event.ParseKind(in.Event),
		Source:    m.Name(),
		SessionID: in.SessionID,
		Timestamp: time.Now().UTC(),
		Cwd:       in.Workspace,
		FilePath:  in.File,
		Command:   in.Command,
		Content:   in.Text,
		ToolName:  in.Tool,
	}, nil
}

func (m *WindsurfMapper) FormatResponse(d *Decision) (string, error) {
	resp := map[string]any{"action": string(d.Verdict)}
	if d.Message != "" {
		resp["message"] = d.Message
	}
	if d.RewrittenCommand != "" && d.Verdict != VerdictDeny {
		resp["command"] = d.RewrittenCommand
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// kiroInput is Kiro's agent-hook payload.
type kiroInput struct {
	HookType string `json:"hookType"`
	Session  string `json:"sessionId"`
	Root     string `json:"workspaceRoot"`
	Action   struct {
		Type    string `json:"type"`
		Command string `json:"command"`
		Path    string `json:"path"`
		Content string `json:"content"`
	} `json:"action"`
}

// KiroMapper handles Kiro's camelCase agent-hook payloads.
type KiroMapper struct{}

func (m *KiroMapper) Name() string { return "kiro" }

var kiroKinds = map[string]event.Kind{
	"agentSpawn":       event.KindSessionStart,
	"agentStop":        event.KindSessionEnd,
	"preShellExecute":  event.KindPreRunCommand,
	"postShellExecute": event.KindPostRunCommand,
	"preFileWrite":     event.KindPreWriteCode,
	"postFileWrite":    event.KindPostWriteCode,
	"preFileRead":      event.KindPreReadCode,
	"postFileRead":     event.KindPostReadCode,
	"userPrompt":       event.KindPreUserPrompt,
}

func (m *KiroMapper) MapEvent(raw []byte) (*event.Event, error) {
	var in kiroInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("invalid kiro payload: %w", err)
	}
	kind, ok := kiroKinds[in.HookType]
	if !ok {
		kind = event.KindUnknown
	}
	return &event.Event{
		Kind:      kind,
		Source:    m.Name(),
		SessionID: in.Session,
		Timestamp: time.Now().UTC(),
		Cwd:       in.Root,
		FilePath:  in.Action.Path,
		Command:   in.Action.Command,
		Content:   in.Action.Content,
		ToolName:  in.Action.Type,
	}, nil
}

func (m *KiroMapper) FormatResponse(d *Decision) (string, error) {
	resp := map[string]any{
		"decision": string(d.Verdict),
	}
	if d.Message != "" {
		resp["reason"] = d.Message
	}
	if d.RewrittenCommand != "" && d.Verdict != VerdictDeny {
		resp["updatedCommand"] = d.RewrittenCommand
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// GenericMapper accepts the normalized event shape directly, for IDEs or
// scripts that speak it natively.
type GenericMapper struct{}

func (m *GenericMapper) Name() string { return "generic" }

func (m *GenericMapper) MapEvent(raw []byte) (*event.Event, error) {
	var ev event.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if ev.Kind == "" || !event.Known(string(ev.Kind)) {
		ev.Kind = event.KindUnknown
	}
	if ev.Source == "" {
		ev.Source = m.Name()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return &ev, nil
}

func (m *GenericMapper) FormatResponse(d *Decision) (string, error) {
	out, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
