// Package event defines the normalized lifecycle event shared by every IDE
// mapper and consumed by the decision engine. Mappers translate IDE-specific
// payloads into this shape; the engine never branches on the source name.
package event

import "time"

// Kind is a closed enumeration of lifecycle moments. Unmapped payloads fall
// back to KindUnknown rather than carrying free-form strings around, so
// trigger matching stays typo-proof.
type Kind string

const (
	// Session
	KindSessionStart Kind = "session_start"
	KindSessionEnd   Kind = "session_end"

	// Tool use
	KindPreToolUse  Kind = "pre_tool_use"
	KindPostToolUse Kind = "post_tool_use"

	// File operations
	KindPreReadCode   Kind = "pre_read_code"
	KindPostReadCode  Kind = "post_read_code"
	KindPreWriteCode  Kind = "pre_write_code"
	KindPostWriteCode Kind = "post_write_code"

	// Command execution
	KindPreRunCommand  Kind = "pre_run_command"
	KindPostRunCommand Kind = "post_run_command"

	// Interaction
	KindPreUserPrompt     Kind = "pre_user_prompt"
	KindPostModelResponse Kind = "post_model_response"

	// Notifications / permissions
	KindNotification      Kind = "notification"
	KindPermissionRequest Kind = "permission_request"

	// Control
	KindStop         Kind = "stop"
	KindSubagentStop Kind = "subagent_stop"

	KindUnknown Kind = "unknown"
)

// Kinds lists every known kind, in declaration order.
var Kinds = []Kind{
	KindSessionStart, KindSessionEnd,
	KindPreToolUse, KindPostToolUse,
	KindPreReadCode, KindPostReadCode,
	KindPreWriteCode, KindPostWriteCode,
	KindPreRunCommand, KindPostRunCommand,
	KindPreUserPrompt, KindPostModelResponse,
	KindNotification, KindPermissionRequest,
	KindStop, KindSubagentStop,
}

// ParseKind maps a snake_case name to its Kind, or KindUnknown.
func ParseKind(s string) Kind {
	for _, k := range Kinds {
		if string(k) == s {
			return k
		}
	}
	return KindUnknown
}

// Known reports whether s names a kind other than the unknown fallback.
func Known(s string) bool {
	return ParseKind(s) != KindUnknown
}

// Event is the normalized lifecycle event. It is constructed once by a
// mapper and read-only afterwards.
type Event struct {
	Kind      Kind      `json:"event_kind"`
	Source    string    `json:"source"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Cwd is the project root the event happened in, when the payload
	// carries one.
	Cwd string `json:"cwd,omitempty"`

	// FilePath is set for file-oriented events (read/write code).
	FilePath string `json:"file_path,omitempty"`

	// Command is set for command-oriented events (run command, Bash tool).
	Command string `json:"command,omitempty"`

	// Content is set when the payload carries text to inspect: file content
	// being written, a user prompt, a model response.
	Content string `json:"content,omitempty"`

	// ToolName is the IDE tool involved, when applicable.
	ToolName string `json:"tool_name,omitempty"`
}

// Payload returns the text a content rule should inspect for this event:
// content when present, otherwise the command. ok is false when the event
// carries neither.
func (e *Event) Payload() (text string, ok bool) {
	if e.Content != "" {
		return e.Content, true
	}
	if e.Command != "" {
		return e.Command, true
	}
	return "", false
}
