package models

type AgentMessage struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

// RunRequest is a single agent invocation: system instructions, a context
// object rendered alongside them, and the user prompt.
type RunRequest struct {
	SessionID    string
	Instructions []string
	Context      map[string]any
	Prompt       string
	Tools        []string
}

// RunResult holds the final text and every message produced during the run,
// starting with the user prompt.
type RunResult struct {
	Content  string
	Messages []AgentMessage
}

type AskRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type AskResponse struct {
	Reply string `json:"reply"`
}
