package openai

import (
	"encoding/json"
	"fmt"
)

// ChatMessage is one request message in the standard chat format.
type ChatMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []StreamToolCall `json:"tool_calls,omitempty"`
}

// FunctionDefinition describes a callable function tool. Parameters is a raw
// JSON Schema blob; it is carried to the server verbatim, never validated.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Tool declares one tool in a chat request.
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// ToolChoice selects how the model may use tools. It is a closed union:
// ToolChoiceAuto, ToolChoiceNone or ToolChoiceFunction.
type ToolChoice interface {
	toolChoice()
	json.Marshaler
}

// ToolChoiceAuto lets the model decide whether to call a tool.
type ToolChoiceAuto struct{}

// ToolChoiceNone forbids tool calls.
type ToolChoiceNone struct{}

// ToolChoiceFunction forces a call to the named function.
type ToolChoiceFunction struct {
	Name string
}

func (ToolChoiceAuto) toolChoice()     {}
func (ToolChoiceNone) toolChoice()     {}
func (ToolChoiceFunction) toolChoice() {}

// MarshalJSON renders the wire form "auto".
func (ToolChoiceAuto) MarshalJSON() ([]byte, error) { return json.Marshal("auto") }

// MarshalJSON renders the wire form "none".
func (ToolChoiceNone) MarshalJSON() ([]byte, error) { return json.Marshal("none") }

// MarshalJSON renders the object form selecting a specific function.
func (t ToolChoiceFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":     "function",
		"function": map[string]string{"name": t.Name},
	})
}

// ChatCompletionRequest is the request body for streaming chat completions.
// Stream is set by the client.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Tools       []Tool        `json:"tools,omitempty"`
	ToolChoice  ToolChoice    `json:"tool_choice,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// CompletionRequest is the request body for the raw completion endpoint used
// in Harmony mode. Prompt carries the rendered conversation wire text.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream"`
}

// StreamToolCall is a tool call assembled (or being assembled) from streamed
// fragments. Index is the stable key fragments were merged under.
type StreamToolCall struct {
	Index    int                `json:"index"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function StreamToolFunction `json:"function"`
}

// StreamToolFunction holds the function name and the argument text
// accumulated so far. Arguments is a JSON string under construction; it must
// not be parsed until the call is judged complete.
type StreamToolFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Finish reasons reported on StreamEvent.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
)

// TransportError wraps network and HTTP-level failures. It is never retried
// by this layer.
type TransportError struct {
	Op         string
	StatusCode int // zero when the request never got a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("openai: %s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("openai: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
