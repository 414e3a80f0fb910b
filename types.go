package harmony

import (
	"encoding/json"
)

// Role identifies the author class of a message in a Harmony conversation.
// It matches the Harmony prompt format (user, assistant, system, developer, tool).
type Role string

// Well-known roles supported by the Harmony format.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleTool      Role = "tool"
)

// Channel values an assistant message may carry. Absence of a channel means
// no channel was declared.
const (
	ChannelAnalysis   = "analysis"
	ChannelCommentary = "commentary"
	ChannelFinal      = "final"
)

// Message represents a single Harmony turn: a header (role plus optional
// channel, recipient and content-type) and an opaque text payload. Recipient
// and ContentType are only meaningful on commentary-channel messages; the
// model does not enforce that, it is a caller contract.
type Message struct {
	Role        Role   `json:"role"`
	Channel     string `json:"channel,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}

// Conversation is an ordered list of messages. Rendering concatenates the
// messages in sequence; the list is only ever appended to.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// Append adds messages to the end of the conversation.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
}

// FromMessages overwrites the conversation with the given messages.
func (c *Conversation) FromMessages(msgs []Message) {
	c.Messages = append([]Message{}, msgs...)
}

// RenderConversationConfig controls rendering behavior (e.g., analysis dropping).
type RenderConversationConfig struct {
	AutoDropAnalysis bool `json:"auto_drop_analysis"`
}

// ReasoningEffort expresses the desired level of reasoning for the model.
type ReasoningEffort string

// Reasoning effort values.
const (
	ReasoningLow    ReasoningEffort = "low"
	ReasoningMedium ReasoningEffort = "medium"
	ReasoningHigh   ReasoningEffort = "high"
)

// ChannelConfig configures valid channels and whether a channel is required.
type ChannelConfig struct {
	ValidChannels   []string `json:"valid_channels"`
	ChannelRequired bool     `json:"channel_required"`
}

// ToolDescription describes an individual tool and its JSON Schema parameters.
type ToolDescription struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	// parsed caches derive from Parameters; kept behind a pointer so copying
	// ToolDescription values does not copy synchronization primitives.
	parsed *toolParsedCache `json:"-"`
}

// ToolNamespaceConfig groups multiple tools under a namespace (e.g. "functions").
type ToolNamespaceConfig struct {
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Tools       []ToolDescription `json:"tools"`
}

// SystemContent encodes system instructions and metadata for the conversation.
// It is rendered to message text with RenderSystemPrompt.
type SystemContent struct {
	ModelIdentity         *string                        `json:"model_identity,omitempty"`
	ReasoningEffort       *ReasoningEffort               `json:"reasoning_effort,omitempty"`
	Tools                 map[string]ToolNamespaceConfig `json:"tools,omitempty"`
	ConversationStartDate *string                        `json:"conversation_start_date,omitempty"`
	KnowledgeCutoff       *string                        `json:"knowledge_cutoff,omitempty"`
	ChannelConfig         *ChannelConfig                 `json:"channel_config,omitempty"`
}

// DeveloperContent carries developer instructions and tool declarations.
// It is rendered to message text with RenderDeveloperPrompt.
type DeveloperContent struct {
	Instructions *string                        `json:"instructions,omitempty"`
	Tools        map[string]ToolNamespaceConfig `json:"tools,omitempty"`
}

// ToolCallMessage builds the assistant commentary message that invokes a
// function tool. Arguments is the JSON argument payload as produced by the
// model; it is carried verbatim, not validated.
func ToolCallMessage(name, arguments string) Message {
	return Message{
		Role:        RoleAssistant,
		Channel:     ChannelCommentary,
		Recipient:   "functions." + name,
		ContentType: "json",
		Content:     arguments,
	}
}

// ToolResultMessage builds the tool reply that answers a prior tool call.
// The tool identity ("functions.NAME") takes the role position of the header.
func ToolResultMessage(name, result string) Message {
	return Message{
		Role:      Role("functions." + name),
		Channel:   ChannelCommentary,
		Recipient: string(RoleAssistant),
		Content:   result,
	}
}
