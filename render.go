package harmony

import "strings"

// RenderMessage produces the wire text for a single message:
//
//	<|start|>ROLE[ <|channel|> CHANNEL][ to=RECIPIENT][ <|constrain|> TYPE]<|message|>CONTENT<|end|>
//
// Header fragments appear in that fixed order, each separated by a single
// space. The output is a bit-exact contract; content is embedded verbatim
// with no escaping, so callers must not place literal markers inside it.
func RenderMessage(msg Message) string {
	var sb strings.Builder
	renderMessageInto(msg, &sb)
	return sb.String()
}

func renderMessageInto(msg Message, sb *strings.Builder) {
	sb.Grow(len(MarkerStart) + len(MarkerMessage) + len(MarkerEnd) + estimateMessageSize(msg))
	sb.WriteString(MarkerStart)
	sb.WriteString(string(msg.Role))
	if msg.Channel != "" {
		sb.WriteByte(' ')
		sb.WriteString(MarkerChannel)
		sb.WriteByte(' ')
		sb.WriteString(msg.Channel)
	}
	if msg.Recipient != "" {
		sb.WriteString(" to=")
		sb.WriteString(msg.Recipient)
	}
	if msg.ContentType != "" {
		sb.WriteByte(' ')
		sb.WriteString(MarkerConstrain)
		sb.WriteByte(' ')
		sb.WriteString(msg.ContentType)
	}
	sb.WriteString(MarkerMessage)
	sb.WriteString(msg.Content)
	sb.WriteString(MarkerEnd)
}

// RenderConversation renders every message in sequence. When
// AutoDropAnalysis is enabled (the default) and the last assistant message is
// on the final channel, analysis messages preceding the first final message
// are omitted, matching how completed turns are replayed to the model.
func RenderConversation(conv Conversation, cfg *RenderConversationConfig) string {
	autoDrop := true
	if cfg != nil {
		autoDrop = cfg.AutoDropAnalysis
	}

	lastAssistantFinal := false
	firstFinal := -1
	total := 0
	for i := range conv.Messages {
		m := conv.Messages[i]
		if m.Channel == ChannelFinal && firstFinal == -1 {
			firstFinal = i
		}
		if m.Role == RoleAssistant {
			lastAssistantFinal = m.Channel == ChannelFinal
		}
		total += estimateMessageSize(m) + 40
	}
	shouldDrop := autoDrop && lastAssistantFinal

	var sb strings.Builder
	sb.Grow(total)
	for i := range conv.Messages {
		m := conv.Messages[i]
		if shouldDrop && firstFinal >= 0 && i < firstFinal && m.Channel == ChannelAnalysis {
			continue
		}
		renderMessageInto(m, &sb)
	}
	return sb.String()
}

// RenderConversationForCompletion renders a conversation and appends a
// <|start|>NEXTROLE header with no trailing tokens, prompting the model to
// complete the next message as that role.
func RenderConversationForCompletion(conv Conversation, next Role, cfg *RenderConversationConfig) string {
	var sb strings.Builder
	sb.WriteString(RenderConversation(conv, cfg))
	sb.WriteString(MarkerStart)
	sb.WriteString(string(next))
	return sb.String()
}

// RenderConversationForTraining renders a conversation replacing the trailing
// <|end|> with <|return|> when the last message is assistant:final.
func RenderConversationForTraining(conv Conversation, cfg *RenderConversationConfig) string {
	out := RenderConversation(conv, cfg)
	if len(conv.Messages) == 0 {
		return out
	}
	last := conv.Messages[len(conv.Messages)-1]
	if last.Role == RoleAssistant && last.Channel == ChannelFinal && strings.HasSuffix(out, MarkerEnd) {
		out = out[:len(out)-len(MarkerEnd)] + MarkerReturn
	}
	return out
}

func estimateMessageSize(msg Message) int {
	return len(msg.Role) + len(msg.Channel) + len(msg.Recipient) + len(msg.ContentType) + len(msg.Content) + len(MarkerChannel) + len(MarkerConstrain) + 8
}
