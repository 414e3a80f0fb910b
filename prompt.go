package harmony

import "strings"

// RenderSystemPrompt renders the system message body: identity, dates,
// reasoning effort, tools section headers and channel metadata. The result
// is used as the Content of a system-role message. hasFunctionTools notes
// whether the conversation declares a "functions" namespace, which adds the
// commentary routing line.
func RenderSystemPrompt(sys SystemContent, hasFunctionTools bool) string {
	var body strings.Builder
	addSection := func(write func(*strings.Builder)) {
		if body.Len() > 0 {
			body.WriteString("\n\n")
		}
		write(&body)
	}

	mid := "You are ChatGPT, a large language model trained by OpenAI."
	if sys.ModelIdentity != nil && *sys.ModelIdentity != "" {
		mid = *sys.ModelIdentity
	}
	kc := "2024-06"
	if sys.KnowledgeCutoff != nil && *sys.KnowledgeCutoff != "" {
		kc = *sys.KnowledgeCutoff
	}
	addSection(func(sb *strings.Builder) {
		sb.WriteString(mid)
		sb.WriteByte('\n')
		sb.WriteString("Knowledge cutoff: ")
		sb.WriteString(kc)
		if sys.ConversationStartDate != nil && *sys.ConversationStartDate != "" {
			sb.WriteByte('\n')
			sb.WriteString("Current date: ")
			sb.WriteString(*sys.ConversationStartDate)
		}
	})

	eff := "medium"
	if sys.ReasoningEffort != nil {
		eff = strings.ToLower(string(*sys.ReasoningEffort))
	}
	addSection(func(sb *strings.Builder) {
		sb.WriteString("Reasoning: ")
		sb.WriteString(eff)
	})

	if len(sys.Tools) > 0 {
		addSection(func(sb *strings.Builder) {
			writeToolsSection(sb, sys.Tools)
		})
	}

	chanCfg := sys.ChannelConfig
	if chanCfg == nil {
		chanCfg = &ChannelConfig{ValidChannels: []string{ChannelAnalysis, ChannelCommentary, ChannelFinal}, ChannelRequired: true}
	}
	if len(chanCfg.ValidChannels) > 0 {
		channels := strings.Join(chanCfg.ValidChannels, ", ")
		addSection(func(sb *strings.Builder) {
			sb.WriteString("# Valid channels: ")
			sb.WriteString(channels)
			sb.WriteString(".")
			if chanCfg.ChannelRequired {
				sb.WriteString(" Channel must be included for every message.")
			}
			if hasFunctionTools {
				sb.WriteString("\nCalls to these tools must go to the commentary channel: 'functions'.")
			}
		})
	}

	return body.String()
}

// RenderDeveloperPrompt renders developer instructions and the tools section
// into the developer message body.
func RenderDeveloperPrompt(dev DeveloperContent) string {
	var body strings.Builder
	if dev.Instructions != nil && *dev.Instructions != "" {
		body.WriteString("# Instructions\n\n")
		body.WriteString(*dev.Instructions)
	}
	if len(dev.Tools) > 0 {
		if body.Len() > 0 {
			body.WriteString("\n\n")
		}
		writeToolsSection(&body, dev.Tools)
	}
	return body.String()
}

// HasFunctionTools reports whether a "functions" namespace with at least one
// tool is declared, for the system prompt's routing line.
func HasFunctionTools(tools map[string]ToolNamespaceConfig) bool {
	ns, ok := tools["functions"]
	return ok && len(ns.Tools) > 0
}
