package harmony

import "strings"

// normalizeHeader inserts spaces before meta markers that may appear adjacent
// to tokens so that simple whitespace splitting is reliable. Servers disagree
// on whether markers inside the header are space-separated.
func normalizeHeader(s string) string {
	if strings.Contains(s, MarkerChannel) {
		s = strings.TrimSpace(strings.ReplaceAll(s, MarkerChannel, " "+MarkerChannel))
	}
	if strings.Contains(s, MarkerConstrain) {
		s = strings.TrimSpace(strings.ReplaceAll(s, MarkerConstrain, " "+MarkerConstrain))
	}
	return s
}

// splitLeadingToken returns the first token up to a space or '<', and the
// remainder trimmed of leading whitespace.
func splitLeadingToken(s string) (string, string) {
	stop := len(s)
	for i, ch := range s {
		if ch == ' ' || ch == '<' {
			stop = i
			break
		}
	}
	leading := s[:stop]
	rem := ""
	if stop < len(s) {
		rem = strings.TrimSpace(s[stop:])
	}
	return leading, rem
}

// detectRole infers the role from the header's leading token. Anything that
// is not a known role name is a tool identity (e.g. "functions.get_weather").
func detectRole(roleToken string) Role {
	switch roleToken {
	case string(RoleUser):
		return RoleUser
	case string(RoleAssistant):
		return RoleAssistant
	case string(RoleSystem):
		return RoleSystem
	case string(RoleDeveloper):
		return RoleDeveloper
	case string(RoleTool):
		return RoleTool
	default:
		return RoleTool
	}
}

// markerValue returns the value following the given marker: spaces after the
// marker are skipped and the value runs until the next space or '<'.
func markerValue(s, marker string) string {
	idx := strings.Index(s, marker)
	if idx == -1 {
		return ""
	}
	after := strings.TrimLeft(s[idx+len(marker):], " ")
	for i := 0; i < len(after); i++ {
		if after[i] == ' ' || after[i] == '<' {
			return after[:i]
		}
	}
	return after
}

func extractChannel(s string) string {
	return markerValue(s, MarkerChannel)
}

func extractContentType(s string) string {
	return markerValue(s, MarkerConstrain)
}

func extractRecipient(s string) string {
	var after string
	switch {
	case strings.HasPrefix(s, "to="):
		// a role hint can leave the recipient leading the header
		after = s[len("to="):]
	default:
		idx := strings.Index(s, " to=")
		if idx == -1 {
			return ""
		}
		after = s[idx+len(" to="):]
	}
	for i := 0; i < len(after); i++ {
		if after[i] == ' ' || after[i] == '<' {
			return after[:i]
		}
	}
	return after
}

// parseHeader decodes an accumulated header string into the message header
// fields. hint, when non-nil, names the role the prompt already emitted for
// this message; the header then carries no role token of its own.
func parseHeader(s string, hint *Role) Message {
	s = normalizeHeader(s)
	var msg Message
	if hint != nil {
		msg.Role = *hint
	} else {
		roleToken, _ := splitLeadingToken(s)
		msg.Role = detectRole(roleToken)
	}
	msg.Channel = extractChannel(s)
	msg.Recipient = extractRecipient(s)
	msg.ContentType = extractContentType(s)
	return msg
}
