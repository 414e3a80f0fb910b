package harmony

import "testing"

func TestNormalizeHeader(t *testing.T) {
	in := "assistant to=functions.get_weather<|channel|>commentary<|constrain|>json"
	got := normalizeHeader(in)
	want := "assistant to=functions.get_weather <|channel|>commentary <|constrain|>json"
	if got != want {
		t.Fatalf("normalizeHeader: got %q want %q", got, want)
	}
}

func TestSplitLeadingToken(t *testing.T) {
	tok, rem := splitLeadingToken("assistant<|channel|>analysis")
	if tok != "assistant" || rem != "<|channel|>analysis" {
		t.Fatalf("splitLeadingToken unexpected: %q %q", tok, rem)
	}
}

func TestDetectRole(t *testing.T) {
	cases := map[string]Role{
		"user":                  RoleUser,
		"assistant":             RoleAssistant,
		"system":                RoleSystem,
		"developer":             RoleDeveloper,
		"tool":                  RoleTool,
		"functions.get_weather": RoleTool,
	}
	for tok, want := range cases {
		if got := detectRole(tok); got != want {
			t.Fatalf("detectRole(%q) = %v, want %v", tok, got, want)
		}
	}
}

func TestExtractors(t *testing.T) {
	// unspaced server form
	s := "assistant to=functions.get_weather<|channel|>commentary <|constrain|>json"
	if ch := extractChannel(s); ch != "commentary" {
		t.Fatalf("extractChannel: %q", ch)
	}
	if rcpt := extractRecipient(s); rcpt != "functions.get_weather" {
		t.Fatalf("extractRecipient: %q", rcpt)
	}
	if ct := extractContentType(s); ct != "json" {
		t.Fatalf("extractContentType: %q", ct)
	}

	// spaced wire form produced by RenderMessage
	s = "assistant <|channel|> commentary to=functions.get_weather <|constrain|> json"
	if ch := extractChannel(s); ch != "commentary" {
		t.Fatalf("extractChannel spaced: %q", ch)
	}
	if rcpt := extractRecipient(s); rcpt != "functions.get_weather" {
		t.Fatalf("extractRecipient spaced: %q", rcpt)
	}
	if ct := extractContentType(s); ct != "json" {
		t.Fatalf("extractContentType spaced: %q", ct)
	}
}

func TestParseHeaderWithRoleHint(t *testing.T) {
	role := RoleAssistant
	// with a role hint the header often starts directly at the channel
	msg := parseHeader("<|channel|> final", &role)
	if msg.Role != RoleAssistant || msg.Channel != ChannelFinal {
		t.Fatalf("parseHeader hinted: %+v", msg)
	}
	// a hinted header may also lead with the recipient
	msg = parseHeader("to=functions.lookup <|channel|> commentary", &role)
	if msg.Recipient != "functions.lookup" || msg.Channel != ChannelCommentary {
		t.Fatalf("parseHeader hinted recipient: %+v", msg)
	}
}
