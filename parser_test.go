package harmony

import (
	"errors"
	"strings"
	"testing"
)

func tokenSequence(specials ...any) []Token {
	var toks []Token
	for _, s := range specials {
		switch v := s.(type) {
		case uint32:
			toks = append(toks, Token{ID: v})
		case string:
			for _, r := range v {
				toks = append(toks, Token{Ch: r})
			}
		}
	}
	return toks
}

func processAll(t *testing.T, p *StreamParser, toks []Token) []Event {
	t.Helper()
	var events []Event
	for _, tok := range toks {
		evs, err := p.Process(tok)
		if err != nil {
			t.Fatalf("Process(%+v): %v", tok, err)
		}
		events = append(events, evs...)
	}
	return events
}

func countEvents(events []Event) (deltas, completes, streamEnds int) {
	for _, ev := range events {
		switch ev.(type) {
		case ContentDelta:
			deltas++
		case MessageComplete:
			completes++
		case StreamComplete:
			streamEnds++
		}
	}
	return
}

func TestParserEventCounts(t *testing.T) {
	p := NewStreamParser(nil)
	toks := tokenSequence(TokStart, "assistant", TokMessage, "Hello", TokEnd)
	events := processAll(t, p, toks)

	deltas, completes, streamEnds := countEvents(events)
	if completes != 1 {
		t.Fatalf("message_complete count = %d, want 1", completes)
	}
	if streamEnds != 0 {
		t.Fatalf("stream_complete count = %d, want 0", streamEnds)
	}
	if deltas != len("Hello") {
		t.Fatalf("content_delta count = %d, want %d", deltas, len("Hello"))
	}

	msgs := p.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != RoleAssistant || msgs[0].Content != "Hello" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestParserTerminationDistinction(t *testing.T) {
	for _, stop := range []uint32{TokReturn, TokCall} {
		p := NewStreamParser(nil)
		toks := tokenSequence(TokStart, "assistant", TokMessage, "Hello", stop)
		events := processAll(t, p, toks)

		_, _, streamEnds := countEvents(events)
		if streamEnds != 1 {
			t.Fatalf("stop %d: stream_complete count = %d, want 1", stop, streamEnds)
		}
		last, ok := events[len(events)-1].(StreamComplete)
		if !ok {
			t.Fatalf("stop %d: last event is %T, want StreamComplete", stop, events[len(events)-1])
		}
		if last.StopToken != stop {
			t.Fatalf("StopToken = %d, want %d", last.StopToken, stop)
		}
		if !p.Done() {
			t.Fatalf("parser should be terminal after stop token")
		}

		// terminal state ignores further input
		evs, err := p.Process(Token{Ch: 'x'})
		if err != nil || len(evs) != 0 {
			t.Fatalf("terminal Process = (%v, %v), want no-op", evs, err)
		}
	}
}

func TestParserMultipleMessagesPerTurn(t *testing.T) {
	text := "<|start|>assistant <|channel|> analysis<|message|>thinking...<|end|>" +
		"<|start|>assistant <|channel|> final<|message|>The answer is 4.<|return|>"
	p := NewStreamParser(nil)
	events, err := p.Feed(text)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	_, completes, streamEnds := countEvents(events)
	if completes != 2 || streamEnds != 1 {
		t.Fatalf("completes=%d streamEnds=%d, want 2 and 1", completes, streamEnds)
	}
	msgs := p.Messages()
	if msgs[0].Channel != ChannelAnalysis || msgs[0].Content != "thinking..." {
		t.Fatalf("analysis message: %+v", msgs[0])
	}
	if msgs[1].Channel != ChannelFinal || msgs[1].Content != "The answer is 4." {
		t.Fatalf("final message: %+v", msgs[1])
	}
}

func TestParserFeedCoalescesDeltas(t *testing.T) {
	p := NewStreamParser(nil)
	if _, err := p.Feed("<|start|>assistant<|message|>"); err != nil {
		t.Fatalf("Feed header: %v", err)
	}
	events, err := p.Feed("Hello, world")
	if err != nil {
		t.Fatalf("Feed content: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one coalesced delta, got %d events", len(events))
	}
	d, ok := events[0].(ContentDelta)
	if !ok || d.Text != "Hello, world" {
		t.Fatalf("unexpected event: %#v", events[0])
	}
}

func TestParserRoleHint(t *testing.T) {
	role := RoleAssistant
	p := NewStreamParser(&role)
	// completion after "<|start|>assistant" begins at the channel marker
	events, err := p.Feed("<|channel|> final<|message|>ok<|return|>")
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	_, completes, streamEnds := countEvents(events)
	if completes != 1 || streamEnds != 1 {
		t.Fatalf("completes=%d streamEnds=%d", completes, streamEnds)
	}
	msg := p.Messages()[0]
	if msg.Role != RoleAssistant || msg.Channel != ChannelFinal || msg.Content != "ok" {
		t.Fatalf("hinted message: %+v", msg)
	}
}

func TestParserGarbageBeforeStartIgnored(t *testing.T) {
	p := NewStreamParser(nil)
	events, err := p.Feed("noise \n<|start|>user<|message|>hi<|end|>")
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	deltas, completes, _ := countEvents(events)
	if completes != 1 {
		t.Fatalf("completes = %d, want 1", completes)
	}
	if deltas != 1 {
		t.Fatalf("garbage leaked into deltas: %d", deltas)
	}
}

func TestParserProtocolViolations(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"end without start", "<|end|>"},
		{"return without start", "<|return|>"},
		{"end inside header", "<|start|>assistant<|end|>"},
		{"message without start", "<|message|>"},
	}
	for _, tc := range cases {
		p := NewStreamParser(nil)
		_, err := p.Feed(tc.text)
		if err == nil {
			t.Fatalf("%s: expected protocol error", tc.name)
		}
		var perr *ProtocolError
		if !errors.As(err, &perr) {
			t.Fatalf("%s: error type %T, want *ProtocolError", tc.name, err)
		}
	}
}

func TestParserFinishFinalizesOpenMessage(t *testing.T) {
	p := NewStreamParser(nil)
	if _, err := p.Feed("<|start|>assistant<|message|>partial answer"); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	events, err := p.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	_, completes, _ := countEvents(events)
	if completes != 1 {
		t.Fatalf("Finish completes = %d, want 1", completes)
	}
	if got := p.Messages()[0].Content; got != "partial answer" {
		t.Fatalf("content = %q", got)
	}
	if !p.Done() {
		t.Fatalf("parser should be terminal after Finish")
	}
}

func TestParserAccessors(t *testing.T) {
	p := NewStreamParser(nil)
	if _, err := p.Feed("<|start|>assistant <|channel|> commentary to=functions.lookup <|constrain|> json<|message|>{\"q\":"); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if r := p.CurrentRole(); r == nil || *r != RoleAssistant {
		t.Fatalf("CurrentRole: %v", r)
	}
	if ch := p.CurrentChannel(); ch != ChannelCommentary {
		t.Fatalf("CurrentChannel: %q", ch)
	}
	if rcpt := p.CurrentRecipient(); rcpt != "functions.lookup" {
		t.Fatalf("CurrentRecipient: %q", rcpt)
	}
	if ct := p.CurrentContentType(); ct != "json" {
		t.Fatalf("CurrentContentType: %q", ct)
	}
	if c := p.CurrentContent(); c != "{\"q\":" {
		t.Fatalf("CurrentContent: %q", c)
	}

	if _, err := p.Feed("\"x\"}<|call|>"); err != nil {
		t.Fatalf("Feed tail: %v", err)
	}
	if r := p.CurrentRole(); r != nil {
		t.Fatalf("expected nil role after finalization, got %v", *r)
	}
	if p.CurrentContent() != "" {
		t.Fatalf("expected empty current content after finalization")
	}
}

func BenchmarkParserFeed(b *testing.B) {
	body := strings.Repeat("All work and no play makes Jack a dull boy. ", 50)
	turn := "<|start|>assistant <|channel|> final<|message|>" + body + "<|return|>"
	b.SetBytes(int64(len(turn)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := NewStreamParser(nil)
		if _, err := p.Feed(turn); err != nil {
			b.Fatal(err)
		}
	}
}
