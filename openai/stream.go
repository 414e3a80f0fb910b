package openai

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	harmony "github.com/euforicio/harmony-client"
	"github.com/euforicio/harmony-client/sse"
)

// StreamEvent is the single output shape shared by Harmony-mode and
// standard-mode streaming.
type StreamEvent struct {
	// Content is the text delta carried by this event, if any.
	Content string
	// Channel labels the content in Harmony mode (analysis, commentary,
	// final). Empty in standard mode.
	Channel string
	// Message is set when a Harmony message completes.
	Message *harmony.Message
	// ToolCalls are the tool-call fragments belonging to this event only;
	// the assembled set is available from the stream's ToolCalls at the end.
	ToolCalls []ToolCallDelta
	// FinishReason is "stop" or "tool_calls" on the terminating event.
	FinishReason string
}

// ChatStream pulls standard-format streaming chunks. Progress is driven
// entirely by the caller; each Next may block on the network read.
//
//	for stream.Next() {
//		ev := stream.Current()
//		...
//	}
//	if err := stream.Err(); err != nil { ... }
type ChatStream struct {
	reader *sse.Reader
	acc    ToolCallAccumulator
	cur    StreamEvent
	err    error
	done   bool
}

// Next advances to the next event. It returns false at stream end or on
// error; consult Err afterwards.
func (s *ChatStream) Next() bool {
	if s.err != nil || s.done {
		return false
	}
	for {
		payload, err := s.reader.Next()
		if err == io.EOF {
			s.done = true
			return false
		}
		if err != nil {
			s.err = err
			return false
		}
		var chunk ChatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			s.err = fmt.Errorf("decode chunk: %w", err)
			return false
		}
		frags := s.acc.AddChunk(&chunk)
		ev := StreamEvent{ToolCalls: frags}
		if len(chunk.Choices) > 0 {
			ev.Content = chunk.Choices[0].Delta.Content
			ev.FinishReason = chunk.Choices[0].FinishReason
		}
		if ev.Content == "" && len(ev.ToolCalls) == 0 && ev.FinishReason == "" {
			continue // role-only or empty heartbeat chunk
		}
		s.cur = ev
		return true
	}
}

// Current returns the event produced by the last successful Next.
func (s *ChatStream) Current() StreamEvent { return s.cur }

// Err returns the first error encountered, nil after a clean end.
func (s *ChatStream) Err() error { return s.err }

// ToolCalls replays the tool calls assembled over the whole stream, ordered
// by index. Callers typically read it after a "tool_calls" finish reason.
func (s *ChatStream) ToolCalls() []StreamToolCall { return s.acc.ToolCalls() }

// Close releases the underlying connection. Closing mid-stream is legal and
// discards whatever was not yet consumed.
func (s *ChatStream) Close() error {
	s.done = true
	return s.reader.Close()
}

// HarmonyStream pulls raw-completion chunks and decodes them as Harmony wire
// text, presenting the same event shape as ChatStream. Completed commentary
// messages addressed to functions.* are bridged into accumulated tool calls.
type HarmonyStream struct {
	reader      *sse.Reader
	parser      *harmony.StreamParser
	acc         ToolCallAccumulator
	queue       []StreamEvent
	cur         StreamEvent
	err         error
	done        bool
	sawComplete bool
}

// Next advances to the next event, reading and decoding further chunks as
// needed.
func (s *HarmonyStream) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		if len(s.queue) > 0 {
			s.cur = s.queue[0]
			s.queue = s.queue[1:]
			return true
		}
		if s.done {
			return false
		}
		payload, err := s.reader.Next()
		if err == io.EOF {
			s.done = true
			evs, ferr := s.parser.Finish()
			if ferr != nil {
				s.err = ferr
				return false
			}
			s.enqueue(evs)
			if !s.sawComplete {
				// server stopped generating before emitting a stop token
				s.queue = append(s.queue, StreamEvent{FinishReason: FinishStop})
				s.sawComplete = true
			}
			continue
		}
		if err != nil {
			s.err = err
			return false
		}
		var chunk CompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			s.err = fmt.Errorf("decode chunk: %w", err)
			return false
		}
		for i := range chunk.Choices {
			evs, perr := s.parser.Feed(chunk.Choices[i].Text)
			if perr != nil {
				s.err = perr
				return false
			}
			s.enqueue(evs)
		}
	}
}

// enqueue maps decoder events onto the unified stream shape. A delta belongs
// to the message completed after it within the batch, or to the message still
// in progress when the batch ends mid-content.
func (s *HarmonyStream) enqueue(evs []harmony.Event) {
	channels := make([]string, len(evs))
	ch := s.parser.CurrentChannel()
	for i := len(evs) - 1; i >= 0; i-- {
		if mc, ok := evs[i].(harmony.MessageComplete); ok {
			ch = mc.Message.Channel
		}
		channels[i] = ch
	}
	for i, ev := range evs {
		switch ev := ev.(type) {
		case harmony.ContentDelta:
			s.queue = append(s.queue, StreamEvent{
				Content: ev.Text,
				Channel: channels[i],
			})
		case harmony.MessageComplete:
			msg := ev.Message
			out := StreamEvent{Message: &msg, Channel: msg.Channel}
			if frag, ok := s.bridgeToolCall(msg); ok {
				out.ToolCalls = []ToolCallDelta{frag}
			}
			s.queue = append(s.queue, out)
		case harmony.StreamComplete:
			s.sawComplete = true
			reason := FinishStop
			if ev.StopToken == harmony.TokCall {
				reason = FinishToolCalls
			}
			s.queue = append(s.queue, StreamEvent{FinishReason: reason})
		}
	}
}

// bridgeToolCall converts a commentary message targeting the functions
// namespace into an accumulated tool call. Harmony carries no call ids, so
// one is generated.
func (s *HarmonyStream) bridgeToolCall(msg harmony.Message) (ToolCallDelta, bool) {
	if msg.Channel != harmony.ChannelCommentary || !strings.HasPrefix(msg.Recipient, "functions.") {
		return ToolCallDelta{}, false
	}
	name := strings.TrimPrefix(msg.Recipient, "functions.")
	index := s.acc.Len()
	call := StreamToolCall{
		Index: index,
		ID:    "call_" + uuid.NewString(),
		Type:  "function",
		Function: StreamToolFunction{
			Name:      name,
			Arguments: msg.Content,
		},
	}
	s.acc.Add(call)
	return ToolCallDelta{
		Index:    index,
		ID:       call.ID,
		Type:     call.Type,
		Function: ToolCallFuncDelta{Name: name, Arguments: msg.Content},
	}, true
}

// Current returns the event produced by the last successful Next.
func (s *HarmonyStream) Current() StreamEvent { return s.cur }

// Err returns the first error encountered, nil after a clean end.
func (s *HarmonyStream) Err() error { return s.err }

// Messages returns the fully decoded Harmony messages so far.
func (s *HarmonyStream) Messages() []harmony.Message { return s.parser.Messages() }

// ToolCalls replays the bridged tool calls, ordered by index.
func (s *HarmonyStream) ToolCalls() []StreamToolCall { return s.acc.ToolCalls() }

// Close releases the underlying connection, discarding any partially decoded
// message without emitting its completion.
func (s *HarmonyStream) Close() error {
	s.done = true
	return s.reader.Close()
}
