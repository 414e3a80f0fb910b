package openai

import "sort"

// ToolCallAccumulator merges streamed tool-call fragments into complete
// calls keyed by their stable index. id/type/name are write-once; argument
// text is appended in arrival order and never reparsed here. Multiple
// indices may be open concurrently and are independent of one another.
//
// One accumulator serves one response stream; it is not safe for concurrent
// use, matching the single-consumer pull model of the stream types.
type ToolCallAccumulator struct {
	calls map[int]*StreamToolCall
}

// AddChunk folds every tool-call fragment of the chunk into the accumulator
// and returns the fragments belonging to this chunk (pass-through). The
// assembled set is obtained from ToolCalls at stream end; history is never
// re-emitted automatically.
func (a *ToolCallAccumulator) AddChunk(chunk *ChatCompletionChunk) []ToolCallDelta {
	var frags []ToolCallDelta
	for i := range chunk.Choices {
		for _, d := range chunk.Choices[i].Delta.ToolCalls {
			a.AddDelta(d)
			frags = append(frags, d)
		}
	}
	return frags
}

// AddDelta merges a single fragment.
func (a *ToolCallAccumulator) AddDelta(d ToolCallDelta) {
	if a.calls == nil {
		a.calls = make(map[int]*StreamToolCall)
	}
	tc, ok := a.calls[d.Index]
	if !ok {
		tc = &StreamToolCall{Index: d.Index}
		a.calls[d.Index] = tc
	}
	if tc.ID == "" {
		tc.ID = d.ID
	}
	if tc.Type == "" {
		tc.Type = d.Type
	}
	if tc.Function.Name == "" {
		tc.Function.Name = d.Function.Name
	}
	tc.Function.Arguments += d.Function.Arguments
}

// Add registers an already-complete call under the given index, keeping
// later fragments for that index append-only. Used by the Harmony bridge.
func (a *ToolCallAccumulator) Add(call StreamToolCall) {
	if a.calls == nil {
		a.calls = make(map[int]*StreamToolCall)
	}
	if _, ok := a.calls[call.Index]; !ok {
		c := call
		a.calls[call.Index] = &c
	}
}

// ToolCalls replays the assembled calls ordered by index.
func (a *ToolCallAccumulator) ToolCalls() []StreamToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	out := make([]StreamToolCall, 0, len(a.calls))
	for _, tc := range a.calls {
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Len reports how many distinct call indices have been seen.
func (a *ToolCallAccumulator) Len() int { return len(a.calls) }
