package harmony

// Harmony special token ids and their textual markers (must exactly match
// the upstream Harmony id table).
const (
	TokReturn    uint32 = 200002
	TokConstrain uint32 = 200003
	TokChannel   uint32 = 200005
	TokStart     uint32 = 200006
	TokEnd       uint32 = 200007
	TokMessage   uint32 = 200008
	TokCall      uint32 = 200012
)

// Textual markers for the special tokens.
const (
	MarkerStart     = "<|start|>"
	MarkerEnd       = "<|end|>"
	MarkerMessage   = "<|message|>"
	MarkerChannel   = "<|channel|>"
	MarkerConstrain = "<|constrain|>"
	MarkerReturn    = "<|return|>"
	MarkerCall      = "<|call|>"
)

var markerByID = map[uint32]string{
	TokStart:     MarkerStart,
	TokEnd:       MarkerEnd,
	TokMessage:   MarkerMessage,
	TokChannel:   MarkerChannel,
	TokConstrain: MarkerConstrain,
	TokReturn:    MarkerReturn,
	TokCall:      MarkerCall,
}

var idByMarker = map[string]uint32{
	MarkerStart:     TokStart,
	MarkerEnd:       TokEnd,
	MarkerMessage:   TokMessage,
	MarkerChannel:   TokChannel,
	MarkerConstrain: TokConstrain,
	MarkerReturn:    TokReturn,
	MarkerCall:      TokCall,
}

// MarkerForID returns the textual marker for a special token id. Unknown ids
// are not special tokens; callers must treat them as ordinary content.
func MarkerForID(id uint32) (string, bool) {
	m, ok := markerByID[id]
	return m, ok
}

// IDForMarker returns the token id for a textual marker, or false when the
// marker is not part of the vocabulary.
func IDForMarker(marker string) (uint32, bool) {
	id, ok := idByMarker[marker]
	return id, ok
}

// StopTokens returns the tokens that terminate any message.
func StopTokens() []uint32 {
	return []uint32{TokEnd, TokReturn, TokCall}
}

// StopTokensForAssistantActions returns the tokens that terminate an entire
// assistant turn (natural stop or tool invocation).
func StopTokensForAssistantActions() []uint32 {
	return []uint32{TokReturn, TokCall}
}
