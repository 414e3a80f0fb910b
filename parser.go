package harmony

import "strings"

type parserState int

const (
	stateExpectStart parserState = iota
	stateHeader
	stateContent
	stateComplete
)

func (s parserState) String() string {
	switch s {
	case stateExpectStart:
		return "ExpectStart"
	case stateHeader:
		return "Header"
	case stateContent:
		return "Content"
	case stateComplete:
		return "Complete"
	default:
		return "Invalid"
	}
}

// Event is one decode result produced by the StreamParser. The concrete
// types are ContentDelta, MessageComplete and StreamComplete; consumption
// sites must switch over all three.
type Event interface{ isEvent() }

// ContentDelta carries newly decoded content of the message in progress.
// Many deltas may be emitted per message.
type ContentDelta struct {
	Text string
}

// MessageComplete carries a fully decoded message. Emitted exactly once per
// message, when its terminating token is observed.
type MessageComplete struct {
	Message Message
}

// StreamComplete signals the end of the model's turn. StopToken is TokReturn
// for a natural stop and TokCall when the model invoked a tool and is
// awaiting its result. Emitted at most once per turn.
type StreamComplete struct {
	StopToken uint32
}

func (ContentDelta) isEvent()    {}
func (MessageComplete) isEvent() {}
func (StreamComplete) isEvent()  {}

// headers are tiny; anything past this is dropped rather than buffered.
const maxHeaderBytes = 4096

// StreamParser incrementally decodes Harmony completion text into messages.
// It is driven by a single caller; one parser decodes one response turn and
// is discarded once complete. Feed accepts raw text chunks of any size; the
// lower-level Process consumes pre-lexed tokens.
type StreamParser struct {
	lex      Lexer
	state    parserState
	nextRole *Role
	messages []Message
	header   strings.Builder
	content  strings.Builder
}

// NewStreamParser creates a streaming parser. If role is non-nil it is the
// role the prompt already emitted (the completion encoder leaves the turn at
// "<|start|>role"), and the parser starts collecting header tokens
// immediately.
func NewStreamParser(role *Role) *StreamParser {
	st := stateExpectStart
	if role != nil {
		st = stateHeader
	}
	return &StreamParser{state: st, nextRole: role}
}

// Feed lexes a chunk of completion text and processes the resulting tokens,
// returning the decode events they produced. Consecutive content characters
// are coalesced into a single ContentDelta per chunk.
func (p *StreamParser) Feed(chunk string) ([]Event, error) {
	var events []Event
	err := p.lex.Feed(chunk, func(tok Token) error {
		evs, err := p.Process(tok)
		events = appendCoalesced(events, evs)
		return err
	})
	return events, err
}

// Finish flushes the lexer and finalizes an in-progress message at natural
// end of input. Abandoning the parser without calling Finish discards any
// partially decoded message.
func (p *StreamParser) Finish() ([]Event, error) {
	var events []Event
	err := p.lex.Flush(func(tok Token) error {
		evs, err := p.Process(tok)
		events = appendCoalesced(events, evs)
		return err
	})
	if err != nil {
		return events, err
	}
	if p.state == stateContent {
		events = append(events, MessageComplete{Message: p.finalizeMessage()})
	}
	if p.state != stateComplete {
		p.state = stateComplete
	}
	return events, nil
}

// Process consumes a single token and returns the events it produced, if
// any. Protocol violations fail the decode with a *ProtocolError; the parser
// does not resynchronize.
func (p *StreamParser) Process(tok Token) ([]Event, error) {
	switch p.state {
	case stateExpectStart:
		if tok.ID == TokStart {
			p.header.Reset()
			p.state = stateHeader
			return nil, nil
		}
		if tok.ID != 0 {
			return nil, p.violation(tok)
		}
		// garbage before a turn is ignored
		return nil, nil
	case stateHeader:
		switch tok.ID {
		case 0:
			if p.header.Len() < maxHeaderBytes {
				p.header.WriteRune(tok.Ch)
			}
			return nil, nil
		case TokStart:
			// stray start when the role hint already opened the header
			return nil, nil
		case TokChannel, TokConstrain:
			if p.header.Len() < maxHeaderBytes {
				p.header.WriteString(markerByID[tok.ID])
			}
			return nil, nil
		case TokMessage:
			msg := parseHeader(p.header.String(), p.nextRole)
			p.nextRole = nil
			p.messages = append(p.messages, msg)
			p.content.Reset()
			p.state = stateContent
			return nil, nil
		default:
			return nil, p.violation(tok)
		}
	case stateContent:
		switch tok.ID {
		case 0:
			p.content.WriteRune(tok.Ch)
			return []Event{ContentDelta{Text: string(tok.Ch)}}, nil
		case TokEnd:
			msg := p.finalizeMessage()
			p.state = stateExpectStart
			return []Event{MessageComplete{Message: msg}}, nil
		case TokReturn, TokCall:
			msg := p.finalizeMessage()
			p.state = stateComplete
			return []Event{
				MessageComplete{Message: msg},
				StreamComplete{StopToken: tok.ID},
			}, nil
		default:
			return nil, p.violation(tok)
		}
	case stateComplete:
		// terminal: everything after the stop token is ignored
		return nil, nil
	default:
		return nil, &ProtocolError{State: "Invalid", Token: tokenName(tok)}
	}
}

func (p *StreamParser) finalizeMessage() Message {
	idx := len(p.messages) - 1
	p.messages[idx].Content = p.content.String()
	p.content.Reset()
	p.header.Reset()
	return p.messages[idx]
}

func (p *StreamParser) violation(tok Token) error {
	return &ProtocolError{State: p.state.String(), Token: tokenName(tok)}
}

func tokenName(tok Token) string {
	if tok.ID != 0 {
		if m, ok := MarkerForID(tok.ID); ok {
			return m
		}
		return "unknown token"
	}
	return string(tok.Ch)
}

// appendCoalesced appends evs to events, merging adjacent ContentDelta
// values so a chunk yields one delta instead of one per character.
func appendCoalesced(events []Event, evs []Event) []Event {
	for _, ev := range evs {
		if d, ok := ev.(ContentDelta); ok && len(events) > 0 {
			if prev, ok := events[len(events)-1].(ContentDelta); ok {
				events[len(events)-1] = ContentDelta{Text: prev.Text + d.Text}
				continue
			}
		}
		events = append(events, ev)
	}
	return events
}

// Messages returns all fully parsed messages so far.
func (p *StreamParser) Messages() []Message {
	return append([]Message(nil), p.messages...)
}

// Done reports whether the parser reached its terminal state.
func (p *StreamParser) Done() bool { return p.state == stateComplete }

// CurrentRole returns the role of the message being decoded, or the role
// hint when the header is still open. Nil when the role is not yet known.
func (p *StreamParser) CurrentRole() *Role {
	switch p.state {
	case stateContent:
		if len(p.messages) == 0 {
			return nil
		}
		r := p.messages[len(p.messages)-1].Role
		return &r
	default:
		return p.nextRole
	}
}

// CurrentContent returns the content accumulated so far for the message in
// progress, empty when no content is being decoded.
func (p *StreamParser) CurrentContent() string {
	if p.state != stateContent {
		return ""
	}
	return p.content.String()
}

// CurrentChannel returns the channel of the message in progress, if known.
func (p *StreamParser) CurrentChannel() string {
	if p.state != stateContent || len(p.messages) == 0 {
		return ""
	}
	return p.messages[len(p.messages)-1].Channel
}

// CurrentRecipient returns the recipient of the message in progress, if known.
func (p *StreamParser) CurrentRecipient() string {
	if p.state != stateContent || len(p.messages) == 0 {
		return ""
	}
	return p.messages[len(p.messages)-1].Recipient
}

// CurrentContentType returns the content-type of the message in progress, if known.
func (p *StreamParser) CurrentContentType() string {
	if p.state != stateContent || len(p.messages) == 0 {
		return ""
	}
	return p.messages[len(p.messages)-1].ContentType
}

// ParseMessages decodes a complete completion text into messages. If role is
// provided it serves as the role hint for the first header.
func ParseMessages(text string, role *Role) ([]Message, error) {
	p := NewStreamParser(role)
	if _, err := p.Feed(text); err != nil {
		return nil, err
	}
	if _, err := p.Finish(); err != nil {
		return nil, err
	}
	return p.messages, nil
}
