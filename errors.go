package harmony

import "fmt"

// ProtocolError reports a token sequence that violates the Harmony state
// machine (e.g. <|end|> while waiting for <|start|>). The decode operation
// that hit it is failed outright; the parser does not resynchronize, since
// partial content may already have been delivered to the caller.
type ProtocolError struct {
	State string // parser state name at the time of the violation
	Token string // offending marker
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("harmony: unexpected %s in state %s", e.Token, e.State)
}
