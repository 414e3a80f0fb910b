package harmony

import (
	"strings"
	"unicode/utf8"
)

// Token is one logical unit of streamed completion text: a special marker
// (ID set to its token id) or a single ordinary character.
type Token struct {
	ID uint32 // nonzero for special tokens
	Ch rune   // ordinary character when ID is zero
}

var allMarkers = []string{
	MarkerStart,
	MarkerEnd,
	MarkerMessage,
	MarkerChannel,
	MarkerConstrain,
	MarkerReturn,
	MarkerCall,
}

// longest marker; nothing held back can exceed this.
var maxMarkerLen = func() int {
	n := 0
	for _, m := range allMarkers {
		if len(m) > n {
			n = len(m)
		}
	}
	return n
}()

// Lexer incrementally splits completion text into Tokens. Chunks may cut a
// marker (or a multi-byte rune) anywhere; the ambiguous tail is held back
// until the next chunk disambiguates it. A complete <|...|> sequence that
// matches no marker is ordinary content.
type Lexer struct {
	pending []byte
}

// Feed scans one chunk, invoking emit for every token produced. A non-nil
// error from emit stops the scan and is returned.
func (l *Lexer) Feed(chunk string, emit func(Token) error) error {
	var buf string
	if len(l.pending) > 0 {
		buf = string(l.pending) + chunk
		l.pending = l.pending[:0]
	} else {
		buf = chunk
	}
	i := 0
	for i < len(buf) {
		if buf[i] == '<' {
			rest := buf[i:]
			if id, n := matchMarker(rest); n > 0 {
				if err := emit(Token{ID: id}); err != nil {
					return err
				}
				i += n
				continue
			}
			if len(rest) < maxMarkerLen && isMarkerPrefix(rest) {
				l.pending = append(l.pending, rest...)
				return nil
			}
			// '<' that cannot start a marker is ordinary content
		}
		if !utf8.FullRuneInString(buf[i:]) {
			// rune split across chunks
			l.pending = append(l.pending, buf[i:]...)
			return nil
		}
		r, size := utf8.DecodeRuneInString(buf[i:])
		if err := emit(Token{Ch: r}); err != nil {
			return err
		}
		i += size
	}
	return nil
}

// Flush releases any held-back tail as ordinary content. Call it at end of
// stream; a dangling marker prefix was never completed and is plain text.
func (l *Lexer) Flush(emit func(Token) error) error {
	if len(l.pending) == 0 {
		return nil
	}
	tail := string(l.pending)
	l.pending = l.pending[:0]
	for _, r := range tail {
		if err := emit(Token{Ch: r}); err != nil {
			return err
		}
	}
	return nil
}

// matchMarker reports the marker starting at s, returning its id and byte
// length, or a zero length when none matches.
func matchMarker(s string) (uint32, int) {
	for _, m := range allMarkers {
		if strings.HasPrefix(s, m) {
			id, _ := IDForMarker(m)
			return id, len(m)
		}
	}
	return 0, 0
}

// isMarkerPrefix reports whether s could still grow into a marker.
func isMarkerPrefix(s string) bool {
	for _, m := range allMarkers {
		if strings.HasPrefix(m, s) {
			return true
		}
	}
	return false
}
