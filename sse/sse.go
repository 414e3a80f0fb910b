// Package sse frames server-sent-event byte streams into payload strings,
// one per "data:" line, as produced by OpenAI-compatible streaming
// endpoints.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DoneSentinel is the payload that terminates an OpenAI-compatible stream.
// It is consumed by the reader and never yielded.
const DoneSentinel = "[DONE]"

const dataPrefix = "data:"

// DefaultMaxLineBytes bounds the line buffer. Bytes past the cap on a single
// line are dropped rather than buffered; bounding memory matters more than
// completeness for pathological frames.
const DefaultMaxLineBytes = 1 << 20

// FrameError reports a non-blank, non-comment line that does not carry the
// "data:" prefix.
type FrameError struct {
	Line string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("sse: malformed frame line %q", e.Line)
}

// Reader turns a raw byte stream into a lazy, finite sequence of payload
// strings. It is not restartable; a read error or the [DONE] sentinel
// terminates the sequence for this instance.
type Reader struct {
	br      *bufio.Reader
	src     io.Reader
	maxLine int
	dropped int
	done    bool
	err     error
}

// NewReader wraps r with the default line capacity.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultMaxLineBytes)
}

// NewReaderSize wraps r, capping line buffering at maxLine bytes.
func NewReaderSize(r io.Reader, maxLine int) *Reader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	return &Reader{br: bufio.NewReader(r), src: r, maxLine: maxLine}
}

// Next returns the next "data:" payload. It blocks on the underlying read.
// io.EOF signals the end of the sequence, after the [DONE] sentinel or when
// the source is exhausted; any other error is surfaced immediately and
// latched.
func (r *Reader) Next() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.done {
		return "", io.EOF
	}
	for {
		line, err := r.readLine()
		if err != nil {
			r.err = err
			return "", err
		}
		if line == "" || strings.HasPrefix(line, ":") {
			continue // blank or keep-alive comment
		}
		if !strings.HasPrefix(line, dataPrefix) {
			r.err = &FrameError{Line: line}
			return "", r.err
		}
		payload := strings.TrimPrefix(strings.TrimPrefix(line, dataPrefix), " ")
		if payload == DoneSentinel {
			r.done = true
			return "", io.EOF
		}
		return payload, nil
	}
}

// readLine reads up to the next '\n', dropping bytes past the line capacity.
func (r *Reader) readLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			return "", err
		}
		if b == '\n' {
			return strings.TrimSuffix(sb.String(), "\r"), nil
		}
		if sb.Len() < r.maxLine {
			sb.WriteByte(b)
		} else {
			r.dropped++
		}
	}
}

// Dropped reports how many bytes were discarded to keep lines within the
// configured capacity.
func (r *Reader) Dropped() int { return r.dropped }

// Close releases the underlying stream when it is closable. Closing mid-
// sequence is legal and leaves the reader terminated.
func (r *Reader) Close() error {
	r.done = true
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
