// Package harmony implements the Harmony conversation format used by
// gpt-oss style models behind OpenAI-compatible endpoints.
//
// It renders conversations to the special-token-delimited wire text sent to
// completion endpoints and incrementally decodes streamed completion text
// back into structured messages, emitting partial-content events as bytes
// arrive.
package harmony
