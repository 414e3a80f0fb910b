// Package openai implements a streaming client for OpenAI-compatible chat
// and completion endpoints, including the Harmony completion path used by
// gpt-oss models.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	harmony "github.com/euforicio/harmony-client"
	"github.com/euforicio/harmony-client/sse"
)

// Process-wide convenience defaults used when the caller passes empty
// values. The client never reads environment state; CLI glue does that and
// passes values in explicitly.
const (
	DefaultBaseURL = "http://localhost:8000/v1"
	DefaultModel   = "gpt-oss-20b"
)

// Client issues streaming requests against an OpenAI-compatible base URL.
// Retry, timeout and connection pooling policy belong to HTTPClient.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	// Debug, when set, logs one line per request with a correlation id.
	Debug *log.Logger
}

// NewClient creates a client. Empty baseURL or model fall back to the
// package defaults; apiKey may be empty for unauthenticated local servers.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: http.DefaultClient,
	}
}

func (c *Client) debugf(format string, args ...any) {
	if c.Debug != nil {
		c.Debug.Printf(format, args...)
	}
}

// postStream issues the request and hands back the response body wrapped in
// an SSE reader. Non-2xx responses and network failures come back as
// *TransportError.
func (c *Client) postStream(ctx context.Context, path string, body any) (*sse.Reader, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Op: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	reqID := uuid.NewString()
	c.debugf("[openai] req=%s POST %s (%d bytes)", reqID, url, len(payload))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		c.debugf("[openai] req=%s status=%d", reqID, resp.StatusCode)
		return nil, &TransportError{
			Op:         path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		}
	}
	c.debugf("[openai] req=%s streaming", reqID)
	return sse.NewReader(resp.Body), nil
}

// StreamChatCompletion starts a standard-format streaming chat completion.
// The caller drives the returned stream and must Close it.
func (c *Client) StreamChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatStream, error) {
	if req.Model == "" {
		req.Model = c.Model
	}
	req.Stream = true
	reader, err := c.postStream(ctx, "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	return &ChatStream{reader: reader}, nil
}

// StreamCompletion starts a raw streaming completion whose text deltas are
// decoded as Harmony wire format. roleHint names the role the prompt already
// opened with <|start|>, or nil when the completion starts a fresh turn.
func (c *Client) StreamCompletion(ctx context.Context, req CompletionRequest, roleHint *harmony.Role) (*HarmonyStream, error) {
	if req.Model == "" {
		req.Model = c.Model
	}
	req.Stream = true
	reader, err := c.postStream(ctx, "/completions", req)
	if err != nil {
		return nil, err
	}
	return &HarmonyStream{
		reader: reader,
		parser: harmony.NewStreamParser(roleHint),
	}, nil
}

// StreamHarmonyConversation renders the conversation for completion and
// streams the assistant's turn. The prompt ends at <|start|>assistant, so
// the decoder starts with an assistant role hint.
func (c *Client) StreamHarmonyConversation(ctx context.Context, conv harmony.Conversation, maxTokens int) (*HarmonyStream, error) {
	role := harmony.RoleAssistant
	req := CompletionRequest{
		Model:     c.Model,
		Prompt:    harmony.RenderConversationForCompletion(conv, role, nil),
		MaxTokens: maxTokens,
	}
	return c.StreamCompletion(ctx, req, &role)
}
