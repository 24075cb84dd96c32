// Package kiroclient is the one concrete implementation of
// handler.UpstreamClient shipped alongside the core: a thin HTTP POST
// to the Kiro service's conversation endpoint, returning its raw
// event-stream body unbuffered. It carries only what spec.md's Non-goal
// leaves in scope for the gateway itself — a single bearer credential
// and a base URL — never retries, multi-credential failover, or token
// refresh, which stay the caller's problem.
package kiroclient

import (
	"context"
	"fmt"
	"io"

	internalhttp "github.com/z871327332/kiro-gateway/pkg/internal/http"
)

// DefaultConversationPath is where the converted conversation state is
// POSTed, grounded on original_source/src/anthropic/handlers.rs's
// upstream call (the concrete path is absent from the filtered source,
// so this follows the Kiro CodeWhisperer-style conversation endpoint
// naming already implied by types.ConversationState).
const DefaultConversationPath = "/conversation"

// Config configures a Client.
type Config struct {
	// BaseURL is the Kiro service's base URL.
	BaseURL string

	// BearerToken authenticates this gateway to Kiro. Credential
	// acquisition/refresh is entirely the caller's concern.
	BearerToken string

	// ConversationPath overrides DefaultConversationPath.
	ConversationPath string
}

// Client is a handler.UpstreamClient backed by a single HTTP endpoint.
type Client struct {
	http *internalhttp.Client
	path string
}

// New builds a Client, mirroring the teacher's provider.New(Config)
// convention (see pkg/providers/anthropic.New).
func New(cfg Config) *Client {
	path := cfg.ConversationPath
	if path == "" {
		path = DefaultConversationPath
	}
	headers := map[string]string{}
	if cfg.BearerToken != "" {
		headers["Authorization"] = "Bearer " + cfg.BearerToken
	}
	return &Client{
		http: internalhttp.NewClient(internalhttp.Config{
			BaseURL: cfg.BaseURL,
			Headers: headers,
		}),
		path: path,
	}
}

// Call implements handler.UpstreamClient: POSTs body and returns the
// response body unbuffered, so the gateway's decoder can consume it as
// it arrives rather than waiting for the full response.
func (c *Client) Call(ctx context.Context, body []byte) (io.ReadCloser, error) {
	resp, err := c.http.DoStream(ctx, internalhttp.Request{
		Method: "POST",
		Path:   c.path,
		Body:   rawJSON(body),
	})
	if err != nil {
		return nil, fmt.Errorf("kiro upstream call failed: %w", err)
	}
	return resp.Body, nil
}

// rawJSON lets an already-marshaled []byte pass through DoStream's
// json.Marshal step unchanged (json.Marshal on a plain []byte
// base64-encodes it; MarshalJSON here returns the bytes as they are).
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) { return r, nil }
