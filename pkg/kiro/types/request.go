// Package types carries the wire-facing request/response shapes the
// gateway's public "messages" API accepts and returns, grounded on
// original_source/src/anthropic/types.rs's field usage (as exercised by
// converter.rs and handlers.rs) and the DATA MODEL in spec.md §3.
package types

import "encoding/json"

// MessagesRequest is the body of POST /v1/messages and /cc/v1/messages.
type MessagesRequest struct {
	Model        string          `json:"model"`
	MaxTokens    int             `json:"max_tokens"`
	Stream       bool            `json:"stream"`
	System       []SystemSegment `json:"system,omitempty"`
	Messages     []Message       `json:"messages"`
	Tools        []Tool          `json:"tools,omitempty"`
	ToolChoice   json.RawMessage `json:"tool_choice,omitempty"`
	Thinking     *Thinking       `json:"thinking,omitempty"`
	OutputConfig *OutputConfig   `json:"output_config,omitempty"`
	Metadata     *Metadata       `json:"metadata,omitempty"`
}

// SystemSegment is one element of a "system" array.
type SystemSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is one chat turn. Content is either a plain string or an
// ordered array of ContentBlock, so it is kept as raw JSON and decoded by
// the converter depending on its shape.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentBlock is the union of block shapes that can appear inside a
// message's content array: text, image, tool_use, tool_result, thinking.
// Mirroring the Rust original, only the fields relevant to its Type are
// populated; Go has no tagged union so this stays a flat optional-field
// struct decoded once and dispatched on Type.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   *bool           `json:"is_error,omitempty"`

	// thinking
	Thinking string `json:"thinking,omitempty"`
}

// ImageSource is an inline base64-encoded image.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Tool is a tool definition offered to the model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
	// MaxUses is unused anywhere in the core (spec.md §9 Open Question);
	// like ToolType, it is decoded but not read anywhere in the gateway.
	MaxUses  *int   `json:"max_uses,omitempty"`
	ToolType string `json:"type,omitempty"`
}

// Thinking is the optional extended-thinking configuration.
type Thinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

// IsEnabled reports whether thinking is requested in any mode.
func (t *Thinking) IsEnabled() bool {
	return t != nil && (t.Type == "enabled" || t.Type == "adaptive")
}

// OutputConfig carries the optional output-effort override.
type OutputConfig struct {
	Effort string `json:"effort"`
}

// Metadata carries request metadata; UserID may embed a session id.
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

// CountTokensRequest is the body of POST /v1/messages/count_tokens.
type CountTokensRequest struct {
	Model    string          `json:"model"`
	System   []SystemSegment `json:"system,omitempty"`
	Messages []Message       `json:"messages"`
	Tools    []Tool          `json:"tools,omitempty"`
}

// CountTokensResponse is the estimate-only response to count_tokens.
type CountTokensResponse struct {
	InputTokens int `json:"input_tokens"`
}

// ErrorResponse is the error body shape for non-stream failures.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the inner error payload of ErrorResponse.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorResponse builds an ErrorResponse with the fixed outer "error" type.
func NewErrorResponse(kind, message string) ErrorResponse {
	return ErrorResponse{
		Type:  "error",
		Error: ErrorDetail{Type: kind, Message: message},
	}
}

// Model is one entry in the GET /v1/models catalog.
type Model struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	Created     int64  `json:"created"`
	OwnedBy     string `json:"owned_by"`
	DisplayName string `json:"display_name"`
	ModelType   string `json:"type"`
	MaxTokens   int    `json:"max_tokens"`
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Catalog is the fixed model catalog, recovered verbatim from
// original_source/src/anthropic/handlers.rs::get_models (SPEC_FULL.md §C.1).
func Catalog() []Model {
	return []Model{
		{ID: "claude-sonnet-4-5-20250929", Object: "model", Created: 1727568000, OwnedBy: "anthropic", DisplayName: "Claude Sonnet 4.5", ModelType: "chat", MaxTokens: 32000},
		{ID: "claude-sonnet-4-5-20250929-thinking", Object: "model", Created: 1727568000, OwnedBy: "anthropic", DisplayName: "Claude Sonnet 4.5 (Thinking)", ModelType: "chat", MaxTokens: 32000},
		{ID: "claude-opus-4-5-20251101", Object: "model", Created: 1730419200, OwnedBy: "anthropic", DisplayName: "Claude Opus 4.5", ModelType: "chat", MaxTokens: 32000},
		{ID: "claude-opus-4-5-20251101-thinking", Object: "model", Created: 1730419200, OwnedBy: "anthropic", DisplayName: "Claude Opus 4.5 (Thinking)", ModelType: "chat", MaxTokens: 32000},
		{ID: "claude-opus-4-6", Object: "model", Created: 1770314400, OwnedBy: "anthropic", DisplayName: "Claude Opus 4.6", ModelType: "chat", MaxTokens: 32000},
		{ID: "claude-opus-4-6-thinking", Object: "model", Created: 1770314400, OwnedBy: "anthropic", DisplayName: "Claude Opus 4.6 (Thinking)", ModelType: "chat", MaxTokens: 32000},
		{ID: "claude-haiku-4-5-20251001", Object: "model", Created: 1727740800, OwnedBy: "anthropic", DisplayName: "Claude Haiku 4.5", ModelType: "chat", MaxTokens: 32000},
		{ID: "claude-haiku-4-5-20251001-thinking", Object: "model", Created: 1727740800, OwnedBy: "anthropic", DisplayName: "Claude Haiku 4.5 (Thinking)", ModelType: "chat", MaxTokens: 32000},
	}
}
