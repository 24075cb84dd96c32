// Package events maps a decoded wire.Frame to a typed Event (C5). Dispatch
// is on the frame's ":message-type" and ":event-type" headers, grounded on
// original_source/src/kiro/model/events (referenced from handlers.rs's
// Event::from_frame) and the wire vocabulary in spec.md §4.5/§6.
package events

import (
	"encoding/json"

	"github.com/z871327332/kiro-gateway/pkg/wire"
)

// Event is the closed set of typed views a frame can map to.
type Event interface {
	isEvent()
}

// AssistantResponse carries an incremental text fragment from the model.
type AssistantResponse struct {
	Content string
}

func (AssistantResponse) isEvent() {}

// ToolUse carries a streamed JSON-argument fragment for one tool call.
// Stop is true on the final fragment for that ToolUseID.
type ToolUse struct {
	ToolUseID string
	Name      string
	Input     string
	Stop      bool
}

func (ToolUse) isEvent() {}

// ContextUsage reports upstream-measured context-window utilization as a
// percentage (0-100, occasionally exceeding 100).
type ContextUsage struct {
	Percentage float64
}

func (ContextUsage) isEvent() {}

// ErrorEvent is an upstream-reported error envelope.
type ErrorEvent struct {
	Code    string
	Message string
}

func (ErrorEvent) isEvent() {}

// ExceptionEvent is an upstream-reported exception envelope. Type
// "ContentLengthExceededException" is semantically significant to C7/C9/C10.
type ExceptionEvent struct {
	Type    string
	Message string
}

func (ExceptionEvent) isEvent() {}

// Ignored represents a frame whose message/event type is recognized but
// carries no information the gateway acts on, or is unrecognized entirely.
type Ignored struct {
	MessageType string
	EventType   string
}

func (Ignored) isEvent() {}

// ContentLengthExceededException is the one exception type that changes
// stop-reason derivation.
const ContentLengthExceededException = "ContentLengthExceededException"

type assistantResponsePayload struct {
	Content string `json:"content"`
}

type toolUsePayload struct {
	ToolUseID string `json:"toolUseId"`
	Name      string `json:"name"`
	Input     string `json:"input"`
	Stop      bool   `json:"stop"`
}

type contextUsagePayload struct {
	ContextUsagePercentage float64 `json:"contextUsagePercentage"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// FromFrame dispatches on the frame's message/event type headers and
// unmarshals its JSON payload into the matching Event. A JSON parse
// failure is reported as an error but must never be treated as fatal by
// the caller — the gateway logs and continues (§7).
func FromFrame(f *wire.Frame) (Event, error) {
	switch f.MessageType() {
	case "event":
		switch f.EventType() {
		case "assistantResponseEvent":
			var p assistantResponsePayload
			if err := json.Unmarshal(f.Payload, &p); err != nil {
				return nil, err
			}
			return AssistantResponse{Content: p.Content}, nil
		case "toolUseEvent":
			var p toolUsePayload
			if err := json.Unmarshal(f.Payload, &p); err != nil {
				return nil, err
			}
			return ToolUse{ToolUseID: p.ToolUseID, Name: p.Name, Input: p.Input, Stop: p.Stop}, nil
		case "contextUsageEvent":
			var p contextUsagePayload
			if err := json.Unmarshal(f.Payload, &p); err != nil {
				return nil, err
			}
			return ContextUsage{Percentage: p.ContextUsagePercentage}, nil
		default:
			return Ignored{MessageType: "event", EventType: f.EventType()}, nil
		}
	case "exception":
		var p errorPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		return ExceptionEvent{Type: f.ExceptionType(), Message: p.Message}, nil
	case "error":
		var p errorPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		return ErrorEvent{Code: f.Headers.String(":error-code"), Message: p.Message}, nil
	default:
		return Ignored{MessageType: f.MessageType()}, nil
	}
}
