// Package sse implements the SSE state machine (C7): tracking
// message/content-block lifecycle and enforcing ordering invariants I5/I6.
// Grounded on original_source/src/anthropic/stream.rs's SseStateManager.
package sse

import (
	"encoding/json"
	"fmt"
)

// Event is one outbound server-sent event: name plus a JSON-serializable
// payload.
type Event struct {
	Name string
	Data any
}

// Encode renders an Event as "event: <name>\ndata: <json>\n\n". A
// marshaling failure (should not happen for the gateway's own payloads)
// degrades to a "{}" data line rather than panicking.
func (e Event) Encode() string {
	b, err := json.Marshal(e.Data)
	if err != nil {
		b = []byte("{}")
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Name, b)
}

// PingEvent is the fixed keep-alive frame, reproduced byte-for-byte
// (including the space after the JSON colon) from handlers.rs's
// create_ping_sse.
const PingEvent = "event: ping\ndata: {\"type\": \"ping\"}\n\n"
