package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z871327332/kiro-gateway/pkg/wire"
)

func frameWith(t *testing.T, messageType, eventType, payload string) *wire.Frame {
	t.Helper()
	h := wire.NewHeaders()
	h.Set(":message-type", wire.HeaderValue{Type: wire.HeaderTypeString, StringVal: messageType})
	if eventType != "" {
		h.Set(":event-type", wire.HeaderValue{Type: wire.HeaderTypeString, StringVal: eventType})
	}
	return &wire.Frame{Headers: h, Payload: []byte(payload)}
}

func TestFromFrame_AssistantResponse(t *testing.T) {
	f := frameWith(t, "event", "assistantResponseEvent", `{"content":"hi there"}`)
	ev, err := FromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, AssistantResponse{Content: "hi there"}, ev)
}

func TestFromFrame_ToolUse(t *testing.T) {
	f := frameWith(t, "event", "toolUseEvent", `{"toolUseId":"t1","name":"Read","input":"{\"x\":1}","stop":true}`)
	ev, err := FromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, ToolUse{ToolUseID: "t1", Name: "Read", Input: `{"x":1}`, Stop: true}, ev)
}

func TestFromFrame_ContextUsage(t *testing.T) {
	f := frameWith(t, "event", "contextUsageEvent", `{"contextUsagePercentage":42.5}`)
	ev, err := FromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, ContextUsage{Percentage: 42.5}, ev)
}

func TestFromFrame_UnknownEventType_Ignored(t *testing.T) {
	f := frameWith(t, "event", "somethingNew", `{}`)
	ev, err := FromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, Ignored{MessageType: "event", EventType: "somethingNew"}, ev)
}

func TestFromFrame_Exception(t *testing.T) {
	h := wire.NewHeaders()
	h.Set(":message-type", wire.HeaderValue{Type: wire.HeaderTypeString, StringVal: "exception"})
	h.Set(":exception-type", wire.HeaderValue{Type: wire.HeaderTypeString, StringVal: ContentLengthExceededException})
	f := &wire.Frame{Headers: h, Payload: []byte(`{"message":"too long"}`)}

	ev, err := FromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, ExceptionEvent{Type: ContentLengthExceededException, Message: "too long"}, ev)
}

func TestFromFrame_Error(t *testing.T) {
	h := wire.NewHeaders()
	h.Set(":message-type", wire.HeaderValue{Type: wire.HeaderTypeString, StringVal: "error"})
	h.Set(":error-code", wire.HeaderValue{Type: wire.HeaderTypeString, StringVal: "BadRequest"})
	f := &wire.Frame{Headers: h, Payload: []byte(`{"message":"bad input"}`)}

	ev, err := FromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, ErrorEvent{Code: "BadRequest", Message: "bad input"}, ev)
}

func TestFromFrame_MalformedJSON_NeverPanics(t *testing.T) {
	f := frameWith(t, "event", "assistantResponseEvent", `not json`)
	assert.NotPanics(t, func() {
		_, err := FromFrame(f)
		require.Error(t, err)
	})
}
