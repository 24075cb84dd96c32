package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_MessageStart_OnlyOnce(t *testing.T) {
	m := NewManager()
	ev := m.MessageStart(map[string]any{"type": "message_start"})
	require.NotNil(t, ev)
	assert.Equal(t, "message_start", ev.Name)
	assert.Nil(t, m.MessageStart(map[string]any{}))
}

func TestManager_ToolUseAutoClosesOpenText(t *testing.T) {
	m := NewManager()
	m.BlockStart(0, "text", map[string]any{"index": 0})
	events := m.BlockStart(1, "tool_use", map[string]any{"index": 1})
	require.Len(t, events, 2)
	assert.Equal(t, "content_block_stop", events[0].Name)
	assert.Equal(t, "content_block_start", events[1].Name)
	assert.True(t, m.hasToolUse)
}

func TestManager_DuplicateBlockStart_Suppressed(t *testing.T) {
	m := NewManager()
	m.BlockStart(0, "text", nil)
	events := m.BlockStart(0, "text", nil)
	assert.Empty(t, events)
}

func TestManager_DeltaOnUnstartedBlock_Dropped(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.BlockDelta(0, nil))
}

func TestManager_DeltaAfterStop_Dropped(t *testing.T) {
	m := NewManager()
	m.BlockStart(0, "text", nil)
	m.BlockStop(0)
	assert.Nil(t, m.BlockDelta(0, nil))
}

func TestManager_BlockStop_OnlyOnce(t *testing.T) {
	m := NewManager()
	m.BlockStart(0, "text", nil)
	require.NotNil(t, m.BlockStop(0))
	assert.Nil(t, m.BlockStop(0))
}

func TestManager_StopReason_Default(t *testing.T) {
	m := NewManager()
	assert.Equal(t, "end_turn", m.StopReason())
}

func TestManager_StopReason_ToolUse(t *testing.T) {
	m := NewManager()
	m.SetHasToolUse(true)
	assert.Equal(t, "tool_use", m.StopReason())
}

func TestManager_StopReason_StickyOverridesToolUse(t *testing.T) {
	m := NewManager()
	m.SetHasToolUse(true)
	m.SetStopReason("max_tokens")
	assert.Equal(t, "max_tokens", m.StopReason())
}

// I5/P5: final always closes any open blocks, emits exactly one
// message_delta, and exactly one message_stop.
func TestManager_Final_ClosesOpenBlocksOnce(t *testing.T) {
	m := NewManager()
	m.MessageStart(nil)
	m.BlockStart(0, "text", nil)
	events := m.Final(10, 20)

	var stops, deltas, stopsMsg int
	for _, e := range events {
		switch e.Name {
		case "content_block_stop":
			stops++
		case "message_delta":
			deltas++
		case "message_stop":
			stopsMsg++
		}
	}
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, deltas)
	assert.Equal(t, 1, stopsMsg)

	// Calling Final again must not re-emit message_delta/message_stop.
	events2 := m.Final(10, 20)
	for _, e := range events2 {
		assert.NotEqual(t, "message_delta", e.Name)
		assert.NotEqual(t, "message_stop", e.Name)
	}
}
