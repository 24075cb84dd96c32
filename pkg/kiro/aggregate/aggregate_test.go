package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z871327332/kiro-gateway/pkg/kiro/events"
)

func TestAggregator_TextOnly(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.AssistantResponse{Content: "hello "})
	a.Feed(events.AssistantResponse{Content: "world"})
	result := a.Result()

	assert.Equal(t, "message", result["type"])
	assert.Equal(t, "end_turn", result["stop_reason"])
	content := result["content"].([]map[string]any)
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	assert.Equal(t, "hello world", content[0]["text"])
}

func TestAggregator_ToolUse_SetsStopReason(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.ToolUse{ToolUseID: "t1", Name: "Bash", Input: `{"cmd":`, Stop: false})
	a.Feed(events.ToolUse{ToolUseID: "t1", Name: "Bash", Input: `"ls"}`, Stop: true})
	result := a.Result()

	assert.Equal(t, "tool_use", result["stop_reason"])
	content := result["content"].([]map[string]any)
	require.Len(t, content, 1)
	assert.Equal(t, "tool_use", content[0]["type"])
	assert.Equal(t, "t1", content[0]["id"])
	assert.Equal(t, "Bash", content[0]["name"])

	var input map[string]any
	require.NoError(t, json.Unmarshal(content[0]["input"].(json.RawMessage), &input))
	assert.Equal(t, "ls", input["cmd"])
}

func TestAggregator_MalformedToolJSON_DegradesToEmptyObject(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.ToolUse{ToolUseID: "t1", Name: "Bash", Input: `{not valid json`, Stop: true})
	result := a.Result()

	content := result["content"].([]map[string]any)
	require.Len(t, content, 1)
	assert.JSONEq(t, "{}", string(content[0]["input"].(json.RawMessage)))
}

func TestAggregator_TextThenToolUse_OrderedContent(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.AssistantResponse{Content: "let me check"})
	a.Feed(events.ToolUse{ToolUseID: "t1", Name: "Bash", Input: `{}`, Stop: true})
	result := a.Result()

	content := result["content"].([]map[string]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0]["type"])
	assert.Equal(t, "tool_use", content[1]["type"])
}

func TestAggregator_ContextUsage_ConvertsToInputTokens(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.ContextUsage{Percentage: 25.0})
	result := a.Result()

	usage := result["usage"].(map[string]any)
	assert.Equal(t, 50000, usage["input_tokens"])
}

func TestAggregator_ContextUsageAtOrAbove100_StickyStopReason(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.ContextUsage{Percentage: 100.0})
	result := a.Result()
	assert.Equal(t, "model_context_window_exceeded", result["stop_reason"])
}

func TestAggregator_ContentLengthExceeded_StopReasonMaxTokens(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.AssistantResponse{Content: "partial"})
	a.Feed(events.ExceptionEvent{Type: events.ContentLengthExceededException, Message: "too long"})
	result := a.Result()
	assert.Equal(t, "max_tokens", result["stop_reason"])
}

func TestAggregator_MultipleToolUses_PreserveInsertionOrder(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	a.Feed(events.ToolUse{ToolUseID: "t1", Name: "Read", Input: `{}`, Stop: true})
	a.Feed(events.ToolUse{ToolUseID: "t2", Name: "Write", Input: `{}`, Stop: true})
	result := a.Result()

	content := result["content"].([]map[string]any)
	require.Len(t, content, 2)
	assert.Equal(t, "t1", content[0]["id"])
	assert.Equal(t, "t2", content[1]["id"])
}

func TestAggregator_MessageIDHasMsgPrefix(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	result := a.Result()
	id := result["id"].(string)
	assert.Regexp(t, `^msg_[0-9a-f]{32}$`, id)
}

func TestAggregator_EmptyResponse_NoContentBlocks(t *testing.T) {
	a := New("claude-sonnet-4.5", 10, nil)
	result := a.Result()
	content := result["content"].([]map[string]any)
	assert.Empty(t, content)
}
