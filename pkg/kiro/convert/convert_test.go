package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/z871327332/kiro-gateway/pkg/kirror"
	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

func textMsg(role, text string) types.Message {
	return types.Message{Role: role, Content: rawStr(text)}
}

func rawStr(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func TestMapModel(t *testing.T) {
	cases := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4-20250514", "claude-sonnet-4.5"},
		{"claude-3-5-sonnet-20241022", "claude-sonnet-4.5"},
		{"claude-opus-4-20250514", "claude-opus-4.6"},
		{"claude-haiku-4-20250514", "claude-haiku-4.5"},
		{"claude-sonnet-4-5-20250929-thinking", "claude-sonnet-4.5"},
		{"claude-opus-4-5-20251101-thinking", "claude-opus-4.5"},
		{"claude-opus-4-6-thinking", "claude-opus-4.6"},
		{"claude-haiku-4-5-20251001-thinking", "claude-haiku-4.5"},
	}
	for _, c := range cases {
		family, isOpus46, _ := mapModel(c.model)
		assert.Equal(t, c.want, upstreamModelID(family, isOpus46), c.model)
	}
}

func TestMapModel_Unsupported(t *testing.T) {
	family, _, _ := mapModel("gpt-4")
	assert.Empty(t, family)
}

func TestExtractSessionID_Valid(t *testing.T) {
	userID := "user_0dede55c6dcc4a11a30bbb5e7f22e6fdf86cdeba3820019cc27612af4e1243cd_account__session_8bb5523b-ec7c-4540-a9ca-beb6d79f1552"
	id, ok := extractSessionID(userID)
	require.True(t, ok)
	assert.Equal(t, "8bb5523b-ec7c-4540-a9ca-beb6d79f1552", id)
}

func TestExtractSessionID_NoSession(t *testing.T) {
	_, ok := extractSessionID("user_0dede55c6dcc4a11a30bbb5e7f22e6fdf86cdeba3820019cc27612af4e1243cd")
	assert.False(t, ok)
}

func TestExtractSessionID_InvalidUUID(t *testing.T) {
	_, ok := extractSessionID("user_xxx_session_invalid-uuid")
	assert.False(t, ok)
}

func TestConvert_UnsupportedModel(t *testing.T) {
	req := &types.MessagesRequest{Model: "gpt-4", Messages: []types.Message{textMsg("user", "hi")}}
	_, err := Convert(req, zap.NewNop())
	require.Error(t, err)
	assert.True(t, kirror.IsConversionError(err))
}

func TestConvert_EmptyMessages(t *testing.T) {
	req := &types.MessagesRequest{Model: "claude-sonnet-4"}
	_, err := Convert(req, zap.NewNop())
	require.Error(t, err)
	assert.True(t, kirror.IsConversionError(err))
}

func TestConvert_SessionMetadata(t *testing.T) {
	req := &types.MessagesRequest{
		Model:    "claude-sonnet-4",
		Messages: []types.Message{textMsg("user", "Hello")},
		Metadata: &types.Metadata{UserID: "user_xxx_account__session_a0662283-7fd3-4399-a7eb-52b9a717ae88"},
	}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "a0662283-7fd3-4399-a7eb-52b9a717ae88", result.Conversation.ConversationID)
}

func TestConvert_WithoutMetadata_GeneratesUUID(t *testing.T) {
	req := &types.MessagesRequest{Model: "claude-sonnet-4", Messages: []types.Message{textMsg("user", "Hello")}}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)
	id := result.Conversation.ConversationID
	assert.Len(t, id, 36)
	hyphens := 0
	for _, c := range id {
		if c == '-' {
			hyphens++
		}
	}
	assert.Equal(t, 4, hyphens)
}

// S3 — Orphan filtering, per spec.md §11 scenario S3.
func TestConvert_OrphanFiltering(t *testing.T) {
	assistantContentJSON := `[{"type":"text","text":"using tools"},` +
		`{"type":"tool_use","id":"t1","name":"read","input":{}},` +
		`{"type":"tool_use","id":"t2","name":"read","input":{}},` +
		`{"type":"tool_use","id":"t3","name":"read","input":{}}]`
	req := &types.MessagesRequest{
		Model: "claude-sonnet-4",
		Messages: []types.Message{
			textMsg("user", "do three things"),
			{Role: "assistant", Content: []byte(assistantContentJSON)},
			{Role: "user", Content: []byte(`[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]`)},
			{Role: "user", Content: []byte(`[{"type":"tool_result","tool_use_id":"t3","content":"ok"},{"type":"tool_result","tool_use_id":"t9","content":"spurious"}]`)},
		},
	}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)

	// The current message is the trailing user tool-result turn; its
	// accepted results should contain only t3.
	assert.Equal(t, []types.ToolResultSpec{{ToolUseID: "t3", Content: "ok", Status: "success"}}, result.Conversation.CurrentMessage.Context.ToolResults)

	// Find the first assistant history entry (the later one is the "OK"
	// padding) and check only t2 was orphan-removed while t1 stays
	// (already paired by the first history tool_result).
	var assistantEntry *types.HistoryEntry
	for i := range result.Conversation.History {
		if result.Conversation.History[i].Role == "assistant" {
			assistantEntry = &result.Conversation.History[i]
			break
		}
	}
	require.NotNil(t, assistantEntry)
	var ids []string
	for _, tu := range assistantEntry.ToolUses {
		ids = append(ids, tu.ToolUseID)
	}
	assert.Equal(t, []string{"t1", "t3"}, ids)
}

func TestConvert_TrailingUserBecomesCurrentMessage(t *testing.T) {
	req := &types.MessagesRequest{
		Model: "claude-sonnet-4",
		Messages: []types.Message{
			textMsg("user", "first"),
			textMsg("assistant", "second"),
			textMsg("user", "third"),
		},
	}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)
	// "third" becomes the current message (trailing user), so history ends
	// at "second" with no trailing buffer to pad.
	assert.Equal(t, "third", result.Conversation.CurrentMessage.Content)
}

// I3: a trailing unmatched user entry left in *history* (not the current
// message) is padded with a synthetic assistant "OK".
func TestConvert_HistoryTrailingUserPaddedWithOK(t *testing.T) {
	req := &types.MessagesRequest{
		Model: "claude-sonnet-4",
		Messages: []types.Message{
			textMsg("user", "first"),
			textMsg("user", "second"),
		},
	}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, result.Conversation.History, 2)
	assert.Equal(t, "user", result.Conversation.History[0].Role)
	assert.Equal(t, "first", result.Conversation.History[0].Text)
	assert.Equal(t, "assistant", result.Conversation.History[1].Role)
	assert.Equal(t, "OK", result.Conversation.History[1].Text)
}

func TestConvert_ToolCatalogPlaceholder(t *testing.T) {
	req := &types.MessagesRequest{
		Model: "claude-sonnet-4",
		Messages: []types.Message{
			textMsg("user", "Read the file"),
			{Role: "assistant", Content: []byte(`[{"type":"text","text":"I'll read the file."},{"type":"tool_use","id":"tool-1","name":"read","input":{"path":"/test.txt"}}]`)},
			{Role: "user", Content: []byte(`[{"type":"tool_result","tool_use_id":"tool-1","content":"file content"}]`)},
		},
	}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)
	var found bool
	for _, tool := range result.Conversation.CurrentMessage.Context.Tools {
		if tool.Name == "read" {
			found = true
		}
	}
	assert.True(t, found, "placeholder tool for 'read' should be synthesized")
}

func TestConvertTools_WriteEditSuffix(t *testing.T) {
	tools := []types.Tool{
		{Name: "Write", Description: "writes files"},
		{Name: "Edit", Description: "edits files"},
		{Name: "Read", Description: "reads files"},
	}
	out := convertTools(tools)
	assert.Contains(t, out[0].Description, writeToolDescriptionSuffix)
	assert.Contains(t, out[1].Description, editToolDescriptionSuffix)
	assert.NotContains(t, out[2].Description, writeToolDescriptionSuffix)
}

// The thinking prefix must sit on its own line above the system text, not
// be glued onto it — converter.rs:531 joins them with "\n".
func TestConvert_ThinkingPrefixSeparatedFromSystemByNewline(t *testing.T) {
	req := &types.MessagesRequest{
		Model:    "claude-sonnet-4",
		System:   []types.SystemSegment{{Type: "text", Text: "You are a helpful assistant."}},
		Thinking: &types.Thinking{Type: "enabled", BudgetTokens: 1024},
		Messages: []types.Message{textMsg("user", "hi")},
	}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, result.Conversation.History)
	systemText := result.Conversation.History[0].Text
	prefix := generateThinkingPrefix(req.Thinking, nil)
	assert.Contains(t, systemText, prefix+"\nYou are a helpful assistant.")
}

// I4/alternation: an assistant turn with no preceding buffered user content
// (e.g. two consecutive assistant messages) is dropped rather than appended
// unconditionally, matching converter.rs:580-591's guard on a non-empty
// user_buffer.
func TestConvert_ConsecutiveAssistantWithoutUserIsDropped(t *testing.T) {
	req := &types.MessagesRequest{
		Model: "claude-sonnet-4",
		Messages: []types.Message{
			textMsg("user", "first"),
			textMsg("assistant", "reply one"),
			textMsg("assistant", "reply two"),
			textMsg("user", "third"),
		},
	}
	result, err := Convert(req, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, result.Conversation.History, 2)
	assert.Equal(t, "user", result.Conversation.History[0].Role)
	assert.Equal(t, "first", result.Conversation.History[0].Text)
	assert.Equal(t, "assistant", result.Conversation.History[1].Role)
	assert.Equal(t, "reply one", result.Conversation.History[1].Text)
}

func TestComposeAssistantContent_I4(t *testing.T) {
	assert.Equal(t, " ", composeAssistantContent(assistantContent{ToolUses: []types.ToolUseSpec{{ToolUseID: "a"}}}))
	assert.Equal(t, "<thinking>T</thinking>", composeAssistantContent(assistantContent{Thinking: "T"}))
	assert.Equal(t, "<thinking>T</thinking>\n\ntext", composeAssistantContent(assistantContent{Thinking: "T", Text: "text"}))
	assert.Equal(t, "hello", composeAssistantContent(assistantContent{Text: "hello"}))
}
