package types

import "encoding/json"

// ConversationState is the upstream Kiro conversation payload produced by
// request conversion (C6), per spec.md §3 "Upstream conversation state".
type ConversationState struct {
	ConversationID      string         `json:"conversationId"`
	AgentContinuationID string         `json:"agentContinuationId"`
	AgentTaskType       string         `json:"agentTaskType"`
	ChatTriggerType     string         `json:"chatTriggerType"`
	CurrentMessage      CurrentMessage `json:"currentMessage"`
	History             []HistoryEntry `json:"history"`
}

// NewConversationState builds the fixed-field skeleton shared by every
// converted request.
func NewConversationState(conversationID, agentContinuationID string) ConversationState {
	return ConversationState{
		ConversationID:      conversationID,
		AgentContinuationID: agentContinuationID,
		AgentTaskType:       "vibe",
		ChatTriggerType:     "MANUAL",
	}
}

// CurrentMessage is the final user turn of a converted request, wrapped
// under "userInputMessage" to match the history entries' shape.
type CurrentMessage struct {
	Content string         `json:"content"`
	ModelID string         `json:"modelId"`
	Origin  string         `json:"origin"`
	Images  []Image        `json:"images,omitempty"`
	Context MessageContext `json:"userInputMessageContext"`
}

// MarshalJSON wraps CurrentMessage under "userInputMessage" to mirror the
// history entries' union shape.
func (m CurrentMessage) MarshalJSON() ([]byte, error) {
	type alias CurrentMessage
	return json.Marshal(struct {
		UserInputMessage alias `json:"userInputMessage"`
	}{alias(m)})
}

// Image is a decoded inline image attachment.
type Image struct {
	Format string `json:"format"`
	Bytes  []byte `json:"bytes"`
}

// MessageContext carries the tool catalog and any tool-results belonging
// to the current message.
type MessageContext struct {
	Tools       []ToolSpec       `json:"tools,omitempty"`
	ToolResults []ToolResultSpec `json:"toolResults,omitempty"`
}

// ToolSpec is a converted tool definition offered to the upstream model.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	JSONSchema  json.RawMessage `json:"inputSchema"`
}

// ToolResultSpec is a converted tool-result attached to a user turn.
type ToolResultSpec struct {
	ToolUseID string `json:"toolUseId"`
	Content   string `json:"content"`
	IsError   bool   `json:"isError"`
	Status    string `json:"status"`
}

// ToolUseSpec is a converted tool invocation recorded in assistant history.
type ToolUseSpec struct {
	ToolUseID string `json:"toolUseId"`
	Name      string `json:"name"`
	InputJSON string `json:"input"`
}

// HistoryEntry is one alternating user/assistant turn in the converted
// history (I3). Exactly one of the role-specific field groups is
// meaningful, selected by Role.
type HistoryEntry struct {
	Role string // "user" | "assistant"

	Text string // content for both roles

	ToolUses []ToolUseSpec // assistant-only

	ToolResults []ToolResultSpec // user-only
	Images      []Image          // user-only
}

// MarshalJSON renders a HistoryEntry as the upstream's tagged union:
// {"userInputMessage": {...}} or {"assistantResponseMessage": {...}}.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	switch h.Role {
	case "assistant":
		type assistantMsg struct {
			Content  string        `json:"content"`
			ToolUses []ToolUseSpec `json:"toolUses,omitempty"`
		}
		return json.Marshal(struct {
			AssistantResponseMessage assistantMsg `json:"assistantResponseMessage"`
		}{assistantMsg{Content: h.Text, ToolUses: h.ToolUses}})
	default:
		type userMsg struct {
			Content string         `json:"content"`
			Images  []Image        `json:"images,omitempty"`
			Context MessageContext `json:"userInputMessageContext"`
		}
		return json.Marshal(struct {
			UserInputMessage userMsg `json:"userInputMessage"`
		}{userMsg{
			Content: h.Text,
			Images:  h.Images,
			Context: MessageContext{ToolResults: h.ToolResults},
		}})
	}
}
