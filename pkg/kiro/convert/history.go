package convert

import (
	"strings"

	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

// splitMessages separates the trailing current user turn from the history
// that precedes it. Per spec.md §4.6 step 4, the current message must be a
// user turn; a trailing assistant message is instead folded into history
// and there is no current-message content.
func splitMessages(messages []types.Message) (history []types.Message, current *types.Message) {
	if len(messages) == 0 {
		return nil, nil
	}
	last := messages[len(messages)-1]
	if last.Role == "user" {
		return messages[:len(messages)-1], &last
	}
	return messages, nil
}

// buildHistory constructs the ordered history list, grounded on
// converter.rs's build_history: an optional synthetic system/thinking pair
// first, then user-message merging (merge_user_messages) interleaved with
// assistant entries (convert_assistant_message / I4), ending with a
// trailing-user-buffer flush padded by a synthetic "OK" (I3).
func buildHistory(system []types.SystemSegment, messages []types.Message, thinking *types.Thinking, outputConfig *types.OutputConfig) ([]types.HistoryEntry, error) {
	var history []types.HistoryEntry

	if entry, ok := buildSystemPair(system, thinking, outputConfig); ok {
		history = append(history, entry.user, entry.assistant)
	}

	var buffered []userContent
	for _, m := range messages {
		blocks, err := decodeContentBlocks(m.Content)
		if err != nil {
			return nil, err
		}
		switch m.Role {
		case "user":
			buffered = append(buffered, parseUserContent(blocks))
		case "assistant":
			if len(buffered) > 0 {
				history = append(history, mergeUserMessages(buffered))
				buffered = nil

				ac := parseAssistantContent(blocks)
				history = append(history, types.HistoryEntry{
					Role:     "assistant",
					Text:     composeAssistantContent(ac),
					ToolUses: ac.ToolUses,
				})
			}
		}
	}
	if len(buffered) > 0 {
		history = append(history, mergeUserMessages(buffered))
		history = append(history, types.HistoryEntry{Role: "assistant", Text: "OK"})
	}

	return history, nil
}

type systemPair struct {
	user, assistant types.HistoryEntry
}

// buildSystemPair synthesizes the leading (user, assistant) history pair
// carrying the system prompt and/or the thinking-mode tags.
func buildSystemPair(system []types.SystemSegment, thinking *types.Thinking, outputConfig *types.OutputConfig) (systemPair, bool) {
	thinkingOn := thinking.IsEnabled()

	var segs []string
	for _, s := range system {
		if s.Text != "" {
			segs = append(segs, s.Text)
		}
	}
	base := strings.Join(segs, "\n")

	if base == "" {
		if !thinkingOn {
			return systemPair{}, false
		}
		prefix := generateThinkingPrefix(thinking, outputConfig)
		return systemPair{
			user:      types.HistoryEntry{Role: "user", Text: prefix},
			assistant: types.HistoryEntry{Role: "assistant", Text: "I will follow these instructions."},
		}, true
	}

	content := base
	if thinkingOn && !hasThinkingTags(base) {
		content = generateThinkingPrefix(thinking, outputConfig) + "\n" + content
	}
	content = content + "\n" + systemChunkedPolicy

	return systemPair{
		user:      types.HistoryEntry{Role: "user", Text: content},
		assistant: types.HistoryEntry{Role: "assistant", Text: "I will follow these instructions."},
	}, true
}

// mergeUserMessages flattens a run of consecutive user messages into one
// history entry: text joined by "\n", images and tool-results concatenated
// in order, grounded on converter.rs's merge_user_messages.
func mergeUserMessages(buffered []userContent) types.HistoryEntry {
	var texts []string
	var images []types.Image
	var toolResults []types.ToolResultSpec
	for _, c := range buffered {
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
		images = append(images, c.Images...)
		toolResults = append(toolResults, c.ToolResults...)
	}
	return types.HistoryEntry{
		Role:        "user",
		Text:        strings.Join(texts, "\n"),
		Images:      images,
		ToolResults: toolResults,
	}
}
