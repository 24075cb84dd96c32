package token

import (
	"encoding/json"

	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

// EstimateRequest sums the crude per-string Estimate across a request's
// system prompt, message content, and tool descriptions/schemas, grounded
// on handlers.rs's count_tokens handler (token::count_all_tokens).
// Content blocks that fail to decode are skipped rather than failing the
// whole estimate — count_tokens is advisory only.
func EstimateRequest(system []types.SystemSegment, messages []types.Message, tools []types.Tool) int {
	total := 0

	for _, s := range system {
		total += Estimate(s.Text)
	}

	for _, m := range messages {
		total += estimateContent(m.Content)
	}

	for _, t := range tools {
		total += Estimate(t.Name)
		total += Estimate(t.Description)
		total += (len(t.InputSchema) + 3) / 4
	}

	return total
}

func estimateContent(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Estimate(text)
	}

	var blocks []struct {
		Type     string          `json:"type"`
		Text     string          `json:"text"`
		Thinking string          `json:"thinking"`
		Input    json.RawMessage `json:"input"`
		Content  json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return 0
	}

	total := 0
	for _, b := range blocks {
		switch b.Type {
		case "text":
			total += Estimate(b.Text)
		case "thinking":
			total += Estimate(b.Thinking)
		case "tool_use":
			total += (len(b.Input) + 3) / 4
		case "tool_result":
			var s string
			if json.Unmarshal(b.Content, &s) == nil {
				total += Estimate(s)
			}
		}
	}
	return total
}
