// Package aggregate implements the non-stream response aggregator (C10):
// draining a decoded upstream event sequence end-to-end into a single JSON
// Anthropic-style message envelope, rather than translating it into SSE.
// Grounded on original_source/src/anthropic/handlers.rs's
// handle_non_stream_request.
package aggregate

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/z871327332/kiro-gateway/pkg/kiro/events"
	"github.com/z871327332/kiro-gateway/pkg/kiro/msgid"
	"github.com/z871327332/kiro-gateway/pkg/kiro/token"
)

// contextWindowSize backs the contextUsageEvent-to-input-tokens conversion,
// matching stream.contextWindowSize.
const contextWindowSize = 200_000

// Aggregator accumulates one response's worth of upstream events and
// renders them as a single non-stream envelope.
type Aggregator struct {
	log *zap.Logger

	model       string
	inputTokens int

	textContent strings.Builder
	toolBuffers map[string]*strings.Builder
	toolOrder   []string
	toolMeta    map[string]toolMeta
	toolDone    map[string]json.RawMessage

	hasToolUse         bool
	stopReason         string
	contextInputTokens *int
}

type toolMeta struct {
	id   string
	name string
}

// New builds an Aggregator for one non-stream response. log may be nil, in
// which case a no-op logger is used.
func New(model string, inputTokens int, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{
		log:         log,
		model:       model,
		inputTokens: inputTokens,
		toolBuffers: make(map[string]*strings.Builder),
		toolMeta:    make(map[string]toolMeta),
		toolDone:    make(map[string]json.RawMessage),
		stopReason:  "end_turn",
	}
}

// Feed folds one decoded upstream Event into the aggregator's running
// state. It never returns an error: malformed tool-input JSON degrades to
// an empty object with a warning, matching the upstream behavior of never
// surfacing a decode hiccup as a client-visible failure.
func (a *Aggregator) Feed(ev events.Event) {
	switch e := ev.(type) {
	case events.AssistantResponse:
		a.textContent.WriteString(e.Content)

	case events.ToolUse:
		a.hasToolUse = true
		buf, ok := a.toolBuffers[e.ToolUseID]
		if !ok {
			buf = &strings.Builder{}
			a.toolBuffers[e.ToolUseID] = buf
			a.toolMeta[e.ToolUseID] = toolMeta{id: e.ToolUseID, name: e.Name}
			a.toolOrder = append(a.toolOrder, e.ToolUseID)
		}
		buf.WriteString(e.Input)

		if e.Stop {
			raw := buf.String()
			var parsed json.RawMessage
			if json.Valid([]byte(raw)) {
				parsed = json.RawMessage(raw)
			} else {
				a.log.Warn("tool input JSON parse failed",
					zap.String("tool_use_id", e.ToolUseID),
					zap.String("raw", raw),
				)
				parsed = json.RawMessage("{}")
			}
			a.toolDone[e.ToolUseID] = parsed
		}

	case events.ContextUsage:
		actual := int(e.Percentage * contextWindowSize / 100.0)
		a.contextInputTokens = &actual
		if e.Percentage >= 100.0 {
			a.stopReason = "model_context_window_exceeded"
		}

	case events.ExceptionEvent:
		if e.Type == events.ContentLengthExceededException {
			a.stopReason = "max_tokens"
		}

	case events.ErrorEvent:
		a.log.Warn("upstream error event", zap.String("message", e.Message))

	case events.Ignored:
		// nothing to do
	}
}

// Result builds the final JSON-ready envelope. Call once, after the
// upstream stream has fully drained.
func (a *Aggregator) Result() map[string]any {
	stopReason := a.stopReason
	if a.hasToolUse && stopReason == "end_turn" {
		stopReason = "tool_use"
	}

	var content []map[string]any
	text := a.textContent.String()
	if text != "" {
		content = append(content, map[string]any{
			"type": "text",
			"text": text,
		})
	}

	outputTokens := 0
	if text != "" {
		outputTokens += token.Estimate(text)
	}

	for _, id := range a.toolOrder {
		meta := a.toolMeta[id]
		input, ok := a.toolDone[id]
		if !ok {
			// The upstream stream ended without a final fragment for this
			// id; treat whatever arrived as complete rather than dropping
			// it silently.
			raw := a.toolBuffers[id].String()
			if json.Valid([]byte(raw)) {
				input = json.RawMessage(raw)
			} else {
				input = json.RawMessage("{}")
			}
		}
		content = append(content, map[string]any{
			"type":  "tool_use",
			"id":    meta.id,
			"name":  meta.name,
			"input": json.RawMessage(input),
		})
		outputTokens += (len(input) + 3) / 4
	}

	finalInputTokens := a.inputTokens
	if a.contextInputTokens != nil {
		finalInputTokens = *a.contextInputTokens
	}

	return map[string]any{
		"id":            msgid.New(),
		"type":          "message",
		"role":          "assistant",
		"content":       content,
		"model":         a.model,
		"stop_reason":   stopReason,
		"stop_sequence": nil,
		"usage": map[string]any{
			"input_tokens":  finalInputTokens,
			"output_tokens": outputTokens,
		},
	}
}
