// Package stream orchestrates C4→C5→C7/C8 into the outbound Anthropic
// SSE sequence (C9). Grounded on
// original_source/src/anthropic/stream.rs's StreamContext.
package stream

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/z871327332/kiro-gateway/pkg/kiro/events"
	"github.com/z871327332/kiro-gateway/pkg/kiro/msgid"
	"github.com/z871327332/kiro-gateway/pkg/kiro/sse"
	"github.com/z871327332/kiro-gateway/pkg/kiro/thinking"
	"github.com/z871327332/kiro-gateway/pkg/kiro/token"
)

// contextWindowSize backs the contextUsageEvent-to-input-tokens conversion.
const contextWindowSize = 200_000

// Context drives one response's worth of upstream events into SSE events,
// holding the running token counts and thinking/tool-use bookkeeping a
// single response needs.
type Context struct {
	Manager *sse.Manager

	model     string
	messageID string

	inputTokens        int
	contextInputTokens *int
	outputTokens       int

	toolBlockIndices map[string]int

	thinkingEnabled    bool
	extractor          *thinking.Extractor
	thinkingBlockIndex *int
	textBlockIndex     *int
}

// NewContext builds a Context for one streamed response.
func NewContext(model string, inputTokens int, thinkingEnabled bool) *Context {
	return &Context{
		Manager:          sse.NewManager(),
		model:            model,
		messageID:        msgid.New(),
		inputTokens:      inputTokens,
		toolBlockIndices: make(map[string]int),
		thinkingEnabled:  thinkingEnabled,
		extractor:        thinking.NewExtractor(),
	}
}

// MessageID returns the synthetic message id assigned to this response.
func (c *Context) MessageID() string { return c.messageID }

func (c *Context) messageStartPayload() map[string]any {
	return map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":            c.messageID,
			"type":          "message",
			"role":          "assistant",
			"content":       []any{},
			"model":         c.model,
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage": map[string]any{
				"input_tokens":  c.inputTokens,
				"output_tokens": 1,
			},
		},
	}
}

// GenerateInitialEvents returns message_start, plus an initial empty text
// block when thinking is not enabled. When thinking is enabled, the text
// block is created lazily once real content arrives, so a thinking block
// that opens the response takes index 0; text that arrives before any
// thinking tag takes index 0 instead.
func (c *Context) GenerateInitialEvents() []sse.Event {
	var out []sse.Event
	if ev := c.Manager.MessageStart(c.messageStartPayload()); ev != nil {
		out = append(out, *ev)
	}
	if c.thinkingEnabled {
		return out
	}
	idx := c.Manager.NextBlockIndex()
	c.textBlockIndex = &idx
	out = append(out, c.Manager.BlockStart(idx, "text", map[string]any{
		"type":  "content_block_start",
		"index": idx,
		"content_block": map[string]any{
			"type": "text",
			"text": "",
		},
	})...)
	return out
}

// ProcessEvent converts one decoded upstream Event into zero or more SSE
// events, grounded on process_kiro_event.
func (c *Context) ProcessEvent(ev events.Event) []sse.Event {
	switch e := ev.(type) {
	case events.AssistantResponse:
		return c.processAssistantResponse(e.Content)
	case events.ToolUse:
		return c.processToolUse(e)
	case events.ContextUsage:
		actual := int(e.Percentage * contextWindowSize / 100.0)
		c.contextInputTokens = &actual
		if e.Percentage >= 100.0 {
			c.Manager.SetStopReason("model_context_window_exceeded")
		}
		return nil
	case events.ExceptionEvent:
		if e.Type == events.ContentLengthExceededException {
			c.Manager.SetStopReason("max_tokens")
		}
		return nil
	default:
		return nil
	}
}

func (c *Context) processAssistantResponse(content string) []sse.Event {
	if content == "" {
		return nil
	}
	c.outputTokens += token.Estimate(content)

	if c.thinkingEnabled {
		return c.translateSegments(c.extractor.Feed(content))
	}
	return c.createTextDeltaEvents(content)
}

// createTextDeltaEvents emits (and self-heals) the current text block.
// When tool_use auto-closes the text block, the next text content creates
// a fresh block rather than being silently dropped.
func (c *Context) createTextDeltaEvents(text string) []sse.Event {
	var out []sse.Event

	if c.textBlockIndex != nil && !c.isBlockOpenOfType(*c.textBlockIndex, "text") {
		c.textBlockIndex = nil
	}

	var idx int
	if c.textBlockIndex != nil {
		idx = *c.textBlockIndex
	} else {
		idx = c.Manager.NextBlockIndex()
		c.textBlockIndex = &idx
		out = append(out, c.Manager.BlockStart(idx, "text", map[string]any{
			"type":  "content_block_start",
			"index": idx,
			"content_block": map[string]any{
				"type": "text",
				"text": "",
			},
		})...)
	}

	if d := c.Manager.BlockDelta(idx, map[string]any{
		"type":  "content_block_delta",
		"index": idx,
		"delta": map[string]any{
			"type": "text_delta",
			"text": text,
		},
	}); d != nil {
		out = append(out, *d)
	}
	return out
}

func (c *Context) isBlockOpenOfType(index int, blockType string) bool {
	return c.Manager.BlockOpenOfType(index, blockType)
}

func (c *Context) createThinkingDeltaEvent(index int, text string) sse.Event {
	return sse.Event{Name: "content_block_delta", Data: map[string]any{
		"type":  "content_block_delta",
		"index": index,
		"delta": map[string]any{
			"type":     "thinking_delta",
			"thinking": text,
		},
	}}
}

// createSignatureDeltaEvent synthesizes a signature_delta, required by
// downstream clients to treat the thinking block as valid: a SHA-256 hash
// over (message_id, block index LE, output tokens LE), hex-encoded.
func (c *Context) createSignatureDeltaEvent(index int) sse.Event {
	h := sha256.New()
	h.Write([]byte(c.messageID))
	var idxBuf, outBuf [4]byte
	binary.LittleEndian.PutUint32(idxBuf[:], uint32(index))
	binary.LittleEndian.PutUint32(outBuf[:], uint32(c.outputTokens))
	h.Write(idxBuf[:])
	h.Write(outBuf[:])
	signature := hex.EncodeToString(h.Sum(nil))
	return sse.Event{Name: "content_block_delta", Data: map[string]any{
		"type":  "content_block_delta",
		"index": index,
		"delta": map[string]any{
			"type":      "signature_delta",
			"signature": signature,
		},
	}}
}

// closeThinkingBlock emits the fixed closing sequence: empty thinking
// delta, signature delta, content_block_stop.
func (c *Context) closeThinkingBlock(index int) []sse.Event {
	out := []sse.Event{
		c.createThinkingDeltaEvent(index, ""),
		c.createSignatureDeltaEvent(index),
	}
	if ev := c.Manager.BlockStop(index); ev != nil {
		out = append(out, *ev)
	}
	return out
}

// translateSegments renders thinking.Segments into SSE events, allocating
// the thinking block's index on ThinkingOpen and routing Text segments
// through the self-healing text-delta path.
func (c *Context) translateSegments(segs []thinking.Segment) []sse.Event {
	var out []sse.Event
	for _, s := range segs {
		switch s.Kind {
		case thinking.Text:
			out = append(out, c.createTextDeltaEvents(s.Text)...)
		case thinking.ThinkingOpen:
			idx := c.Manager.NextBlockIndex()
			c.thinkingBlockIndex = &idx
			out = append(out, c.Manager.BlockStart(idx, "thinking", map[string]any{
				"type":  "content_block_start",
				"index": idx,
				"content_block": map[string]any{
					"type":     "thinking",
					"thinking": "",
				},
			})...)
		case thinking.ThinkingDelta:
			if c.thinkingBlockIndex != nil && s.Text != "" {
				out = append(out, c.createThinkingDeltaEvent(*c.thinkingBlockIndex, s.Text))
			}
		case thinking.ThinkingClose:
			if c.thinkingBlockIndex != nil {
				out = append(out, c.closeThinkingBlock(*c.thinkingBlockIndex)...)
			}
		}
	}
	return out
}

func (c *Context) processToolUse(tu events.ToolUse) []sse.Event {
	var out []sse.Event
	c.Manager.SetHasToolUse(true)

	if c.thinkingEnabled {
		out = append(out, c.translateSegments(c.extractor.Boundary())...)
	}

	idx, ok := c.toolBlockIndices[tu.ToolUseID]
	if !ok {
		idx = c.Manager.NextBlockIndex()
		c.toolBlockIndices[tu.ToolUseID] = idx
	}

	out = append(out, c.Manager.BlockStart(idx, "tool_use", map[string]any{
		"type":  "content_block_start",
		"index": idx,
		"content_block": map[string]any{
			"type":  "tool_use",
			"id":    tu.ToolUseID,
			"name":  tu.Name,
			"input": map[string]any{},
		},
	})...)

	if tu.Input != "" {
		c.outputTokens += (len(tu.Input) + 3) / 4
		if d := c.Manager.BlockDelta(idx, map[string]any{
			"type":  "content_block_delta",
			"index": idx,
			"delta": map[string]any{
				"type":         "input_json_delta",
				"partial_json": tu.Input,
			},
		}); d != nil {
			out = append(out, *d)
		}
	}

	if tu.Stop {
		if ev := c.Manager.BlockStop(idx); ev != nil {
			out = append(out, *ev)
		}
	}
	return out
}

// GenerateFinalEvents flushes any pending thinking content, pads a
// thinking-only response with a text block holding a single space (forcing stop_reason
// "max_tokens"), and emits the closing message_delta/message_stop pair.
func (c *Context) GenerateFinalEvents() []sse.Event {
	var out []sse.Event

	if c.thinkingEnabled {
		out = append(out, c.translateSegments(c.extractor.Flush())...)
	}

	if c.thinkingEnabled && c.thinkingBlockIndex != nil && !c.Manager.HasNonThinkingBlocks() {
		c.Manager.SetStopReason("max_tokens")
		out = append(out, c.createTextDeltaEvents(" ")...)
	}

	finalInputTokens := c.inputTokens
	if c.contextInputTokens != nil {
		finalInputTokens = *c.contextInputTokens
	}

	out = append(out, c.Manager.Final(finalInputTokens, c.outputTokens)...)
	return out
}
