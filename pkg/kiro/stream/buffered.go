package stream

import (
	"github.com/z871327332/kiro-gateway/pkg/kiro/events"
	"github.com/z871327332/kiro-gateway/pkg/kiro/sse"
)

// BufferedContext implements the "CC" endpoint's buffered streaming
// variant (spec.md §4.9/§6): no Anthropic event is emitted to the client
// until the upstream stream has ended, at which point the full sequence
// is rebuilt with the correct input_tokens (patched into the already
// generated message_start event once ContextUsage — or its absence — is
// known) and replayed at once. Grounded on
// original_source/src/anthropic/handlers.rs's create_buffered_sse_stream.
type BufferedContext struct {
	ctx      *Context
	buffered []sse.Event
}

// NewBufferedContext builds a BufferedContext for one streamed response.
func NewBufferedContext(model string, inputTokens int, thinkingEnabled bool) *BufferedContext {
	return &BufferedContext{ctx: NewContext(model, inputTokens, thinkingEnabled)}
}

// Start buffers the initial events (message_start, and the initial text
// block when thinking is disabled) without releasing them.
func (b *BufferedContext) Start() {
	b.buffered = append(b.buffered, b.ctx.GenerateInitialEvents()...)
}

// ProcessEvent feeds one decoded upstream event and buffers whatever SSE
// events it produces, again without releasing them.
func (b *BufferedContext) ProcessEvent(ev events.Event) {
	b.buffered = append(b.buffered, b.ctx.ProcessEvent(ev)...)
}

// Finish closes out the response (as GenerateFinalEvents does), patches
// the buffered message_start event's usage.input_tokens to the final
// resolved value, and returns the complete ordered event sequence to be
// emitted in one shot.
func (b *BufferedContext) Finish() []sse.Event {
	b.buffered = append(b.buffered, b.ctx.GenerateFinalEvents()...)

	finalInputTokens := b.ctx.inputTokens
	if b.ctx.contextInputTokens != nil {
		finalInputTokens = *b.ctx.contextInputTokens
	}

	for _, e := range b.buffered {
		if e.Name != "message_start" {
			continue
		}
		payload, ok := e.Data.(map[string]any)
		if !ok {
			continue
		}
		message, ok := payload["message"].(map[string]any)
		if !ok {
			continue
		}
		usage, ok := message["usage"].(map[string]any)
		if !ok {
			continue
		}
		usage["input_tokens"] = finalInputTokens
		break
	}

	return b.buffered
}
