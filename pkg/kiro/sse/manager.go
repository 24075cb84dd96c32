package sse

// blockState tracks one content block's open/close lifecycle.
type blockState struct {
	blockType string
	started   bool
	stopped   bool
}

// Manager enforces I5 (exact SSE event ordering) and I6 (at most one open
// block per index) across a single message's lifetime.
type Manager struct {
	messageStarted    bool
	messageDeltaSent  bool
	messageEnded      bool
	activeBlocks      map[int]*blockState
	nextBlockIndex    int
	stopReason        string
	hasStopReason     bool
	hasToolUse        bool
}

// NewManager returns a fresh Manager for one message.
func NewManager() *Manager {
	return &Manager{activeBlocks: make(map[int]*blockState)}
}

// NextBlockIndex allocates and returns the next content-block index.
func (m *Manager) NextBlockIndex() int {
	i := m.nextBlockIndex
	m.nextBlockIndex++
	return i
}

// SetHasToolUse records that at least one tool_use block has been opened.
func (m *Manager) SetHasToolUse(has bool) {
	m.hasToolUse = has
}

// SetStopReason sets the sticky stop_reason, overriding the derived
// default computed by StopReason.
func (m *Manager) SetStopReason(reason string) {
	m.stopReason = reason
	m.hasStopReason = true
}

// HasNonThinkingBlocks reports whether any active block is of a type
// other than "thinking" — used to detect a response that produced only
// thinking output.
func (m *Manager) HasNonThinkingBlocks() bool {
	for _, b := range m.activeBlocks {
		if b.blockType != "thinking" {
			return true
		}
	}
	return false
}

// BlockOpenOfType reports whether index is currently an open, unstopped
// block of exactly blockType.
func (m *Manager) BlockOpenOfType(index int, blockType string) bool {
	b, ok := m.activeBlocks[index]
	return ok && b.started && !b.stopped && b.blockType == blockType
}

// StopReason derives the final stop_reason: the sticky value if set,
// otherwise "tool_use" when any tool_use block was opened, otherwise
// "end_turn".
func (m *Manager) StopReason() string {
	if m.hasStopReason {
		return m.stopReason
	}
	if m.hasToolUse {
		return "tool_use"
	}
	return "end_turn"
}

// MessageStart emits message_start exactly once; later calls are
// suppressed.
func (m *Manager) MessageStart(payload any) *Event {
	if m.messageStarted {
		return nil
	}
	m.messageStarted = true
	return &Event{Name: "message_start", Data: payload}
}

// BlockStart emits content_block_start for index, auto-closing any open
// text blocks first when blockType is "tool_use" (I6). Duplicate starts
// for an already-started index are suppressed.
func (m *Manager) BlockStart(index int, blockType string, payload any) []Event {
	var events []Event

	if blockType == "tool_use" {
		m.hasToolUse = true
		for idx, b := range m.activeBlocks {
			if b.blockType == "text" && b.started && !b.stopped {
				events = append(events, Event{Name: "content_block_stop", Data: map[string]any{
					"type":  "content_block_stop",
					"index": idx,
				}})
				b.stopped = true
			}
		}
	}

	b, ok := m.activeBlocks[index]
	if ok {
		if b.started {
			return events
		}
		b.started = true
	} else {
		m.activeBlocks[index] = &blockState{blockType: blockType, started: true}
	}

	events = append(events, Event{Name: "content_block_start", Data: payload})
	return events
}

// BlockDelta emits content_block_delta for index if it is currently open;
// otherwise the delta is dropped (the caller is expected to log).
func (m *Manager) BlockDelta(index int, payload any) *Event {
	b, ok := m.activeBlocks[index]
	if !ok || !b.started || b.stopped {
		return nil
	}
	return &Event{Name: "content_block_delta", Data: payload}
}

// BlockStop emits content_block_stop for index exactly once.
func (m *Manager) BlockStop(index int) *Event {
	b, ok := m.activeBlocks[index]
	if !ok || b.stopped {
		return nil
	}
	b.stopped = true
	return &Event{Name: "content_block_stop", Data: map[string]any{
		"type":  "content_block_stop",
		"index": index,
	}}
}

// Final closes any still-open blocks, then emits message_delta and
// message_stop in order.
func (m *Manager) Final(inputTokens, outputTokens int) []Event {
	var events []Event

	for idx, b := range m.activeBlocks {
		if b.started && !b.stopped {
			events = append(events, Event{Name: "content_block_stop", Data: map[string]any{
				"type":  "content_block_stop",
				"index": idx,
			}})
			b.stopped = true
		}
	}

	if !m.messageDeltaSent {
		m.messageDeltaSent = true
		events = append(events, Event{Name: "message_delta", Data: map[string]any{
			"type": "message_delta",
			"delta": map[string]any{
				"stop_reason":   m.StopReason(),
				"stop_sequence": nil,
			},
			"usage": map[string]any{
				"input_tokens":  inputTokens,
				"output_tokens": outputTokens,
			},
		}})
	}

	if !m.messageEnded {
		m.messageEnded = true
		events = append(events, Event{Name: "message_stop", Data: map[string]any{"type": "message_stop"}})
	}

	return events
}
