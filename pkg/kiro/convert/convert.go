package convert

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/z871327332/kiro-gateway/pkg/kirror"
	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

// Result is the outcome of converting an inbound request, carrying both
// the upstream conversation and the bits the HTTP layer (out of core)
// needs to finish the response: the resolved upstream model id and
// whether thinking ended up enabled.
type Result struct {
	Conversation    types.ConversationState
	ModelID         string
	ThinkingEnabled bool
}

// ApplyThinkingOverride implements spec.md §4.6 step 2: a "-thinking"
// (or any "thinking"-bearing) model name forces extended thinking on,
// adaptive for opus-4.6 and enabled otherwise, and forces output effort
// "high" for opus-4.6. It mutates req in place and is idempotent, so it
// is safe to call here even when the HTTP layer already applied it.
func ApplyThinkingOverride(req *types.MessagesRequest) {
	family, isOpus46, forced := mapModel(req.Model)
	if family == "" || !forced {
		return
	}
	mode := "enabled"
	if isOpus46 {
		mode = "adaptive"
	}
	req.Thinking = &types.Thinking{Type: mode, BudgetTokens: 20000}
	if isOpus46 {
		if req.OutputConfig == nil {
			req.OutputConfig = &types.OutputConfig{}
		}
		req.OutputConfig.Effort = "high"
	}
}

// Convert rewrites an inbound chat request into the upstream conversation
// shape, per the 10-step pipeline of spec.md §4.6. It fails on an
// unrecognized model name, an empty message list, or message content that
// does not decode as JSON; every other irregularity (orphaned
// tool-use/tool-result, missing catalog entry) is repaired in place and
// logged.
func Convert(req *types.MessagesRequest, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// 1. Model mapping.
	family, isOpus46, _ := mapModel(req.Model)
	if family == "" {
		return nil, kirror.NewUnsupportedModel(req.Model)
	}
	modelID := upstreamModelID(family, isOpus46)

	// 2. Thinking-suffix rewrite (idempotent; may already have run upstream).
	ApplyThinkingOverride(req)

	// 3. Empty-messages check.
	if len(req.Messages) == 0 {
		return nil, kirror.NewEmptyMessages()
	}

	// 4. Conversation ID.
	conversationID, ok := "", false
	if req.Metadata != nil {
		conversationID, ok = extractSessionID(req.Metadata.UserID)
	}
	if !ok {
		conversationID = uuid.NewString()
	}
	agentContinuationID := uuid.NewString()

	// 5. Current message extraction.
	historyMessages, currentMsg := splitMessages(req.Messages)

	var current userContent
	if currentMsg != nil {
		blocks, err := decodeContentBlocks(currentMsg.Content)
		if err != nil {
			return nil, err
		}
		current = parseUserContent(blocks)
	}

	// 6. Tool conversion.
	catalog := convertTools(req.Tools)

	// 7-8. History construction (includes synthetic system/thinking pair
	// and per-message assistant composition via I4).
	history, err := buildHistory(req.System, historyMessages, req.Thinking, req.OutputConfig)
	if err != nil {
		return nil, err
	}

	// 9. Tool-pair validation (I1).
	history, acceptedResults := validateToolPairing(history, current.ToolResults, log)

	// 10. Tool-catalog completion (I2).
	catalog = completeToolCatalog(catalog, history)

	conv := types.NewConversationState(conversationID, agentContinuationID)
	conv.History = history
	conv.CurrentMessage = types.CurrentMessage{
		Content: current.Text,
		ModelID: modelID,
		Origin:  "AI_EDITOR",
		Images:  current.Images,
		Context: types.MessageContext{
			Tools:       catalog,
			ToolResults: acceptedResults,
		},
	}

	return &Result{
		Conversation:    conv,
		ModelID:         modelID,
		ThinkingEnabled: req.Thinking.IsEnabled(),
	}, nil
}
