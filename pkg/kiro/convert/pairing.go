package convert

import (
	"go.uber.org/zap"

	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

// validateToolPairing enforces I1, grounded on converter.rs's
// validate_tool_pairing + remove_orphaned_tool_uses: every tool_use_id in
// assistant history must have exactly one matching tool_result, located
// either earlier in history or in the current user message. Stray
// tool-results (duplicate or orphaned) are dropped from currentResults;
// tool-uses left unpaired after considering the current message are
// stripped from history.
func validateToolPairing(history []types.HistoryEntry, currentResults []types.ToolResultSpec, log *zap.Logger) ([]types.HistoryEntry, []types.ToolResultSpec) {
	allToolUseIDs := map[string]bool{}
	historyResultIDs := map[string]bool{}
	for _, h := range history {
		for _, tu := range h.ToolUses {
			allToolUseIDs[tu.ToolUseID] = true
		}
		for _, tr := range h.ToolResults {
			historyResultIDs[tr.ToolUseID] = true
		}
	}

	unpaired := map[string]bool{}
	for id := range allToolUseIDs {
		if !historyResultIDs[id] {
			unpaired[id] = true
		}
	}

	var acceptedResults []types.ToolResultSpec
	for _, tr := range currentResults {
		switch {
		case unpaired[tr.ToolUseID]:
			acceptedResults = append(acceptedResults, tr)
			delete(unpaired, tr.ToolUseID)
		case allToolUseIDs[tr.ToolUseID]:
			log.Warn("dropping duplicate tool_result", zap.String("tool_use_id", tr.ToolUseID))
		default:
			log.Warn("dropping orphan tool_result", zap.String("tool_use_id", tr.ToolUseID))
		}
	}

	cleaned := removeOrphanedToolUses(history, unpaired)
	return cleaned, acceptedResults
}

// removeOrphanedToolUses strips tool-use entries whose id remained in
// orphaned after the current message's tool-results were matched. An
// assistant entry that loses every tool-use gets a nil ToolUses slice
// (absent, not an empty list), per spec.md §4.6 step 9.
func removeOrphanedToolUses(history []types.HistoryEntry, orphaned map[string]bool) []types.HistoryEntry {
	if len(orphaned) == 0 {
		return history
	}
	out := make([]types.HistoryEntry, len(history))
	for i, h := range history {
		if h.Role != "assistant" || len(h.ToolUses) == 0 {
			out[i] = h
			continue
		}
		var kept []types.ToolUseSpec
		for _, tu := range h.ToolUses {
			if !orphaned[tu.ToolUseID] {
				kept = append(kept, tu)
			}
		}
		h.ToolUses = kept
		out[i] = h
	}
	return out
}
