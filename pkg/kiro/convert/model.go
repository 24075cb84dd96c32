// Package convert implements the request converter (C6): translating a
// MessagesRequest into the upstream Kiro conversation shape, enforcing the
// tool-pairing and history-alternation invariants (I1-I4). Grounded on
// original_source/src/anthropic/converter.rs in full.
package convert

import "strings"

// mapModel derives the upstream model family/version and the thinking
// override implied by a "-thinking" suffix, grounded on converter.rs's
// map_model. Matching is substring-based and case-insensitive; opus 4.5 vs
// 4.6 is disambiguated by the presence of "4-5" or "4.5", the inverse of the
// original's literal contains("4-6")||contains("4.6") check. The two agree
// for every model name in the catalog and diverge only for an out-of-catalog
// opus name carrying neither version marker; unified here for one branch
// instead of two.
func mapModel(model string) (family string, isOpus46 bool, forcedThinking bool) {
	lower := strings.ToLower(model)
	forcedThinking = strings.Contains(lower, "thinking")

	switch {
	case strings.Contains(lower, "opus"):
		if strings.Contains(lower, "4-5") || strings.Contains(lower, "4.5") {
			return "opus", false, forcedThinking
		}
		return "opus", true, forcedThinking
	case strings.Contains(lower, "haiku"):
		return "haiku", false, forcedThinking
	case strings.Contains(lower, "sonnet"):
		return "sonnet", false, forcedThinking
	default:
		return "", false, forcedThinking
	}
}

// upstreamModelID renders the canonical upstream model id for a mapped
// family, per spec.md §4.6 step 1.
func upstreamModelID(family string, isOpus46 bool) string {
	switch family {
	case "sonnet":
		return "claude-sonnet-4.5"
	case "opus":
		if isOpus46 {
			return "claude-opus-4.6"
		}
		return "claude-opus-4.5"
	case "haiku":
		return "claude-haiku-4.5"
	default:
		return ""
	}
}
