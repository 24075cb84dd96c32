package convert

import (
	"fmt"
	"strings"

	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

// convertTools builds the upstream tool catalog from the declared tools,
// appending the chunked-write policy suffix to "Write" and "Edit" tools
// (exact-name match) and truncating the result at the scalar boundary.
func convertTools(tools []types.Tool) []types.ToolSpec {
	out := make([]types.ToolSpec, 0, len(tools))
	for _, t := range tools {
		desc := t.Description
		switch t.Name {
		case "Write":
			desc = desc + "\n" + writeToolDescriptionSuffix
		case "Edit":
			desc = desc + "\n" + editToolDescriptionSuffix
		}
		desc = truncateScalars(desc, maxToolDescriptionScalars)
		out = append(out, types.ToolSpec{
			Name:        t.Name,
			Description: desc,
			JSONSchema:  t.InputSchema,
		})
	}
	return out
}

// createPlaceholderTool synthesizes a catalog entry for a tool name
// referenced in history but absent from the declared catalog (I2).
func createPlaceholderTool(name string) types.ToolSpec {
	return types.ToolSpec{
		Name:        name,
		Description: placeholderToolDescription,
		JSONSchema:  []byte(placeholderToolSchema),
	}
}

// collectHistoryToolNames gathers the distinct tool names referenced by
// tool-use entries across history, used to drive I2's catalog completion.
func collectHistoryToolNames(history []types.HistoryEntry) []string {
	seen := map[string]bool{}
	var names []string
	for _, h := range history {
		for _, tu := range h.ToolUses {
			if !seen[tu.Name] {
				seen[tu.Name] = true
				names = append(names, tu.Name)
			}
		}
	}
	return names
}

// completeToolCatalog enforces I2: every tool name referenced in history
// must appear in the catalog, case-insensitively; names that are missing
// get a synthesized placeholder entry.
func completeToolCatalog(catalog []types.ToolSpec, history []types.HistoryEntry) []types.ToolSpec {
	present := map[string]bool{}
	for _, t := range catalog {
		present[strings.ToLower(t.Name)] = true
	}
	for _, name := range collectHistoryToolNames(history) {
		if !present[strings.ToLower(name)] {
			catalog = append(catalog, createPlaceholderTool(name))
			present[strings.ToLower(name)] = true
		}
	}
	return catalog
}

// hasThinkingTags reports whether s already carries a <thinking_mode> tag,
// used to avoid double-injecting the synthetic thinking prefix.
func hasThinkingTags(s string) bool {
	return strings.Contains(s, "<thinking_mode>")
}

// generateThinkingPrefix renders the synthetic tag block describing the
// requested thinking mode, grounded on converter.rs's
// generate_thinking_prefix. effort defaults to "high" when outputConfig is
// nil, matching the original's fallback.
func generateThinkingPrefix(thinking *types.Thinking, outputConfig *types.OutputConfig) string {
	if thinking == nil {
		return ""
	}
	switch thinking.Type {
	case "enabled":
		return fmt.Sprintf("<thinking_mode>enabled</thinking_mode><max_thinking_length>%d</max_thinking_length>", thinking.BudgetTokens)
	case "adaptive":
		effort := "high"
		if outputConfig != nil && outputConfig.Effort != "" {
			effort = outputConfig.Effort
		}
		return fmt.Sprintf("<thinking_mode>adaptive</thinking_mode><thinking_effort>%s</thinking_effort>", effort)
	default:
		return ""
	}
}
