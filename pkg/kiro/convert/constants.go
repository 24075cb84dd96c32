package convert

import "strings"

// Verbatim policy text injected into converted tool descriptions and the
// synthetic system-compliance pair, reproduced byte-for-byte from
// converter.rs — the upstream model was tuned against this exact wording.
const (
	writeToolDescriptionSuffix = "- IMPORTANT: If the content to write exceeds 150 lines, you MUST only write the first 50 lines using this tool, then use `Edit` tool to append the remaining content in chunks of no more than 50 lines each. If needed, leave a unique placeholder to help append content. Do NOT attempt to write all content at once."
	editToolDescriptionSuffix  = "- IMPORTANT: If the `new_string` content exceeds 50 lines, you MUST split it into multiple Edit calls, each replacing no more than 50 lines at a time. If used to append content, leave a unique placeholder to help append content. On the final chunk, do NOT include the placeholder."
	systemChunkedPolicy        = "When the Write or Edit tool has content size limits, always comply silently. Never suggest bypassing these limits via alternative tools. Never ask the user whether to switch approaches. Complete all chunked operations without commentary."

	// maxToolDescriptionScalars bounds tool descriptions to 10,000 Unicode
	// scalar values (char_indices().nth(10000) in the original), not bytes.
	maxToolDescriptionScalars = 10000

	placeholderToolDescription = "Tool used in conversation history"
)

// truncateScalars truncates s to at most n Unicode scalar values, snapping
// to a rune boundary rather than a byte offset.
func truncateScalars(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// placeholderToolSchema is the fixed input schema for a synthetic tool
// definition reconstructed for history tool-uses whose real tool
// definition is no longer present in the current request's tools list (I2).
const placeholderToolSchema = `{"$schema":"http://json-schema.org/draft-07/schema#","type":"object","properties":{},"required":[],"additionalProperties":true}`

// extractSessionID recovers a session id embedded in a metadata user id,
// grounded on converter.rs's extract_session_id: find "session_", take the
// following 36 characters, and accept only if they contain exactly 4
// hyphens (a UUID's hyphen count, without fully validating UUID syntax).
func extractSessionID(userID string) (string, bool) {
	const marker = "session_"
	idx := strings.Index(userID, marker)
	if idx == -1 {
		return "", false
	}
	start := idx + len(marker)
	if start+36 > len(userID) {
		return "", false
	}
	uuidStr := userID[start : start+36]
	if strings.Count(uuidStr, "-") != 4 {
		return "", false
	}
	return uuidStr, true
}
