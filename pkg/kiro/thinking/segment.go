package thinking

import "strings"

// Kind distinguishes the segments an Extractor emits.
type Kind int

const (
	Text Kind = iota
	ThinkingOpen
	ThinkingDelta
	ThinkingClose
)

// Segment is one piece of the extractor's output. Text and ThinkingDelta
// carry content; ThinkingOpen/ThinkingClose are pure lifecycle markers.
type Segment struct {
	Kind Kind
	Text string
}

// Extractor pulls a single <thinking>...</thinking> span out of an
// incrementally-fed text stream, emitting Text segments for everything
// outside the span and ThinkingDelta segments for everything inside it.
// Only the first thinking span is recognized; once closed, all further
// content is Text (mirrors the upstream model emitting thinking at most
// once per response).
type Extractor struct {
	buffer              string
	inThinkingBlock      bool
	thinkingExtracted    bool
	stripLeadingNewline  bool
}

// NewExtractor returns a fresh Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// InThinkingBlock reports whether a thinking span is currently open.
func (e *Extractor) InThinkingBlock() bool { return e.inThinkingBlock }

// Extracted reports whether a thinking span has already been closed.
func (e *Extractor) Extracted() bool { return e.thinkingExtracted }

// Feed processes one incremental chunk of model output, grounded on
// process_content_with_thinking. It buffers content across calls so a
// <thinking> or </thinking> tag split across chunk boundaries is still
// recognized.
func (e *Extractor) Feed(content string) []Segment {
	e.buffer += content
	var out []Segment

	for {
		switch {
		case !e.inThinkingBlock && !e.thinkingExtracted:
			if pos, ok := findRealThinkingStartTag(e.buffer); ok {
				before := e.buffer[:pos]
				if before != "" && strings.TrimSpace(before) != "" {
					out = append(out, Segment{Kind: Text, Text: before})
				}
				e.inThinkingBlock = true
				e.stripLeadingNewline = true
				e.buffer = e.buffer[pos+len(startTag):]
				out = append(out, Segment{Kind: ThinkingOpen})
				continue
			}
			// No start tag yet; keep a tail long enough to still recognize
			// a tag split across chunk boundaries, and flush the rest as
			// text (unless it's whitespace-only, which stays buffered so a
			// leading blank line before <thinking> doesn't leak as a
			// spurious text block).
			targetLen := len(e.buffer) - len(startTag)
			if targetLen < 0 {
				targetLen = 0
			}
			safeLen := findCharBoundary(e.buffer, targetLen)
			if safeLen > 0 {
				safe := e.buffer[:safeLen]
				if safe != "" && strings.TrimSpace(safe) != "" {
					out = append(out, Segment{Kind: Text, Text: safe})
					e.buffer = e.buffer[safeLen:]
				}
			}
			return out

		case e.inThinkingBlock:
			if e.stripLeadingNewline {
				switch {
				case strings.HasPrefix(e.buffer, "\n"):
					e.buffer = e.buffer[1:]
					e.stripLeadingNewline = false
				case e.buffer != "":
					e.stripLeadingNewline = false
				}
			}

			if pos, ok := findRealThinkingEndTag(e.buffer); ok {
				thinkingContent := e.buffer[:pos]
				if thinkingContent != "" {
					out = append(out, Segment{Kind: ThinkingDelta, Text: thinkingContent})
				}
				e.inThinkingBlock = false
				e.thinkingExtracted = true
				out = append(out, Segment{Kind: ThinkingClose})
				e.buffer = e.buffer[pos+len(endTag)+2:] // +2 for the trailing "\n\n"
				continue
			}

			const tailReserve = len(endTag) + 2 // "</thinking>\n\n"
			targetLen := len(e.buffer) - tailReserve
			if targetLen < 0 {
				targetLen = 0
			}
			safeLen := findCharBoundary(e.buffer, targetLen)
			if safeLen > 0 {
				safe := e.buffer[:safeLen]
				if safe != "" {
					out = append(out, Segment{Kind: ThinkingDelta, Text: safe})
				}
				e.buffer = e.buffer[safeLen:]
			}
			return out

		default:
			if e.buffer != "" {
				remaining := e.buffer
				e.buffer = ""
				out = append(out, Segment{Kind: Text, Text: remaining})
			}
			return out
		}
	}
}

// Boundary handles a hard interruption (a tool_use starting, or the
// stream ending) that may leave a dangling thinking span with no trailing
// "\n\n" ever arriving. It recognizes the relaxed end tag (only trailing
// whitespace required) and closes the block if found; any content still
// pending from an in-progress start-tag probe is flushed as plain text.
func (e *Extractor) Boundary() []Segment {
	var out []Segment

	if e.inThinkingBlock {
		if pos, ok := findRealThinkingEndTagAtBufferEnd(e.buffer); ok {
			thinkingContent := e.buffer[:pos]
			if thinkingContent != "" {
				out = append(out, Segment{Kind: ThinkingDelta, Text: thinkingContent})
			}
			e.inThinkingBlock = false
			e.thinkingExtracted = true
			out = append(out, Segment{Kind: ThinkingClose})

			remaining := strings.TrimLeft(e.buffer[pos+len(endTag):], " \t\r\n")
			e.buffer = ""
			if remaining != "" {
				out = append(out, Segment{Kind: Text, Text: remaining})
			}
		}
		return out
	}

	if !e.thinkingExtracted && e.buffer != "" {
		buffered := e.buffer
		e.buffer = ""
		out = append(out, Segment{Kind: Text, Text: buffered})
	}
	return out
}

// Flush drains any remaining buffered content at stream end, grounded on
// the thinking portion of generate_final_events: if still inside a
// thinking span, it tries the relaxed boundary end tag first and falls
// back to closing with whatever remains as thinking content; otherwise
// the remainder (if any) is emitted as plain text.
func (e *Extractor) Flush() []Segment {
	if e.buffer == "" {
		return nil
	}

	var out []Segment
	if e.inThinkingBlock {
		if pos, ok := findRealThinkingEndTagAtBufferEnd(e.buffer); ok {
			thinkingContent := e.buffer[:pos]
			if thinkingContent != "" {
				out = append(out, Segment{Kind: ThinkingDelta, Text: thinkingContent})
			}
			remaining := strings.TrimLeft(e.buffer[pos+len(endTag):], " \t\r\n")
			e.buffer = ""
			e.inThinkingBlock = false
			e.thinkingExtracted = true
			out = append(out, Segment{Kind: ThinkingClose})
			if remaining != "" {
				out = append(out, Segment{Kind: Text, Text: remaining})
			}
			return out
		}
		out = append(out, Segment{Kind: ThinkingDelta, Text: e.buffer})
		out = append(out, Segment{Kind: ThinkingClose})
		e.buffer = ""
		e.inThinkingBlock = false
		e.thinkingExtracted = true
		return out
	}

	remaining := e.buffer
	e.buffer = ""
	out = append(out, Segment{Kind: Text, Text: remaining})
	return out
}
