package convert

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

// decodeContentBlocks normalizes a message's raw "content" field, which is
// either a plain string or an ordered array of typed blocks, into a block
// slice. A plain string becomes a single synthetic text block.
func decodeContentBlocks(raw json.RawMessage) ([]types.ContentBlock, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []types.ContentBlock{{Type: "text", Text: s}}, nil
	}
	var blocks []types.ContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// acceptedImageFormats are the media types decoded into current-message
// images; anything else is silently dropped per spec.md §4.6 step 5.
var acceptedImageFormats = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// getImageFormat returns the short format tag for a media type and whether
// it is one of the accepted formats.
func getImageFormat(mediaType string) (string, bool) {
	f, ok := acceptedImageFormats[strings.ToLower(mediaType)]
	return f, ok
}

// decodeImage base64-decodes an image source if its media type is
// accepted; ok is false if the format is unrecognized or decoding fails.
func decodeImage(src *types.ImageSource) (types.Image, bool) {
	if src == nil {
		return types.Image{}, false
	}
	format, ok := getImageFormat(src.MediaType)
	if !ok {
		return types.Image{}, false
	}
	data, err := base64.StdEncoding.DecodeString(src.Data)
	if err != nil {
		return types.Image{}, false
	}
	return types.Image{Format: format, Bytes: data}, true
}

// extractToolResultContent flattens a tool_result block's content field,
// which may be a plain string, an array of blocks whose text fields are
// joined with "\n", or anything else re-serialized as JSON.
func extractToolResultContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []types.ContentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var parts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return string(raw)
}

// userContent is the parsed form of a user message's content blocks.
type userContent struct {
	Text        string
	Images      []types.Image
	ToolResults []types.ToolResultSpec
}

// parseUserContent walks a user message's content blocks, grounded on
// converter.rs's process_message_content: text blocks are joined with
// "\n"; image blocks of an accepted format are decoded; tool_result blocks
// become ToolResultSpec entries with a success/error status.
func parseUserContent(blocks []types.ContentBlock) userContent {
	var out userContent
	var texts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				texts = append(texts, b.Text)
			}
		case "image":
			if img, ok := decodeImage(b.Source); ok {
				out.Images = append(out.Images, img)
			}
		case "tool_result":
			isError := b.IsError != nil && *b.IsError
			status := "success"
			if isError {
				status = "error"
			}
			out.ToolResults = append(out.ToolResults, types.ToolResultSpec{
				ToolUseID: b.ToolUseID,
				Content:   extractToolResultContent(b.Content),
				IsError:   isError,
				Status:    status,
			})
		}
	}
	out.Text = strings.Join(texts, "\n")
	return out
}

// assistantContent is the parsed form of an assistant message's content
// blocks, prior to I4 composition.
type assistantContent struct {
	Thinking string
	Text     string
	ToolUses []types.ToolUseSpec
}

// parseAssistantContent collates an assistant message's blocks into
// thinking text, plain text, and tool-use entries, grounded on
// converter.rs's convert_assistant_message collation step.
func parseAssistantContent(blocks []types.ContentBlock) assistantContent {
	var out assistantContent
	var thinking, texts []string
	for _, b := range blocks {
		switch b.Type {
		case "thinking":
			if b.Thinking != "" {
				thinking = append(thinking, b.Thinking)
			}
		case "text":
			if b.Text != "" {
				texts = append(texts, b.Text)
			}
		case "tool_use":
			input := string(b.Input)
			if input == "" {
				input = "{}"
			}
			out.ToolUses = append(out.ToolUses, types.ToolUseSpec{
				ToolUseID: b.ID,
				Name:      b.Name,
				InputJSON: input,
			})
		}
	}
	out.Thinking = strings.Join(thinking, "")
	out.Text = strings.Join(texts, "")
	return out
}

// composeAssistantContent implements I4: the assistant history/content
// string is never empty.
func composeAssistantContent(c assistantContent) string {
	switch {
	case c.Thinking != "" && c.Text != "":
		return "<thinking>" + c.Thinking + "</thinking>\n\n" + c.Text
	case c.Thinking != "":
		return "<thinking>" + c.Thinking + "</thinking>"
	case c.Text == "" && len(c.ToolUses) > 0:
		return " "
	default:
		return c.Text
	}
}
