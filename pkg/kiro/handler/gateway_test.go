package handler

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z871327332/kiro-gateway/pkg/kiro/config"
	"github.com/z871327332/kiro-gateway/pkg/kiro/sse"
	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
)

// buildFrame hand-encodes one wire frame out of a small set of string
// headers plus a JSON payload, mirroring pkg/wire's own (unexported)
// test helper of the same name since that package's header encoder
// isn't exported across package boundaries.
func buildFrame(t *testing.T, headers map[string]string, payload []byte) []byte {
	t.Helper()
	var headerBytes []byte
	for name, val := range headers {
		headerBytes = append(headerBytes, byte(len(name)))
		headerBytes = append(headerBytes, name...)
		headerBytes = append(headerBytes, byte(7)) // HeaderTypeString
		var lbuf [2]byte
		binary.BigEndian.PutUint16(lbuf[:], uint16(len(val)))
		headerBytes = append(headerBytes, lbuf[:]...)
		headerBytes = append(headerBytes, val...)
	}

	total := 12 + len(headerBytes) + len(payload) + 4
	buf := make([]byte, total)
	binary.BigEndian.PutUint32(buf[0:4], uint32(total))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(headerBytes)))
	binary.BigEndian.PutUint32(buf[8:12], crc32.ChecksumIEEE(buf[:8]))
	copy(buf[12:12+len(headerBytes)], headerBytes)
	copy(buf[12+len(headerBytes):12+len(headerBytes)+len(payload)], payload)
	binary.BigEndian.PutUint32(buf[total-4:total], crc32.ChecksumIEEE(buf[:total-4]))
	return buf
}

func assistantFrame(t *testing.T, content string) []byte {
	t.Helper()
	return buildFrame(t, map[string]string{
		":message-type": "event",
		":event-type":   "assistantResponseEvent",
	}, []byte(`{"content":"`+content+`"}`))
}

// fakeUpstream returns a fixed byte slice as the upstream response body,
// ignoring the request.
type fakeUpstream struct {
	body []byte
}

func (f *fakeUpstream) Call(ctx context.Context, body []byte) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.body)), nil
}

func testRequest() *types.MessagesRequest {
	return &types.MessagesRequest{
		Model: "claude-sonnet-4.5",
		Messages: []types.Message{
			{Role: "user", Content: []byte(`"hello"`)},
		},
		MaxTokens: 1024,
	}
}

func TestGateway_NonStream_AggregatesFrames(t *testing.T) {
	raw := assistantFrame(t, "hi there")
	gw := New(&fakeUpstream{body: raw}, config.Default(), nil)

	result, err := gw.NonStream(context.Background(), testRequest())
	require.NoError(t, err)

	content, ok := result["content"].([]map[string]any)
	require.True(t, ok, "expected content list, got %T", result["content"])
	require.NotEmpty(t, content)
	assert.Equal(t, "hi there", content[0]["text"])
}

func TestGateway_Stream_EmitsOrderedSSEEvents(t *testing.T) {
	raw := assistantFrame(t, "hello")
	gw := New(&fakeUpstream{body: raw}, config.Default(), nil)

	var names []string
	emit := func(evs []sse.Event) error {
		for _, e := range evs {
			names = append(names, e.Name)
		}
		return nil
	}

	err := gw.Stream(context.Background(), testRequest(), emit)
	require.NoError(t, err)

	require.NotEmpty(t, names)
	assert.Equal(t, "message_start", names[0])
	assert.Equal(t, "message_stop", names[len(names)-1])
}

func TestGateway_CountTokens_IsAtLeastOne(t *testing.T) {
	gw := New(&fakeUpstream{}, config.Default(), nil)
	resp := gw.CountTokens(&types.CountTokensRequest{
		Messages: []types.Message{{Role: "user", Content: []byte(`""`)}},
	})
	assert.GreaterOrEqual(t, resp.InputTokens, 1)
}

func TestGateway_Models_ReturnsCatalog(t *testing.T) {
	gw := New(&fakeUpstream{}, config.Default(), nil)
	resp := gw.Models()
	assert.Equal(t, "list", resp.Object)
	assert.NotEmpty(t, resp.Data)
}
