package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/z871327332/kiro-gateway/pkg/kiro/sse"
)

// WriteSSE renders evs onto w and flushes, if w supports it. Every HTTP
// framework wiring shares this so the "ping" special-case (sse.PingEvent's
// exact bytes, not Event.Encode's generic marshal) lives in one place.
func WriteSSE(w io.Writer, evs []sse.Event) error {
	for _, e := range evs {
		var err error
		if e.Name == "ping" {
			_, err = io.WriteString(w, sse.PingEvent)
		} else {
			_, err = io.WriteString(w, e.Encode())
		}
		if err != nil {
			return fmt.Errorf("writing sse event %q: %w", e.Name, err)
		}
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
