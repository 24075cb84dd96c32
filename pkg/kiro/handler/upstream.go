// Package handler wires the core translation pipeline (C1-C10) into a
// framework-agnostic Gateway that any HTTP router can call into, per
// spec.md's "HTTP routing... out of scope... specified only by the
// interfaces the core requires." Grounded on
// original_source/src/anthropic/handlers.rs's four route handlers.
package handler

import (
	"context"
	"io"
)

// UpstreamClient is the one external collaborator the gateway needs: a
// way to send the converted conversation JSON to the Kiro service and
// get back its raw event-stream body. Credential handling, retries, and
// multi-credential failover are an explicit Non-goal of the core (spec.md
// §1) and belong entirely inside the caller's UpstreamClient
// implementation — the core never sees a credential.
type UpstreamClient interface {
	// Call sends the converted request body and returns the upstream
	// response body as a stream of raw event-stream bytes. The caller
	// must Close it.
	Call(ctx context.Context, body []byte) (io.ReadCloser, error)
}
