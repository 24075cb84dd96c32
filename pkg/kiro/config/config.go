// Package config holds the gateway's own ambient configuration: listen
// address, decoder limits, ping cadence, and telemetry settings. It
// follows the teacher's plain-struct + With* copy-builder convention
// (see pkg/telemetry.Settings) rather than a third-party config library —
// the teacher itself never reaches for one, and no other example in the
// pack configures any differently.
package config

import "time"

// GatewayConfig is the gateway's top-level runtime configuration.
type GatewayConfig struct {
	// ListenAddr is the address the demonstration HTTP servers bind to.
	ListenAddr string

	// PingInterval is how often a keep-alive "ping" SSE event is sent
	// during a streaming response. spec.md fixes this at 25s.
	PingInterval time.Duration

	// DecoderInitialBufferBytes sizes the stream decoder's initial
	// buffer. spec.md fixes this at 8 KiB.
	DecoderInitialBufferBytes int

	// DecoderMaxFrameBytes bounds the stream decoder's buffered bytes (it
	// is passed as the decoder's max buffer size; a single frame's limit
	// is wire.MaxMessageSize). spec.md fixes this at 16 MiB.
	DecoderMaxFrameBytes int

	// DecoderMaxConsecutiveErrors bounds how many consecutive decode
	// errors are tolerated before the stream gives up. spec.md fixes
	// this at 5.
	DecoderMaxConsecutiveErrors int

	// TelemetryEnabled toggles OpenTelemetry span recording.
	TelemetryEnabled bool
}

// Default returns the spec-mandated defaults (spec.md §6's "numeric
// constants the implementation must use verbatim").
func Default() *GatewayConfig {
	return &GatewayConfig{
		ListenAddr:                  ":8080",
		PingInterval:                25 * time.Second,
		DecoderInitialBufferBytes:   8 * 1024,
		DecoderMaxFrameBytes:        16 * 1024 * 1024,
		DecoderMaxConsecutiveErrors: 5,
		TelemetryEnabled:            false,
	}
}

// WithListenAddr returns a copy of GatewayConfig with ListenAddr set.
func (c *GatewayConfig) WithListenAddr(addr string) *GatewayConfig {
	cp := *c
	cp.ListenAddr = addr
	return &cp
}

// WithPingInterval returns a copy of GatewayConfig with PingInterval set.
func (c *GatewayConfig) WithPingInterval(d time.Duration) *GatewayConfig {
	cp := *c
	cp.PingInterval = d
	return &cp
}

// WithDecoderLimits returns a copy of GatewayConfig with the decoder's
// buffer/size/error limits set.
func (c *GatewayConfig) WithDecoderLimits(initialBufferBytes, maxFrameBytes, maxConsecutiveErrors int) *GatewayConfig {
	cp := *c
	cp.DecoderInitialBufferBytes = initialBufferBytes
	cp.DecoderMaxFrameBytes = maxFrameBytes
	cp.DecoderMaxConsecutiveErrors = maxConsecutiveErrors
	return &cp
}

// WithTelemetry returns a copy of GatewayConfig with TelemetryEnabled set.
func (c *GatewayConfig) WithTelemetry(enabled bool) *GatewayConfig {
	cp := *c
	cp.TelemetryEnabled = enabled
	return &cp
}
