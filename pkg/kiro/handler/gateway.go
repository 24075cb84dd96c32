package handler

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/z871327332/kiro-gateway/pkg/kirror"
	"github.com/z871327332/kiro-gateway/pkg/kiro/aggregate"
	"github.com/z871327332/kiro-gateway/pkg/kiro/config"
	"github.com/z871327332/kiro-gateway/pkg/kiro/convert"
	"github.com/z871327332/kiro-gateway/pkg/kiro/events"
	"github.com/z871327332/kiro-gateway/pkg/kiro/logging"
	"github.com/z871327332/kiro-gateway/pkg/kiro/sse"
	"github.com/z871327332/kiro-gateway/pkg/kiro/stream"
	"github.com/z871327332/kiro-gateway/pkg/kiro/token"
	"github.com/z871327332/kiro-gateway/pkg/kiro/types"
	"github.com/z871327332/kiro-gateway/pkg/telemetry"
	"github.com/z871327332/kiro-gateway/pkg/wire"
)

// Gateway owns the upstream collaborator plus the ambient config/logger
// and exposes the four HTTP operations spec.md §6 names, independent of
// any particular router.
type Gateway struct {
	Upstream UpstreamClient
	Config   *config.GatewayConfig
	Log      *zap.Logger
	tracer   trace.Tracer
}

// New builds a Gateway. A nil cfg falls back to config.Default(); a nil
// log falls back to a no-op logger. The gateway's tracer is derived from
// cfg.TelemetryEnabled via telemetry.GetTracer, matching the rest of the
// module's telemetry wiring (pkg/telemetry.Settings).
func New(upstream UpstreamClient, cfg *config.GatewayConfig, log *zap.Logger) *Gateway {
	if cfg == nil {
		cfg = config.Default()
	}
	settings := telemetry.DefaultSettings().WithEnabled(cfg.TelemetryEnabled)
	return &Gateway{
		Upstream: upstream,
		Config:   cfg,
		Log:      logging.NewLogger(log),
		tracer:   telemetry.GetTracer(settings),
	}
}

// Models returns the fixed model catalog for GET /v1/models.
func (g *Gateway) Models() types.ModelsResponse {
	return types.ModelsResponse{Object: "list", Data: types.Catalog()}
}

// CountTokens handles POST /v1/messages/count_tokens: an estimate-only,
// no-upstream-call operation.
func (g *Gateway) CountTokens(req *types.CountTokensRequest) types.CountTokensResponse {
	total := token.EstimateRequest(req.System, req.Messages, req.Tools)
	if total < 1 {
		total = 1
	}
	return types.CountTokensResponse{InputTokens: total}
}

// NonStream handles POST /v1/messages when req.Stream is false: converts
// the request, calls upstream once, drains the full response body, and
// aggregates it into a single JSON envelope (C10).
func (g *Gateway) NonStream(ctx context.Context, req *types.MessagesRequest) (map[string]any, error) {
	result, err := g.convert(ctx, req)
	if err != nil {
		return nil, err
	}

	inputTokens := token.EstimateRequest(req.System, req.Messages, req.Tools)

	body, err := json.Marshal(result.Conversation)
	if err != nil {
		return nil, err
	}

	respBody, err := g.Upstream.Call(ctx, body)
	if err != nil {
		return nil, &kirror.UpstreamError{Message: "kiro API call failed", Cause: err}
	}
	defer respBody.Close()

	raw, err := io.ReadAll(respBody)
	if err != nil {
		return nil, &kirror.UpstreamError{Message: "failed reading upstream body", Cause: err}
	}

	decoder := wire.NewDecoderWithConfig(
		g.Config.DecoderInitialBufferBytes,
		g.Config.DecoderMaxConsecutiveErrors,
		g.Config.DecoderMaxFrameBytes,
		g.Log,
	)
	if err := decoder.Feed(raw); err != nil {
		g.Log.Warn("buffer overflow feeding non-stream response", zap.Error(err))
	}
	frames, decodeErrs := decoder.DecodeAll()
	for _, e := range decodeErrs {
		g.Log.Warn("decode error in non-stream response", zap.Error(e))
	}

	agg := aggregate.New(result.ModelID, inputTokens, g.Log)
	for _, f := range frames {
		ev, err := events.FromFrame(f)
		if err != nil {
			g.Log.Warn("failed mapping frame to event", zap.Error(err))
			continue
		}
		agg.Feed(ev)
	}

	return agg.Result(), nil
}

// Stream handles POST /v1/messages when req.Stream is true, writing SSE
// events to emit as they arrive from upstream (C9), interleaved with a
// 25-second ping keep-alive.
func (g *Gateway) Stream(ctx context.Context, req *types.MessagesRequest, emit func(evs []sse.Event) error) error {
	result, err := g.convert(ctx, req)
	if err != nil {
		return err
	}
	inputTokens := token.EstimateRequest(req.System, req.Messages, req.Tools)

	body, err := json.Marshal(result.Conversation)
	if err != nil {
		return err
	}
	respBody, err := g.Upstream.Call(ctx, body)
	if err != nil {
		return &kirror.UpstreamError{Message: "kiro API call failed", Cause: err}
	}
	defer respBody.Close()

	sctx := stream.NewContext(result.ModelID, inputTokens, result.ThinkingEnabled)
	if err := emit(sctx.GenerateInitialEvents()); err != nil {
		return err
	}

	ctx, span := g.tracer.Start(ctx, "kiro.stream", trace.WithAttributes(
		telemetry.GatewayAttributes(result.ModelID, true, result.ThinkingEnabled)...,
	))
	defer span.End()

	err = g.pump(ctx, respBody, false, emit, func(ev events.Event) []sse.Event {
		return sctx.ProcessEvent(ev)
	}, func() []sse.Event {
		return sctx.GenerateFinalEvents()
	})
	if err != nil {
		telemetry.RecordErrorOnSpan(span, err)
	}
	return err
}

// BufferedStream handles POST /cc/v1/messages: withholds every event
// until the upstream stream ends, then replays the corrected sequence at
// once, emitting only ping keep-alives in the meantime (spec.md §4.9/§6).
func (g *Gateway) BufferedStream(ctx context.Context, req *types.MessagesRequest, emit func(evs []sse.Event) error) error {
	result, err := g.convert(ctx, req)
	if err != nil {
		return err
	}
	inputTokens := token.EstimateRequest(req.System, req.Messages, req.Tools)

	body, err := json.Marshal(result.Conversation)
	if err != nil {
		return err
	}
	respBody, err := g.Upstream.Call(ctx, body)
	if err != nil {
		return &kirror.UpstreamError{Message: "kiro API call failed", Cause: err}
	}
	defer respBody.Close()

	bctx := stream.NewBufferedContext(result.ModelID, inputTokens, result.ThinkingEnabled)
	bctx.Start()

	ctx, span := g.tracer.Start(ctx, "kiro.stream", trace.WithAttributes(
		telemetry.GatewayAttributes(result.ModelID, true, result.ThinkingEnabled)...,
	))
	defer span.End()

	err = g.pump(ctx, respBody, true, emit, func(ev events.Event) []sse.Event {
		bctx.ProcessEvent(ev)
		return nil
	}, func() []sse.Event {
		return bctx.Finish()
	})
	if err != nil {
		telemetry.RecordErrorOnSpan(span, err)
	}
	return err
}

// convert wraps convert.Convert (C6) in a single span per request, per
// SPEC_FULL.md §A.3's "one span around convert.Convert per request."
func (g *Gateway) convert(ctx context.Context, req *types.MessagesRequest) (*convert.Result, error) {
	return telemetry.RecordSpan(ctx, g.tracer, telemetry.SpanOptions{
		Name:        "kiro.convert",
		Attributes:  telemetry.GatewayAttributes(req.Model, req.Stream, false),
		EndWhenDone: true,
	}, func(ctx context.Context, span trace.Span) (*convert.Result, error) {
		return convert.Convert(req, g.Log)
	})
}

// pump drives the upstream byte stream through the wire decoder and
// event mapper, merging it with a ping ticker exactly as spec.md §5
// describes: the only concurrency inside a request is between pulling
// the next inbound chunk and the ping timer. process folds one decoded
// Event into zero or more SSE events to emit immediately (the streaming
// path); finish is called once, at stream end or on a read error, to
// produce the closing sequence (possibly the buffered path's entire
// output). When biased is set (the buffered "CC" variant), the ping
// ticker is polled non-blockingly before the main select on every
// iteration, so a very chatty upstream can never starve keep-alives —
// Go's select has no case priority, so this manual pre-check is how the
// bias is actually implemented.
func (g *Gateway) pump(
	ctx context.Context,
	body io.Reader,
	biased bool,
	emit func(evs []sse.Event) error,
	process func(ev events.Event) []sse.Event,
	finish func() []sse.Event,
) error {
	decoder := wire.NewDecoderWithConfig(
		g.Config.DecoderInitialBufferBytes,
		g.Config.DecoderMaxConsecutiveErrors,
		g.Config.DecoderMaxFrameBytes,
		g.Log,
	)

	type readResult struct {
		chunk []byte
		err   error
	}
	chunks := make(chan readResult)
	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- readResult{chunk: chunk}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				select {
				case chunks <- readResult{err: err}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(g.Config.PingInterval)
	defer ticker.Stop()

	for {
		if biased {
			select {
			case <-ticker.C:
				if err := emit([]sse.Event{rawPingEvent()}); err != nil {
					return err
				}
				continue
			default:
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := emit([]sse.Event{rawPingEvent()}); err != nil {
				return err
			}
			continue

		case r := <-chunks:
			if r.err != nil && r.err != io.EOF {
				g.Log.Error("failed reading upstream body", zap.Error(r.err))
				return emit(finish())
			}
			if r.chunk != nil {
				if err := decoder.Feed(r.chunk); err != nil {
					g.Log.Warn("buffer overflow during streaming", zap.Error(err))
				}
				frames, decodeErrs := decoder.DecodeAll()
				for _, e := range decodeErrs {
					g.Log.Warn("decode error during streaming", zap.Error(e))
				}
				var out []sse.Event
				for _, f := range frames {
					ev, err := events.FromFrame(f)
					if err != nil {
						g.Log.Warn("failed mapping frame to event", zap.Error(err))
						continue
					}
					out = append(out, process(ev)...)
				}
				if len(out) > 0 {
					if err := emit(out); err != nil {
						return err
					}
				}
			}
			if r.err == io.EOF {
				return emit(finish())
			}
		}
	}
}

// rawPingEvent is a marker event for the keep-alive ping. Its Encode()
// output would carry "data: null", so emit callers special-case
// Name == "ping" and write sse.PingEvent verbatim instead of calling
// Encode().
func rawPingEvent() sse.Event {
	return sse.Event{Name: "ping"}
}
