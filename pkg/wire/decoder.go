package wire

import "go.uber.org/zap"

// DecoderState is one of the four states the stream decoder moves through.
type DecoderState int

const (
	// StateReady is the initial state and the state entered after any
	// successful frame, any "needs more data" result, or a feed() call
	// that refills the buffer out of Recovering.
	StateReady DecoderState = iota
	// StateParsing is transient — held only during a single decode() call.
	StateParsing
	// StateRecovering is entered after a parse error that did not trip
	// max_consecutive_errors; DecodeAll yields nothing further until the
	// next feed() call restores Ready, while a direct Decode call keeps
	// parsing the remaining buffer.
	StateRecovering
	// StateStopped is terminal: max_consecutive_errors was reached.
	// Only try_resume() escapes it.
	StateStopped
)

func (s DecoderState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateParsing:
		return "parsing"
	case StateRecovering:
		return "recovering"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxBufferSize bounds how large the decoder's internal buffer
	// may grow before feed() starts rejecting input.
	DefaultMaxBufferSize = 16 * 1024 * 1024
	// DefaultMaxConsecutiveErrors is how many parse errors in a row move
	// the decoder to Stopped.
	DefaultMaxConsecutiveErrors = 5
	// DefaultBufferCapacity is the initial capacity reserved for the
	// internal buffer.
	DefaultBufferCapacity = 8192
)

// Decoder owns a growable byte buffer and drives ParseFrame across it,
// bounding how many errors it tolerates before giving up, and guaranteeing
// forward progress via one-byte-skip recovery.
type Decoder struct {
	buffer         []byte
	state          DecoderState
	framesDecoded  int
	errorCount     int
	maxErrors      int
	maxBufferSize  int
	bytesSkipped   int
	log            *zap.Logger
}

// NewDecoder returns a Decoder with default limits.
func NewDecoder() *Decoder {
	return NewDecoderWithConfig(DefaultBufferCapacity, DefaultMaxConsecutiveErrors, DefaultMaxBufferSize, zap.NewNop())
}

// NewDecoderWithCapacity returns a Decoder with a custom initial buffer
// capacity and otherwise-default limits.
func NewDecoderWithCapacity(capacity int) *Decoder {
	return NewDecoderWithConfig(capacity, DefaultMaxConsecutiveErrors, DefaultMaxBufferSize, zap.NewNop())
}

// NewDecoderWithConfig returns a fully configured Decoder. A nil logger
// falls back to a no-op logger, so the decoder is usable standalone in
// tests without configuring global logging.
func NewDecoderWithConfig(capacity, maxErrors, maxBufferSize int, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		buffer:        make([]byte, 0, capacity),
		state:         StateReady,
		maxErrors:     maxErrors,
		maxBufferSize: maxBufferSize,
		log:           logger,
	}
}

// Feed appends data to the internal buffer. It rejects the append with a
// BufferOverflow error if doing so would exceed maxBufferSize. A
// successful feed while Recovering transitions the decoder back to Ready.
func (d *Decoder) Feed(data []byte) error {
	newSize := len(d.buffer) + len(data)
	if newSize > d.maxBufferSize {
		return errBufferOverflow(newSize, d.maxBufferSize)
	}
	d.buffer = append(d.buffer, data...)
	if d.state == StateRecovering {
		d.state = StateReady
	}
	return nil
}

// Decode attempts to produce the next frame from the buffered bytes.
// Returns (frame, nil) on success, (nil, nil) when more data is needed,
// or (nil, err) on a parse error (the decoder has already applied
// recovery before returning).
func (d *Decoder) Decode() (*Frame, error) {
	if d.state == StateStopped {
		return nil, errTooManyErrors(d.errorCount, "decoder stopped")
	}
	if len(d.buffer) == 0 {
		d.state = StateReady
		return nil, nil
	}

	d.state = StateParsing
	frame, consumed, err := ParseFrame(d.buffer)
	if err != nil {
		d.errorCount++
		if d.errorCount >= d.maxErrors {
			d.state = StateStopped
			d.log.Warn("decoder stopped after too many consecutive errors",
				zap.Int("errorCount", d.errorCount), zap.Error(err))
			return nil, errTooManyErrors(d.errorCount, err.Error())
		}
		d.recoverBySkippingOneByte()
		d.state = StateRecovering
		return nil, err
	}

	if frame == nil {
		d.state = StateReady
		return nil, nil
	}

	d.buffer = d.buffer[consumed:]
	d.errorCount = 0
	d.framesDecoded++
	d.state = StateReady
	return frame, nil
}

func (d *Decoder) recoverBySkippingOneByte() {
	if len(d.buffer) == 0 {
		return
	}
	d.buffer = d.buffer[1:]
	d.bytesSkipped++
	d.log.Warn("skipped one byte during error recovery", zap.Int("bytesSkipped", d.bytesSkipped))
}

// DecodeAll drains every frame currently decodable from the buffer,
// stopping as soon as the decoder needs more data, enters Recovering, or
// enters Stopped — mirroring the Rust DecodeIter's short-circuit rule.
// Errors encountered along the way are returned alongside the frames
// decoded before them, in order.
func (d *Decoder) DecodeAll() ([]*Frame, []error) {
	var frames []*Frame
	var errs []error
	for {
		if d.state == StateStopped || d.state == StateRecovering {
			return frames, errs
		}
		frame, err := d.Decode()
		if err != nil {
			errs = append(errs, err)
			// decode() has already moved state to Recovering or Stopped;
			// the loop head will terminate on the next iteration.
			continue
		}
		if frame == nil {
			return frames, errs
		}
		frames = append(frames, frame)
	}
}

// Reset clears the buffer and all counters, returning to Ready.
func (d *Decoder) Reset() {
	d.buffer = d.buffer[:0]
	d.state = StateReady
	d.errorCount = 0
	d.framesDecoded = 0
	d.bytesSkipped = 0
}

// TryResume clears the error counter and returns to Ready if the decoder
// is Stopped. Buffer content is preserved. No-op otherwise.
func (d *Decoder) TryResume() {
	if d.state == StateStopped {
		d.errorCount = 0
		d.state = StateReady
	}
}

// State returns the decoder's current state.
func (d *Decoder) State() DecoderState { return d.state }

// IsReady reports whether the decoder is in StateReady.
func (d *Decoder) IsReady() bool { return d.state == StateReady }

// IsStopped reports whether the decoder is in StateStopped.
func (d *Decoder) IsStopped() bool { return d.state == StateStopped }

// IsRecovering reports whether the decoder is in StateRecovering.
func (d *Decoder) IsRecovering() bool { return d.state == StateRecovering }

// FramesDecoded returns the lifetime count of successfully decoded frames.
func (d *Decoder) FramesDecoded() int { return d.framesDecoded }

// ErrorCount returns the current consecutive-error count.
func (d *Decoder) ErrorCount() int { return d.errorCount }

// BytesSkipped returns the lifetime count of bytes discarded during
// error-recovery skips.
func (d *Decoder) BytesSkipped() int { return d.bytesSkipped }

// BufferLen returns the number of bytes currently buffered.
func (d *Decoder) BufferLen() int { return len(d.buffer) }
