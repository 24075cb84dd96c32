package wire

import (
	"encoding/binary"
)

// HeaderValue is a typed header value. Exactly one field is meaningful,
// selected by Type.
type HeaderValue struct {
	Type      HeaderType
	BoolVal   bool
	Int8Val   int8
	Int16Val  int16
	Int32Val  int32
	Int64Val  int64
	BytesVal  []byte
	StringVal string
	// TimestampVal is milliseconds since the Unix epoch.
	TimestampVal int64
	UUIDVal      [16]byte
}

// HeaderType is the one-byte type tag preceding a header's value.
type HeaderType byte

const (
	HeaderTypeBoolTrue  HeaderType = 0
	HeaderTypeBoolFalse HeaderType = 1
	HeaderTypeByte      HeaderType = 2 // int8
	HeaderTypeInt16     HeaderType = 3
	HeaderTypeInt32     HeaderType = 4
	HeaderTypeInt64     HeaderType = 5
	HeaderTypeByteArray HeaderType = 6
	HeaderTypeString    HeaderType = 7
	HeaderTypeTimestamp HeaderType = 8
	HeaderTypeUUID      HeaderType = 9
)

// Headers is an ordered name -> value mapping. Order is preserved because
// the wire format is itself an ordered record list, though lookups are by
// name like a map.
type Headers struct {
	names  []string
	values []HeaderValue
}

// NewHeaders returns an empty Headers.
func NewHeaders() *Headers {
	return &Headers{}
}

// Set appends or replaces a header by name.
func (h *Headers) Set(name string, v HeaderValue) {
	for i, n := range h.names {
		if n == name {
			h.values[i] = v
			return
		}
	}
	h.names = append(h.names, name)
	h.values = append(h.values, v)
}

// Get looks up a header by name.
func (h *Headers) Get(name string) (HeaderValue, bool) {
	for i, n := range h.names {
		if n == name {
			return h.values[i], true
		}
	}
	return HeaderValue{}, false
}

// String returns the string value of a header, or "" if absent or not a
// string-typed header.
func (h *Headers) String(name string) string {
	v, ok := h.Get(name)
	if !ok || v.Type != HeaderTypeString {
		return ""
	}
	return v.StringVal
}

// decodeHeaders parses the typed key-value header block:
//
//	1 byte name-length | name bytes (ASCII) | 1 byte type tag | type-specific value
//
// repeated until the block is exhausted.
func decodeHeaders(b []byte) (*Headers, error) {
	h := NewHeaders()
	pos := 0
	for pos < len(b) {
		if pos+1 > len(b) {
			return nil, errHeaderParseFailed("truncated name length")
		}
		nameLen := int(b[pos])
		pos++
		if pos+nameLen > len(b) {
			return nil, errHeaderParseFailed("truncated name")
		}
		name := string(b[pos : pos+nameLen])
		pos += nameLen

		if pos+1 > len(b) {
			return nil, errHeaderParseFailed("truncated type tag")
		}
		tag := HeaderType(b[pos])
		pos++

		val, n, err := decodeHeaderValue(tag, b[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		h.Set(name, val)
	}
	return h, nil
}

func decodeHeaderValue(tag HeaderType, b []byte) (HeaderValue, int, error) {
	switch tag {
	case HeaderTypeBoolTrue:
		return HeaderValue{Type: tag, BoolVal: true}, 0, nil
	case HeaderTypeBoolFalse:
		return HeaderValue{Type: tag, BoolVal: false}, 0, nil
	case HeaderTypeByte:
		if len(b) < 1 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated int8 value")
		}
		return HeaderValue{Type: tag, Int8Val: int8(b[0])}, 1, nil
	case HeaderTypeInt16:
		if len(b) < 2 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated int16 value")
		}
		return HeaderValue{Type: tag, Int16Val: int16(binary.BigEndian.Uint16(b))}, 2, nil
	case HeaderTypeInt32:
		if len(b) < 4 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated int32 value")
		}
		return HeaderValue{Type: tag, Int32Val: int32(binary.BigEndian.Uint32(b))}, 4, nil
	case HeaderTypeInt64:
		if len(b) < 8 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated int64 value")
		}
		return HeaderValue{Type: tag, Int64Val: int64(binary.BigEndian.Uint64(b))}, 8, nil
	case HeaderTypeByteArray:
		if len(b) < 2 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated byte-array length")
		}
		n := int(binary.BigEndian.Uint16(b))
		if len(b) < 2+n {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated byte-array value")
		}
		data := make([]byte, n)
		copy(data, b[2:2+n])
		return HeaderValue{Type: tag, BytesVal: data}, 2 + n, nil
	case HeaderTypeString:
		if len(b) < 2 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated string length")
		}
		n := int(binary.BigEndian.Uint16(b))
		if len(b) < 2+n {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated string value")
		}
		return HeaderValue{Type: tag, StringVal: string(b[2 : 2+n])}, 2 + n, nil
	case HeaderTypeTimestamp:
		if len(b) < 8 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated timestamp value")
		}
		return HeaderValue{Type: tag, TimestampVal: int64(binary.BigEndian.Uint64(b))}, 8, nil
	case HeaderTypeUUID:
		if len(b) < 16 {
			return HeaderValue{}, 0, errHeaderParseFailed("truncated uuid value")
		}
		var u [16]byte
		copy(u[:], b[:16])
		return HeaderValue{Type: tag, UUIDVal: u}, 16, nil
	default:
		return HeaderValue{}, 0, errInvalidHeaderType(byte(tag))
	}
}

// encodeHeaders serializes Headers back to wire format, used by tests that
// round-trip a frame (P1) and by any future frame encoder.
func encodeHeaders(h *Headers) []byte {
	var out []byte
	for i, name := range h.names {
		out = append(out, byte(len(name)))
		out = append(out, name...)
		v := h.values[i]
		out = append(out, byte(v.Type))
		switch v.Type {
		case HeaderTypeBoolTrue, HeaderTypeBoolFalse:
			// no payload
		case HeaderTypeByte:
			out = append(out, byte(v.Int8Val))
		case HeaderTypeInt16:
			var buf [2]byte
			binary.BigEndian.PutUint16(buf[:], uint16(v.Int16Val))
			out = append(out, buf[:]...)
		case HeaderTypeInt32:
			var buf [4]byte
			binary.BigEndian.PutUint32(buf[:], uint32(v.Int32Val))
			out = append(out, buf[:]...)
		case HeaderTypeInt64:
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], uint64(v.Int64Val))
			out = append(out, buf[:]...)
		case HeaderTypeByteArray:
			var lbuf [2]byte
			binary.BigEndian.PutUint16(lbuf[:], uint16(len(v.BytesVal)))
			out = append(out, lbuf[:]...)
			out = append(out, v.BytesVal...)
		case HeaderTypeString:
			var lbuf [2]byte
			binary.BigEndian.PutUint16(lbuf[:], uint16(len(v.StringVal)))
			out = append(out, lbuf[:]...)
			out = append(out, v.StringVal...)
		case HeaderTypeTimestamp:
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], uint64(v.TimestampVal))
			out = append(out, buf[:]...)
		case HeaderTypeUUID:
			out = append(out, v.UUIDVal[:]...)
		}
	}
	return out
}
