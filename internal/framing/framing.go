// Package framing implements the native-messaging framing used on the
// browser-facing stdio channel: each message is a 4-byte little-endian
// unsigned length followed by that many bytes of UTF-8 JSON.
package framing

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

const headerSize = 4

// Encode returns the framed encoding of v: length prefix plus JSON body.
func Encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	buf := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[headerSize:], body)
	return buf, nil
}

// Encoder writes frames to an underlying stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode frames v and writes it in a single Write call so concurrent
// encoders on the same stream cannot interleave header and body.
func (e *Encoder) Encode(v any) error {
	buf, err := Encode(v)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Decoder reassembles frames from arbitrarily chunked input. Messages
// split or coalesced at any byte boundary are handled; a trailing
// partial frame stays buffered for the next Feed call.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the reassembly buffer and returns every
// complete frame body now available. Frame bodies that are not valid
// JSON are dropped so one malformed browser message cannot wedge the
// channel.
func (d *Decoder) Feed(chunk []byte) []json.RawMessage {
	d.buf = append(d.buf, chunk...)

	var frames []json.RawMessage
	for {
		if len(d.buf) < headerSize {
			break
		}
		n := int(binary.LittleEndian.Uint32(d.buf))
		if len(d.buf) < headerSize+n {
			break
		}
		body := make([]byte, n)
		copy(body, d.buf[headerSize:headerSize+n])
		d.buf = d.buf[headerSize+n:]

		if !json.Valid(body) {
			continue
		}
		frames = append(frames, json.RawMessage(body))
	}

	// Release the backing array once fully drained so large payloads
	// are not pinned between messages.
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return frames
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
