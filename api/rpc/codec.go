// Package rpc is a length-prefixed MessagePack request/reply protocol. Every
// frame is a 4-byte big-endian length followed by that many bytes of
// msgpack.
package rpc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack"
)

// MaxFrameSize bounds a single frame body.
const MaxFrameSize = 16 << 20

// ErrFrameTooLarge is returned for frames over MaxFrameSize.
var ErrFrameTooLarge = errors.New("rpc: frame too large")

// Envelope is a request frame.
type Envelope struct {
	Seq    uint64 `msgpack:"seq"`
	Method string `msgpack:"method"`
	Body   []byte `msgpack:"body"`
}

// Reply answers the Envelope with the same Seq. A non-empty Error means the
// call failed before or inside the handler; Code classifies it.
type Reply struct {
	Seq   uint64 `msgpack:"seq"`
	Body  []byte `msgpack:"body,omitempty"`
	Error string `msgpack:"error,omitempty"`
	Code  string `msgpack:"code,omitempty"`
}

// Marshal encodes v as msgpack.
func Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes msgpack data into v.
func Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// WriteFrame encodes v and writes it as one frame.
func WriteFrame(w io.Writer, v interface{}) error {
	body, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("rpc: encode: %w", err)
	}
	if len(body) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	_, err = w.Write(buf)
	return err
}

// ReadFrame reads one frame and decodes it into v.
func ReadFrame(r io.Reader, v interface{}) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return ErrFrameTooLarge
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	if err := Unmarshal(body, v); err != nil {
		return fmt.Errorf("rpc: decode: %w", err)
	}
	return nil
}
