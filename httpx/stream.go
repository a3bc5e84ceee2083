package httpx

import (
	"io"
	"net"
)

// ReadBuffer receives the bytes of a delimited read. Append reports false
// when the buffer refuses more input.
type ReadBuffer interface {
	Append(p ...byte) bool
}

// ReadHandler is the continuation of Stream.ReadUntil. n is the number of
// bytes appended to the buffer, including the delimiter on success.
type ReadHandler func(err error, n int)

// Stream is the byte-stream transport a Connection drives.
//
// ReadUntil starts one asynchronous read that appends bytes to buf up to and
// including the first occurrence of delim. Bytes received past the
// delimiter stay buffered in the Stream for the next ReadUntil. done is
// called exactly once, on the serialized context that owns the Stream, and
// never from inside ReadUntil itself. If buf refuses bytes the read fails
// with ErrHeaderTooLarge.
//
// Cancel abandons an outstanding read; its done may still run and must be
// ignored by the caller. Close releases the transport.
type Stream interface {
	io.Writer
	ReadUntil(buf ReadBuffer, delim []byte, done ReadHandler)
	RemoteAddr() net.Addr
	Cancel()
	Close() error
}
