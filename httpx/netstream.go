package httpx

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"sync"
	"time"
)

// netStream adapts a net.Conn to Stream. The blocking read runs on its own
// goroutine and its completion is posted to the Loop, so ReadHandlers only
// ever run on the Loop.
type netStream struct {
	conn         net.Conn
	br           *bufio.Reader
	loop         *Loop
	readTimeout  time.Duration
	writeTimeout time.Duration
	onClose      func(*netStream)

	closeOnce sync.Once
	closeErr  error
}

func newNetStream(c net.Conn, loop *Loop) *netStream {
	return &netStream{
		conn: c,
		br:   bufio.NewReader(c),
		loop: loop,
	}
}

// SetReadTimeout sets the deadline applied to each subsequent ReadUntil.
// Zero disables it.
func (s *netStream) SetReadTimeout(d time.Duration) { s.readTimeout = d }

func (s *netStream) ReadUntil(buf ReadBuffer, delim []byte, done ReadHandler) {
	if s.readTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	} else {
		_ = s.conn.SetReadDeadline(time.Time{})
	}
	go func() {
		n, err := readUntil(s.br, buf, delim)
		if !s.loop.Post(func() { done(err, n) }) {
			_ = s.Close()
		}
	}()
}

func (s *netStream) Write(p []byte) (int, error) {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.Write(p)
}

func (s *netStream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// Cancel unblocks an outstanding read by expiring its deadline.
func (s *netStream) Cancel() {
	_ = s.conn.SetReadDeadline(time.Now())
}

func (s *netStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
		if s.onClose != nil {
			s.onClose(s)
		}
	})
	return s.closeErr
}

// readUntil copies bytes from br into buf until the bytes copied so far end
// with delim.
func readUntil(br *bufio.Reader, buf ReadBuffer, delim []byte) (int, error) {
	if len(delim) == 0 {
		return 0, nil
	}
	last := delim[len(delim)-1]
	tail := make([]byte, 0, len(delim))
	n := 0
	for {
		chunk, err := br.ReadSlice(last)
		if len(chunk) > 0 {
			if !buf.Append(chunk...) {
				return n, ErrHeaderTooLarge
			}
			n += len(chunk)
			tail = appendTail(tail, chunk, len(delim))
		}
		switch {
		case err == nil:
			if bytes.Equal(tail, delim) {
				return n, nil
			}
		case errors.Is(err, bufio.ErrBufferFull):
		default:
			return n, err
		}
	}
}

// appendTail keeps the last size bytes of tail+chunk in tail.
func appendTail(tail, chunk []byte, size int) []byte {
	if len(chunk) >= size {
		return append(tail[:0], chunk[len(chunk)-size:]...)
	}
	tail = append(tail, chunk...)
	if len(tail) > size {
		tail = append(tail[:0], tail[len(tail)-size:]...)
	}
	return tail
}
