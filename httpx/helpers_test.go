package httpx

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"dqx0.com/go/h1conn/internal/obs"
)

type scriptedRead struct {
	buf   ReadBuffer
	delim []byte
	done  ReadHandler
}

// scriptedStream records ReadUntil calls; tests complete them by hand.
type scriptedStream struct {
	addr     net.Addr
	reads    []*scriptedRead
	written  bytes.Buffer
	writeErr error
	canceled int
	closed   int
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{addr: &net.TCPAddr{IP: net.IPv4(192, 0, 2, 7), Port: 40123}}
}

func (s *scriptedStream) ReadUntil(buf ReadBuffer, delim []byte, done ReadHandler) {
	s.reads = append(s.reads, &scriptedRead{buf: buf, delim: delim, done: done})
}

func (s *scriptedStream) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	return s.written.Write(p)
}

func (s *scriptedStream) RemoteAddr() net.Addr { return s.addr }
func (s *scriptedStream) Cancel()              { s.canceled++ }
func (s *scriptedStream) Close() error         { s.closed++; return nil }

func (s *scriptedStream) last(t *testing.T) *scriptedRead {
	t.Helper()
	require.NotEmpty(t, s.reads, "no ReadUntil issued")
	return s.reads[len(s.reads)-1]
}

// deliver completes the latest read with data.
func (s *scriptedStream) deliver(t *testing.T, data string) {
	t.Helper()
	r := s.last(t)
	require.True(t, r.buf.Append([]byte(data)...), "buffer refused %d bytes", len(data))
	r.done(nil, len(data))
}

// fail completes the latest read with err.
func (s *scriptedStream) fail(t *testing.T, err error) {
	t.Helper()
	s.last(t).done(err, 0)
}

type logEntry struct {
	Level obs.Level
	Msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) Logf(level obs.Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{Level: level, Msg: fmt.Sprintf(format, args...)})
}

func (l *recordingLogger) Entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logEntry(nil), l.entries...)
}

type measurement struct {
	Name   string
	Value  float64
	Labels []obs.Label
}

type recordingMeter struct {
	mu       sync.Mutex
	counters []measurement
}

func (m *recordingMeter) Counter(name string, value float64, labels ...obs.Label) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, measurement{Name: name, Value: value, Labels: labels})
}

func (m *recordingMeter) Histogram(name string, value float64, labels ...obs.Label) {}

func (m *recordingMeter) count(name string, label obs.Label) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.counters {
		if c.Name != name {
			continue
		}
		if label.Key == "" {
			n++
			continue
		}
		for _, l := range c.Labels {
			if l == label {
				n++
			}
		}
	}
	return n
}

type callbackCall struct {
	Conn    *Connection
	Request *Request
	Status  Status
}

type callbackRecorder struct {
	calls []callbackCall
}

func (r *callbackRecorder) callback(c *Connection, req *Request, st Status) {
	r.calls = append(r.calls, callbackCall{Conn: c, Request: req, Status: st})
}

// sliceBuffer is a bounded ReadBuffer.
type sliceBuffer struct {
	b   []byte
	max int
}

func (s *sliceBuffer) Append(p ...byte) bool {
	if s.max > 0 && len(s.b)+len(p) > s.max {
		return false
	}
	s.b = append(s.b, p...)
	return true
}
