package httpx

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"dqx0.com/go/h1conn/httpx/internal/http1"
	"dqx0.com/go/h1conn/internal/obs"
)

// DefaultMaxHeaderBytes bounds a header block when MaxHeaderBytes is unset.
const DefaultMaxHeaderBytes = 8 << 10

type ConnState int

const (
	StateUnconnected ConnState = iota
	StateWaitingForHeaders
	// StateDone is terminal: the callback has fired for this cycle.
	StateDone
)

func (s ConnState) String() string {
	switch s {
	case StateUnconnected:
		return "UNCONNECTED"
	case StateWaitingForHeaders:
		return "WAITING_FOR_HEADERS"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// RequestCallback receives the outcome of one header cycle. It is called
// exactly once per NotifyConnected, and never after Close.
type RequestCallback func(c *Connection, r *Request, status Status)

// Connection reads and parses one HTTP/1.x header block from a Stream it
// owns exclusively, and decides whether the transport may carry another
// request afterwards.
//
// A Connection is not safe for concurrent use. All calls, and the Stream's
// read completions, must happen on the same serialized context.
type Connection struct {
	Logger         obs.Logger
	Meter          obs.Meter
	MaxHeaderBytes int

	state     ConnState
	stream    Stream
	callback  RequestCallback
	keepAlive bool
	pending   *readToken
	closed    bool
}

// readToken carries the Request across the asynchronous read. It can be
// redeemed once; Close revokes it.
type readToken struct {
	req *Request
}

func (t *readToken) redeem() *Request {
	r := t.req
	t.req = nil
	return r
}

func NewConnection(stream Stream, cb RequestCallback) *Connection {
	if cb == nil {
		cb = func(*Connection, *Request, Status) {}
	}
	return &Connection{
		stream:    stream,
		callback:  cb,
		keepAlive: true,
	}
}

func (c *Connection) State() ConnState { return c.state }

// KeepAlive reports whether the transport may be reused once the current
// cycle is done. It only ever goes from true to false.
func (c *Connection) KeepAlive() bool { return c.keepAlive }

// NotifyConnected starts the header cycle: it allocates the Request, records
// the peer address and issues the delimited read for the header block.
func (c *Connection) NotifyConnected() error {
	if c.closed || c.stream == nil {
		return ErrConnClosed
	}
	if c.state != StateUnconnected {
		return fmt.Errorf("%w: NotifyConnected in %s", ErrConnState, c.state)
	}
	req := newRequest(peerName(c.stream.RemoteAddr()), c.maxHeaderBytes())
	tok := &readToken{req: req}
	c.pending = tok
	c.state = StateWaitingForHeaders
	c.stream.ReadUntil(req.raw, http1.HeaderBlockEnd, func(err error, n int) {
		c.onHeaders(tok, err, n)
	})
	return nil
}

func (c *Connection) onHeaders(tok *readToken, err error, n int) {
	req := tok.redeem()
	if req == nil || c.closed || c.state != StateWaitingForHeaders {
		return
	}
	c.pending = nil
	c.state = StateDone

	st := c.parse(req, err)
	c.getMeter().Counter("h1conn.parse", 1, obs.Label{Key: "status", Value: st.String()})
	if err == nil {
		c.getMeter().Histogram("h1conn.header_bytes", float64(n))
	}
	c.callback(c, req, st)
}

func (c *Connection) parse(req *Request, err error) Status {
	if err != nil {
		// Peers routinely reset or close idle keep-alive connections, so
		// those are not worth a log line.
		if !isExpectedClose(err) {
			c.logf(obs.Error, "system error in OnHeaders, %v (peer=%s id=%s)", err, req.PeerName, req.ID)
		}
		return StatusSystemError
	}

	data := req.drain()
	off := 0
	for {
		line, next, ok := http1.NextLine(data, off)
		if !ok {
			c.logf(obs.Error, "malformed header line (peer=%s id=%s)", req.PeerName, req.ID)
			return StatusMalformedHeaderLine
		}
		switch {
		case off == 0:
			rl, ok := http1.ParseRequestLine(line)
			if !ok {
				c.logf(obs.Error, "malformed first line (peer=%s id=%s)", req.PeerName, req.ID)
				return StatusMalformedFirstLine
			}
			req.Method = rl.Method
			req.Path = rl.Target
			req.Version = Version{Major: 1, Minor: rl.Minor}
			if rl.Minor == 0 {
				c.keepAlive = false
			}
		case line == "":
			return StatusOK
		default:
			name, value, ok := http1.ParseHeaderLine(line)
			if !ok {
				c.logf(obs.Error, "malformed header line (peer=%s id=%s)", req.PeerName, req.ID)
				return StatusMalformedHeaderLine
			}
			key := NewHeaderKey(name)
			req.Header.SetHeader(key, value)
			if key.Norm == "connection" && value == "close" {
				c.keepAlive = false
			}
		}
		off = next
	}
}

// Write sends p on the underlying Stream, for callers answering the
// request from inside the callback.
func (c *Connection) Write(p []byte) (int, error) {
	if c.stream == nil {
		return 0, ErrConnClosed
	}
	return c.stream.Write(p)
}

// Detach hands the Stream to the caller once the cycle is done, so a fresh
// Connection can read the next request from it. The Connection is closed
// afterwards without touching the Stream.
func (c *Connection) Detach() (Stream, error) {
	if c.closed || c.stream == nil {
		return nil, ErrConnClosed
	}
	if c.state != StateDone {
		return nil, ErrNotDone
	}
	s := c.stream
	c.stream = nil
	c.closed = true
	return s, nil
}

// Close cancels any outstanding read and releases the Stream. It is safe
// to call more than once and after Detach.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.pending != nil {
		c.pending.redeem()
		c.pending = nil
	}
	s := c.stream
	c.stream = nil
	if s == nil {
		return nil
	}
	s.Cancel()
	return s.Close()
}

func (c *Connection) maxHeaderBytes() int {
	if c.MaxHeaderBytes <= 0 {
		return DefaultMaxHeaderBytes
	}
	return c.MaxHeaderBytes
}

func (c *Connection) logf(level obs.Level, format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Logf(level, format, args...)
	}
}

func (c *Connection) getMeter() obs.Meter {
	return obs.MeterOrNop(c.Meter)
}

func isExpectedClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET)
}
