package httpx

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"

	"github.com/panjf2000/gnet/v2"

	"dqx0.com/go/h1conn/internal/obs"
)

// gnetConn is the part of gnet.Conn a gnetStream relies on.
type gnetConn interface {
	Peek(n int) ([]byte, error)
	Discard(n int) (int, error)
	InboundBuffered() int
	Wake(callback gnet.AsyncCallback) error
	RemoteAddr() net.Addr
	Write(p []byte) (int, error)
	Close() error
}

type gnetRead struct {
	buf   ReadBuffer
	delim []byte
	done  ReadHandler
}

// gnetStream serves ReadUntil from the inbound buffer of a gnet connection.
// It is only touched from the connection's event loop.
type gnetStream struct {
	c        gnetConn
	maxBytes int
	pending  *gnetRead
	closed   bool
	closeErr error
}

func newGnetStream(c gnetConn, maxBytes int) *gnetStream {
	return &gnetStream{c: c, maxBytes: maxBytes}
}

func (s *gnetStream) ReadUntil(buf ReadBuffer, delim []byte, done ReadHandler) {
	s.pending = &gnetRead{buf: buf, delim: delim, done: done}
	if !s.closed && s.c.InboundBuffered() == 0 {
		// OnTraffic pumps once bytes arrive.
		return
	}
	// Bytes are already buffered, or the peer is gone: finish on a later
	// turn of the event loop.
	err := s.c.Wake(func(gnet.Conn, error) error {
		s.pump()
		return nil
	})
	if err != nil {
		s.complete(err, 0)
	}
}

// pump completes the pending read if the delimiter is buffered, the buffer
// limit is exceeded or the connection is closed.
func (s *gnetStream) pump() {
	r := s.pending
	if r == nil {
		return
	}
	if s.closed {
		s.complete(s.closeErr, 0)
		return
	}
	data, err := s.c.Peek(-1)
	if err != nil {
		s.complete(err, 0)
		return
	}
	if i := bytes.Index(data, r.delim); i >= 0 {
		n := i + len(r.delim)
		if !r.buf.Append(data[:n]...) {
			s.complete(ErrHeaderTooLarge, 0)
			return
		}
		_, _ = s.c.Discard(n)
		s.complete(nil, n)
		return
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		s.complete(ErrHeaderTooLarge, 0)
	}
}

func (s *gnetStream) complete(err error, n int) {
	r := s.pending
	s.pending = nil
	if r != nil {
		r.done(err, n)
	}
}

// onClose records that gnet closed the connection and fails a pending read.
func (s *gnetStream) onClose(err error) {
	if s.closed {
		return
	}
	s.closed = true
	if err == nil {
		err = io.EOF
	}
	s.closeErr = err
	s.pump()
}

func (s *gnetStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, net.ErrClosed
	}
	return s.c.Write(p)
}

func (s *gnetStream) RemoteAddr() net.Addr { return s.c.RemoteAddr() }

func (s *gnetStream) Cancel() { s.pending = nil }

func (s *gnetStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.closeErr = net.ErrClosed
	return s.c.Close()
}

// GnetServer serves header cycles on gnet event loops. Each connection is
// bound to one event loop, which is the serialized context its Connections
// run on.
type GnetServer struct {
	gnet.BuiltinEventEngine

	Addr           string
	Multicore      bool
	NumEventLoop   int
	ReusePort      bool
	Handler        Handler
	MaxHeaderBytes int
	Logger         obs.Logger
	Meter          obs.Meter

	mu  sync.Mutex
	eng gnet.Engine
	d   *dispatcher
}

func (s *GnetServer) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	s.d = &dispatcher{
		handler:        s.Handler,
		logger:         obs.LoggerOrNop(s.Logger),
		meter:          obs.MeterOrNop(s.Meter),
		maxHeaderBytes: s.MaxHeaderBytes,
	}
	opts := []gnet.Option{
		gnet.WithMulticore(s.Multicore),
		gnet.WithReusePort(s.ReusePort),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
	}
	if s.NumEventLoop > 0 {
		opts = append(opts, gnet.WithNumEventLoop(s.NumEventLoop))
	}
	return gnet.Run(s, "tcp://"+addr, opts...)
}

// Shutdown stops the gnet engine started by ListenAndServe.
func (s *GnetServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	eng := s.eng
	s.mu.Unlock()
	return eng.Stop(ctx)
}

func (s *GnetServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.mu.Lock()
	s.eng = eng
	s.mu.Unlock()
	s.d.logger.Logf(obs.Info, "serving HTTP/1.x on %s (gnet, multicore: %v)", s.Addr, s.Multicore)
	return gnet.None
}

func (s *GnetServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	limit := s.MaxHeaderBytes
	if limit <= 0 {
		limit = DefaultMaxHeaderBytes
	}
	st := newGnetStream(c, limit)
	c.SetContext(st)
	s.d.serve(st)
	return nil, gnet.None
}

func (s *GnetServer) OnTraffic(c gnet.Conn) gnet.Action {
	st, ok := c.Context().(*gnetStream)
	if !ok {
		s.d.logger.Logf(obs.Warn, "gnet connection from %s has no stream", c.RemoteAddr())
		return gnet.Close
	}
	st.pump()
	return gnet.None
}

func (s *GnetServer) OnClose(c gnet.Conn, err error) gnet.Action {
	if st, ok := c.Context().(*gnetStream); ok {
		st.onClose(err)
	}
	return gnet.None
}
