package httpx

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"dqx0.com/go/h1conn/httpx/internal/http1"
	"dqx0.com/go/h1conn/internal/obs"
)

// Handler answers a request whose header block parsed successfully. Request
// bodies are not read; the next header block is expected right after the
// current one.
type Handler interface {
	ServeRequest(*Request) *Response
}

type HandlerFunc func(*Request) *Response

func (f HandlerFunc) ServeRequest(r *Request) *Response {
	return f(r)
}

var notFoundHandler = HandlerFunc(func(*Request) *Response {
	return &Response{StatusCode: 404, Body: []byte("not found")}
})

// dispatcher owns the lifetime of Connections: it answers each finished
// header cycle and, when the connection is keep-alive, starts a fresh
// Connection on the same Stream.
type dispatcher struct {
	handler        Handler
	logger         obs.Logger
	meter          obs.Meter
	maxHeaderBytes int
	idleTimeout    time.Duration
}

func (d *dispatcher) serve(st Stream) {
	c := NewConnection(st, d.onRequest)
	c.Logger = d.logger
	c.Meter = d.meter
	c.MaxHeaderBytes = d.maxHeaderBytes
	if err := c.NotifyConnected(); err != nil {
		d.logger.Logf(obs.Warn, "start header cycle: %v", err)
		_ = c.Close()
	}
}

func (d *dispatcher) onRequest(c *Connection, r *Request, status Status) {
	d.meter.Counter("h1conn.requests", 1, obs.Label{Key: "status", Value: status.String()})
	switch {
	case status == StatusOK:
		d.respond(c, r)
	case status.IsMalformed():
		out := http1.AppendResponse(nil, 400, "", nil, nil, false)
		if _, err := c.Write(out); err != nil {
			d.logger.Logf(obs.Warn, "write 400 to %s: %v", r.PeerName, err)
		}
		_ = c.Close()
	default:
		_ = c.Close()
	}
}

func (d *dispatcher) respond(c *Connection, r *Request) {
	h := d.handler
	if h == nil {
		h = notFoundHandler
	}
	res := h.ServeRequest(r)
	if res == nil {
		res = &Response{StatusCode: 204}
	}
	if res.StatusCode == 0 {
		res.StatusCode = 200
	}
	keepAlive := c.KeepAlive() && !res.wantsClose()

	out := http1.AppendResponse(nil, res.StatusCode, res.Status, res.Header, res.Body, keepAlive)
	if _, err := c.Write(out); err != nil {
		d.logger.Logf(obs.Warn, "write response to %s (id=%s): %v", r.PeerName, r.ID, err)
		_ = c.Close()
		return
	}
	if !keepAlive {
		_ = c.Close()
		return
	}
	st, err := c.Detach()
	if err != nil {
		_ = c.Close()
		return
	}
	if t, ok := st.(interface{ SetReadTimeout(time.Duration) }); ok && d.idleTimeout > 0 {
		t.SetReadTimeout(d.idleTimeout)
	}
	d.meter.Counter("h1conn.reuse", 1)
	d.serve(st)
}

// Server accepts TCP connections and runs every Connection, and every read
// completion, on one Loop.
type Server struct {
	Addr    string
	Handler Handler
	// ReadHeaderTimeout bounds the read of the first header block on a
	// connection.
	ReadHeaderTimeout time.Duration
	// IdleTimeout bounds the wait for each following header block. Zero
	// falls back to ReadHeaderTimeout.
	IdleTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
	Logger         obs.Logger
	Meter          obs.Meter

	mu      sync.Mutex
	ln      net.Listener
	loop    *Loop
	streams map[*netStream]struct{}
	closed  bool
}

func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on l until l fails or Shutdown is called, in
// which case it returns ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.Close()
		return ErrServerClosed
	}
	loop := NewLoop(0)
	s.ln = l
	s.loop = loop
	s.streams = make(map[*netStream]struct{})
	s.mu.Unlock()

	defer l.Close()
	go func() { _ = loop.Run(context.Background()) }()

	logger := obs.LoggerOrNop(s.Logger)
	logger.Logf(obs.Info, "serving HTTP/1.x on %s", l.Addr())
	d := s.dispatcher()
	for {
		c, err := l.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Logf(obs.Warn, "accept: %v", err)
				continue
			}
			loop.Stop()
			return err
		}
		st, ok := s.track(c, loop)
		if !ok {
			return ErrServerClosed
		}
		if !loop.Post(func() { d.serve(st) }) {
			_ = st.Close()
		}
	}
}

// Shutdown stops accepting, closes every open connection and stops the
// loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln, loop := s.ln, s.loop
	streams := make([]*netStream, 0, len(s.streams))
	for st := range s.streams {
		streams = append(streams, st)
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, st := range streams {
		if ctx.Err() != nil {
			break
		}
		_ = st.Close()
	}
	if loop != nil {
		loop.Stop()
	}
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (s *Server) dispatcher() *dispatcher {
	idle := s.IdleTimeout
	if idle <= 0 {
		idle = s.ReadHeaderTimeout
	}
	return &dispatcher{
		handler:        s.Handler,
		logger:         obs.LoggerOrNop(s.Logger),
		meter:          obs.MeterOrNop(s.Meter),
		maxHeaderBytes: s.MaxHeaderBytes,
		idleTimeout:    idle,
	}
}

func (s *Server) track(c net.Conn, loop *Loop) (*netStream, bool) {
	st := newNetStream(c, loop)
	st.readTimeout = s.ReadHeaderTimeout
	st.writeTimeout = s.WriteTimeout
	st.onClose = s.untrack

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = c.Close()
		return nil, false
	}
	s.streams[st] = struct{}{}
	return st, true
}

func (s *Server) untrack(st *netStream) {
	s.mu.Lock()
	delete(s.streams, st)
	s.mu.Unlock()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
