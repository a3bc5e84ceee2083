package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dqx0.com/go/h1conn/httpx"
	"dqx0.com/go/h1conn/internal/obs"
)

type server interface {
	ListenAndServe() error
	Shutdown(context.Context) error
}

func main() {
	var (
		addr              = flag.String("addr", ":8080", "listen address")
		engine            = flag.String("engine", "net", "transport engine: net or gnet")
		readHeaderTimeout = flag.Duration("read-header-timeout", 10*time.Second, "deadline for the first header block (net engine)")
		idleTimeout       = flag.Duration("idle-timeout", 60*time.Second, "deadline for each following header block (net engine)")
		maxHeaderBytes    = flag.Int("max-header-bytes", httpx.DefaultMaxHeaderBytes, "upper bound on a header block")
		multicore         = flag.Bool("multicore", true, "run one event loop per CPU (gnet engine)")
		logLevel          = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	level, err := obs.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger := obs.StdLogger{L: log.New(os.Stderr, "", log.LstdFlags), Min: level, Pref: "h1conn "}

	var srv server
	switch *engine {
	case "net":
		srv = &httpx.Server{
			Addr:              *addr,
			Handler:           httpx.HandlerFunc(echo),
			ReadHeaderTimeout: *readHeaderTimeout,
			IdleTimeout:       *idleTimeout,
			MaxHeaderBytes:    *maxHeaderBytes,
			Logger:            logger,
		}
	case "gnet":
		srv = &httpx.GnetServer{
			Addr:           *addr,
			Multicore:      *multicore,
			Handler:        httpx.HandlerFunc(echo),
			MaxHeaderBytes: *maxHeaderBytes,
			Logger:         logger,
		}
	default:
		log.Fatalf("unknown engine %q", *engine)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Logf(obs.Warn, "shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, httpx.ErrServerClosed) {
		log.Fatal(err)
	}
}

// echo answers with the parsed request line and headers.
func echo(r *httpx.Request) *httpx.Response {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", r.Method, r.Path, r.Version)
	for _, name := range r.Header.Names() {
		fmt.Fprintf(&b, "%s: %s\n", name, r.Header.Get(name))
	}
	return &httpx.Response{
		StatusCode: 200,
		Header:     map[string][]string{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:       []byte(b.String()),
	}
}
