// Package httpx reads HTTP/1.x request heads off a connection and decides
// whether the connection can carry another request.
//
// The core is Connection: it owns one Stream, issues a single delimited
// read for the header block ("\r\n\r\n"), parses the request line and
// header lines, and reports the outcome through a RequestCallback exactly
// once per cycle. Parse outcomes are classified as a Status:
//
//   - StatusOK: request line and headers parsed, blank line seen.
//   - StatusSystemError: the transport failed. Resets and a clean EOF are
//     expected at keep-alive teardown and are not logged.
//   - StatusMalformedFirstLine, StatusMalformedHeaderLine: syntax errors,
//     always logged.
//
// A Connection never re-arms itself. When KeepAlive reports true the
// owner calls Detach and starts a fresh Connection on the same Stream.
// Server (net.Conn plus a Loop) and GnetServer (gnet event loops) do this
// for you and answer each request through a Handler.
//
// Quick start:
//
//	s := &httpx.Server{Addr: ":8080"}
//	s.Handler = httpx.HandlerFunc(func(r *httpx.Request) *httpx.Response {
//	    return &httpx.Response{StatusCode: 200, Body: []byte(r.Path)}
//	})
//	if err := s.ListenAndServe(); err != nil { log.Fatal(err) }
//
// Request bodies, chunked transfer, trailers, 100-continue and HTTP/2 are
// not handled.
package httpx
