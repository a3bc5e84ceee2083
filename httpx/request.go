package httpx

import (
	"net"
	"strconv"

	"github.com/indigo-web/utils/arena"
)

// Version is an HTTP protocol version. Major is always 1 for requests
// accepted by Connection.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return "HTTP/" + strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// Request holds the result of one header parse cycle.
//
// A Request is created by Connection.NotifyConnected, filled in while the
// header block is parsed and handed to the RequestCallback, after which it
// belongs to the callback.
type Request struct {
	// ID identifies the request in log lines.
	ID string
	// PeerName is the remote IP address captured when the cycle started.
	PeerName string
	Method   string
	Path     string
	Version  Version
	Header   Header

	// raw accumulates the header block across the asynchronous read.
	raw *arena.Arena[byte]
}

const initialRawSpace = 1 << 10

func newRequest(peer string, maxHeaderBytes int) *Request {
	initial := initialRawSpace
	if initial > maxHeaderBytes {
		initial = maxHeaderBytes
	}
	return &Request{
		ID:       genID(),
		PeerName: peer,
		Header:   Header{},
		raw:      arena.NewArena[byte](initial, maxHeaderBytes),
	}
}

// drain returns the accumulated header block. It is called once per cycle.
func (r *Request) drain() string {
	return string(r.raw.Finish())
}

// peerName returns the address part of a remote endpoint.
func peerName(addr net.Addr) string {
	switch a := addr.(type) {
	case nil:
		return ""
	case *net.TCPAddr:
		if a == nil {
			return ""
		}
		return a.IP.String()
	}
	s := addr.String()
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host
	}
	return s
}
