package http1

import (
	"sort"
	"strconv"
)

// AppendResponse appends a minimal HTTP/1.1 response to dst. Content-Length
// is always written from len(body); Connection reflects keepAlive. Any
// caller-supplied Content-Length or Connection entries in hdr are ignored.
// hdr keys should be canonicalized by caller.
func AppendResponse(dst []byte, status int, reason string, hdr map[string][]string, body []byte, keepAlive bool) []byte {
	if reason == "" {
		reason = DefaultReason(status)
	}
	dst = append(dst, "HTTP/1.1 "...)
	dst = strconv.AppendInt(dst, int64(status), 10)
	dst = append(dst, ' ')
	dst = append(dst, reason...)
	dst = append(dst, crlf...)

	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		if k == "Content-Length" || k == "Connection" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range hdr[k] {
			dst = append(dst, k...)
			dst = append(dst, ": "...)
			dst = append(dst, SanitizeHeaderValue(v)...)
			dst = append(dst, crlf...)
		}
	}
	dst = append(dst, "Content-Length: "...)
	dst = strconv.AppendInt(dst, int64(len(body)), 10)
	dst = append(dst, crlf...)
	if keepAlive {
		dst = append(dst, "Connection: keep-alive\r\n"...)
	} else {
		dst = append(dst, "Connection: close\r\n"...)
	}
	dst = append(dst, crlf...)
	return append(dst, body...)
}

// DefaultReason returns the reason phrase for the status codes a header
// parser is likely to answer with.
func DefaultReason(code int) string {
	switch code {
	case 200:
		return "OK"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 408:
		return "Request Timeout"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 505:
		return "HTTP Version Not Supported"
	default:
		return "Unknown"
	}
}

// SanitizeHeaderValue removes CR/LF and control chars except HTAB.
func SanitizeHeaderValue(v string) string {
	clean := true
	for i := 0; i < len(v); i++ {
		if c := v[i]; c == 0x7f || (c < 0x20 && c != '\t') {
			clean = false
			break
		}
	}
	if clean {
		return v
	}
	b := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == 0x7f || (c < 0x20 && c != '\t') {
			continue
		}
		b = append(b, c)
	}
	return string(b)
}
