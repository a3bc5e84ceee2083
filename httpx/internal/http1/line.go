package http1

import "strings"

const (
	crlf = "\r\n"

	// versionSuffixLen is len(" HTTP/1.x").
	versionSuffixLen = 9
)

// HeaderBlockEnd is the blank line that closes a header block.
var HeaderBlockEnd = []byte("\r\n\r\n")

// RequestLine is the result of lexing "METHOD SP TARGET SP HTTP/1.(0|1)".
type RequestLine struct {
	Method string
	Target string
	Minor  int
}

// NextLine returns the line that starts at off, without its CRLF, and the
// offset just past the CRLF. ok is false when no CRLF exists at or after off.
func NextLine(data string, off int) (line string, next int, ok bool) {
	if off < 0 || off > len(data) {
		return "", off, false
	}
	i := strings.Index(data[off:], crlf)
	if i < 0 {
		return "", off, false
	}
	return data[off : off+i], off + i + len(crlf), true
}

// ParseRequestLine lexes a request line. METHOD is one or more uppercase
// ASCII letters followed by exactly one space. TARGET is everything between
// that space and the trailing " HTTP/1.0" or " HTTP/1.1"; it may be empty
// and may contain spaces.
func ParseRequestLine(line string) (RequestLine, bool) {
	if len(line) < versionSuffixLen {
		return RequestLine{}, false
	}
	head, ver := line[:len(line)-versionSuffixLen], line[len(line)-versionSuffixLen:]
	if !strings.HasPrefix(ver, " HTTP/1.") {
		return RequestLine{}, false
	}
	var minor int
	switch ver[versionSuffixLen-1] {
	case '0':
		minor = 0
	case '1':
		minor = 1
	default:
		return RequestLine{}, false
	}

	i := 0
	for i < len(head) && isUpper(head[i]) {
		i++
	}
	if i == 0 || i >= len(head) || head[i] != ' ' {
		return RequestLine{}, false
	}
	return RequestLine{Method: head[:i], Target: head[i+1:], Minor: minor}, true
}

// ParseHeaderLine lexes "TOKEN ':' *WS VALUE". TOKEN is letters, digits,
// '-' and '_'. VALUE is the rest of the line after leading whitespace.
func ParseHeaderLine(line string) (name, value string, ok bool) {
	i := 0
	for i < len(line) && isNameChar(line[i]) {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != ':' {
		return "", "", false
	}
	j := i + 1
	for j < len(line) && isSpace(line[j]) {
		j++
	}
	return line[:i], line[j:], true
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isNameChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	return c == '-' || c == '_'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
