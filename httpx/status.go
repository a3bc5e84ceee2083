package httpx

// Status is the outcome of one header parse attempt. It is unrelated to the
// HTTP response status code.
type Status int

const (
	StatusOK Status = iota
	StatusSystemError
	StatusMalformedHeaderLine
	StatusMalformedFirstLine
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusSystemError:
		return "SYSTEM_ERROR"
	case StatusMalformedHeaderLine:
		return "MALFORMED_HEADER_LINE"
	case StatusMalformedFirstLine:
		return "MALFORMED_FIRST_LINE"
	default:
		return "UNKNOWN"
	}
}

// IsMalformed reports whether s is a protocol syntax error, as opposed to a
// transport failure.
func (s Status) IsMalformed() bool {
	return s == StatusMalformedHeaderLine || s == StatusMalformedFirstLine
}
