package httpx

import "strings"

// Response is what a Handler answers a parsed header block with. The body
// is written with a Content-Length.
type Response struct {
	StatusCode int
	// Status is the reason phrase; empty selects the default for StatusCode.
	Status string
	Header map[string][]string
	Body   []byte
}

func (r *Response) wantsClose() bool {
	for k, vv := range r.Header {
		if !strings.EqualFold(k, "Connection") {
			continue
		}
		for _, v := range vv {
			if strings.EqualFold(strings.TrimSpace(v), "close") {
				return true
			}
		}
	}
	return false
}
