package http1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendResponse_KeepAlive(t *testing.T) {
	hdr := map[string][]string{
		"X-B":            {"2"},
		"Content-Type":   {"text/plain"},
		"Content-Length": {"999"},
		"Connection":     {"close"},
	}
	got := AppendResponse(nil, 200, "", hdr, []byte("hi"), true)
	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"X-B: 2\r\n" +
		"Content-Length: 2\r\n" +
		"Connection: keep-alive\r\n" +
		"\r\n" +
		"hi"
	assert.Equal(t, want, string(got))
}

func TestAppendResponse_CloseNoBody(t *testing.T) {
	got := AppendResponse([]byte("prefix|"), 400, "", nil, nil, false)
	want := "prefix|HTTP/1.1 400 Bad Request\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"
	assert.Equal(t, want, string(got))
}

func TestAppendResponse_SanitizesValues(t *testing.T) {
	hdr := map[string][]string{"X-Evil": {"a\r\nSet-Cookie: x"}}
	got := AppendResponse(nil, 299, "Custom", hdr, nil, false)
	assert.Contains(t, string(got), "HTTP/1.1 299 Custom\r\n")
	assert.Contains(t, string(got), "X-Evil: aSet-Cookie: x\r\n")
}

func TestSanitizeHeaderValue(t *testing.T) {
	assert.Equal(t, "plain\tvalue", SanitizeHeaderValue("plain\tvalue"))
	assert.Equal(t, "ab", SanitizeHeaderValue("a\x00\x7fb"))
	assert.Equal(t, "", SanitizeHeaderValue(""))
}
