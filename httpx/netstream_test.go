package httpx

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUntil_SmallBuffer(t *testing.T) {
	raw := "GET /aaaaaaaaaaaaaaaaaaaaaaaaaaaa HTTP/1.1\r\nX: y\n\r\n\r\nrest"
	br := bufio.NewReaderSize(strings.NewReader(raw), 16)
	buf := &sliceBuffer{}
	n, err := readUntil(br, buf, []byte("\r\n\r\n"))
	require.NoError(t, err)
	want := strings.TrimSuffix(raw, "rest")
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, string(buf.b))

	rest, _ := io.ReadAll(br)
	assert.Equal(t, "rest", string(rest))
}

func TestReadUntil_EOF(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("GET / HTTP/1.1\r\n"))
	buf := &sliceBuffer{}
	n, err := readUntil(br, buf, []byte("\r\n\r\n"))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 16, n)
}

func TestReadUntil_TooLarge(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("GET /long HTTP/1.1\r\n\r\n"))
	_, err := readUntil(br, &sliceBuffer{max: 10}, []byte("\r\n\r\n"))
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestAppendTail(t *testing.T) {
	tail := appendTail(nil, []byte("ab"), 4)
	tail = appendTail(tail, []byte("cde"), 4)
	assert.Equal(t, "bcde", string(tail))
	tail = appendTail(tail, []byte("0123456"), 4)
	assert.Equal(t, "3456", string(tail))
}

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = l.Run(ctx) }()
	return l
}

type readResult struct {
	err error
	n   int
}

func TestNetStream_CarriesRemainder(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	loop := startLoop(t)
	st := newNetStream(server, loop)
	defer st.Close()

	go func() {
		_, _ = client.Write([]byte("GET /1 HTTP/1.1\r\n\r\nGET /2 HTTP/1.1\r\n\r\n"))
	}()

	for _, want := range []string{"GET /1 HTTP/1.1\r\n\r\n", "GET /2 HTTP/1.1\r\n\r\n"} {
		buf := &sliceBuffer{}
		res := make(chan readResult, 1)
		st.ReadUntil(buf, []byte("\r\n\r\n"), func(err error, n int) { res <- readResult{err, n} })
		select {
		case r := <-res:
			require.NoError(t, r.err)
			assert.Equal(t, len(want), r.n)
			assert.Equal(t, want, string(buf.b))
		case <-time.After(2 * time.Second):
			t.Fatal("read did not complete")
		}
	}
}

func TestNetStream_CloseFailsRead(t *testing.T) {
	client, server := net.Pipe()
	loop := startLoop(t)
	st := newNetStream(server, loop)

	closed := 0
	st.onClose = func(*netStream) { closed++ }

	res := make(chan readResult, 1)
	st.ReadUntil(&sliceBuffer{}, []byte("\r\n\r\n"), func(err error, n int) { res <- readResult{err, n} })
	require.NoError(t, client.Close())

	select {
	case r := <-res:
		assert.Error(t, r.err)
	case <-time.After(2 * time.Second):
		t.Fatal("read did not complete")
	}
	st.Cancel()
	_ = st.Close()
	_ = st.Close()
	assert.Equal(t, 1, closed)
}

func TestNetStream_ReadTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	loop := startLoop(t)
	st := newNetStream(server, loop)
	defer st.Close()
	st.SetReadTimeout(20 * time.Millisecond)

	res := make(chan readResult, 1)
	st.ReadUntil(&sliceBuffer{}, []byte("\r\n\r\n"), func(err error, n int) { res <- readResult{err, n} })
	select {
	case r := <-res:
		var ne net.Error
		require.ErrorAs(t, r.err, &ne)
		assert.True(t, ne.Timeout())
	case <-time.After(2 * time.Second):
		t.Fatal("read did not time out")
	}
}
