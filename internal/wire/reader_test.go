package wire

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func newReader(raw string, maxLine, maxTotal int) *Reader {
	return &Reader{BR: bufio.NewReaderSize(strings.NewReader(raw), 16), MaxLineBytes: maxLine, MaxHeaderBytes: maxTotal}
}

func TestReader_RequestAndHeaders(t *testing.T) {
	r := newReader("\r\nGET /items?id=1 HTTP/1.1\r\nHost: example.com\r\nX-Long-Header-Name: abcdefghijklmnop\nAccept: */*\r\n\r\nbody", 0, 0)

	rl, err := r.ReadRequestLine()
	require.NoError(t, err)
	require.Equal(t, RequestLine{Method: "GET", Target: "/items?id=1", Proto: "HTTP/1.1"}, rl)

	var lines []string
	for {
		line, err := r.ReadHeaderLine()
		require.NoError(t, err)
		if line == nil {
			break
		}
		lines = append(lines, string(line))
	}

	require.Equal(t, []string{"Host: example.com", "X-Long-Header-Name: abcdefghijklmnop", "Accept: */*"}, lines)

	rest, err := r.BR.ReadString('y')
	require.NoError(t, err)
	require.Equal(t, "body", rest)
}

func TestReader_MalformedRequestLine(t *testing.T) {
	for _, raw := range []string{
		"GET /\r\n",
		"GET  / HTTP/1.1\r\n",
		"GET / HTTP/1.1 extra\r\n",
	} {
		_, err := newReader(raw, 0, 0).ReadRequestLine()
		require.ErrorIs(t, err, ErrMalformedRequestLine, raw)
	}
}

func TestReader_Limits(t *testing.T) {
	t.Run("line", func(t *testing.T) {
		_, err := newReader("GET /"+strings.Repeat("a", 64)+" HTTP/1.1\r\n", 32, 0).ReadRequestLine()
		require.ErrorIs(t, err, ErrLineTooLong)
	})

	t.Run("total", func(t *testing.T) {
		r := newReader("GET / HTTP/1.1\r\nA: b\r\nC: d\r\nE: f\r\n\r\n", 0, 24)
		_, err := r.ReadRequestLine()
		require.NoError(t, err)

		for err == nil {
			_, err = r.ReadHeaderLine()
		}
		require.True(t, errors.Is(err, ErrHeaderTooLarge))
	})
}

func TestAppenders(t *testing.T) {
	var b []byte
	b = AppendStatusLine(b, "HTTP/1.1", 200, "OK")
	b = AppendHeaderLine(b, "Set-Cookie", [][]byte{[]byte("a=1"), []byte("b=2")})
	b = AppendHeaderEnd(b)

	require.Equal(t, "HTTP/1.1 200 OK\r\nSet-Cookie: a=1, b=2\r\n\r\n", string(b))
}

func TestReader_Truncated(t *testing.T) {
	_, err := newReader("", 0, 0).ReadRequestLine()
	require.ErrorIs(t, err, io.EOF)

	_, err = newReader("GET / HT", 0, 0).ReadRequestLine()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	r := newReader("GET / HTTP/1.1\r\n", 0, 0)
	_, err = r.ReadRequestLine()
	require.NoError(t, err)

	_, err = r.ReadHeaderLine()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
