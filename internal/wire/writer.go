package wire

import (
	"strconv"
)

var (
	crlf       = []byte("\r\n")
	colonSpace = []byte(": ")
	commaSpace = []byte(", ")
)

// AppendStatusLine appends "{proto} {code} {reason}\r\n".
func AppendStatusLine(dst []byte, proto string, code int, reason string) []byte {
	dst = append(dst, proto...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(code), 10)
	dst = append(dst, ' ')
	dst = append(dst, reason...)

	return append(dst, crlf...)
}

// AppendHeaderLine appends "{name}: {v1}, {v2}\r\n". Values are written without any escaping, the
// caller must have validated them.
func AppendHeaderLine(dst []byte, name string, values [][]byte) []byte {
	dst = append(dst, name...)
	dst = append(dst, colonSpace...)
	for i, v := range values {
		if i > 0 {
			dst = append(dst, commaSpace...)
		}
		dst = append(dst, v...)
	}

	return append(dst, crlf...)
}

// AppendHeaderEnd appends the blank line that terminates the header section.
func AppendHeaderEnd(dst []byte) []byte {
	return append(dst, crlf...)
}
