// Package wire reads HTTP/1.x request framing and appends response framing. It knows nothing about
// header semantics, it only deals with lines and the exact bytes between them.
package wire

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

var (
	ErrMalformedRequestLine = errors.New("wire: malformed request line")
	ErrLineTooLong          = errors.New("wire: line too long")
	ErrHeaderTooLarge       = errors.New("wire: header section too large")
)

// RequestLine is the first line of a request: "METHOD SP TARGET SP PROTO".
type RequestLine struct {
	Method string
	Target string
	Proto  string
}

// Reader reads request lines and header lines from a buffered stream.
type Reader struct {
	BR *bufio.Reader

	// MaxLineBytes limits a single line, zero means 8KiB.
	MaxLineBytes int
	// MaxHeaderBytes limits the request line plus all header lines, zero means 64KiB.
	MaxHeaderBytes int

	total int
}

// ReadRequestLine reads and splits the request line. Empty lines before it are skipped, as
// RFC 9112 section 2.2 asks servers to.
func (r *Reader) ReadRequestLine() (RequestLine, error) {
	var line []byte
	for {
		var err error
		if line, err = r.readLine(); err != nil {
			return RequestLine{}, err
		}

		if len(line) > 0 {
			break
		}
	}

	parts := bytes.Split(line, []byte{' '})
	if len(parts) != 3 || len(parts[0]) == 0 || len(parts[1]) == 0 || len(parts[2]) == 0 {
		return RequestLine{}, errors.Wrapf(ErrMalformedRequestLine, "%q", line)
	}

	return RequestLine{
		Method: string(parts[0]),
		Target: string(parts[1]),
		Proto:  string(parts[2]),
	}, nil
}

// ReadHeaderLine returns the next header line without its line ending. It returns a nil slice when the
// blank line that ends the header section was read. The stream ending first is io.ErrUnexpectedEOF.
func (r *Reader) ReadHeaderLine() ([]byte, error) {
	line, err := r.readLine()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	} else if err != nil {
		return nil, err
	}

	if len(line) == 0 {
		return nil, nil
	}

	return line, nil
}

// readLine reads up to and including LF, tolerating a bare LF. The returned slice is a copy.
func (r *Reader) readLine() ([]byte, error) {
	maxLine := r.MaxLineBytes
	if maxLine <= 0 {
		maxLine = 8 << 10
	}

	maxTotal := r.MaxHeaderBytes
	if maxTotal <= 0 {
		maxTotal = 64 << 10
	}

	var line []byte
	for {
		frag, err := r.BR.ReadSlice('\n')
		line = append(line, frag...)
		if len(line) > maxLine+2 {
			return nil, errors.Wrapf(ErrLineTooLong, "more than %d bytes", maxLine)
		}

		if err == nil {
			break
		}

		if errors.Is(err, io.EOF) && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}

		if !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
	}

	r.total += len(line)
	if r.total > maxTotal {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "more than %d bytes", maxTotal)
	}

	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})

	return line, nil
}
