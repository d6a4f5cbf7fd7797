package hyper

import (
	"context"
	"strconv"

	"github.com/advdv/hyper/internal/wire"
	"github.com/cockroachdb/errors"
)

// ReadContext reads one request head from conn and turns it into a [Context]. Errors that should be
// answered carry a status code, see [CodeOf]. Errors without a code (io.EOF, a reset stream) mean the
// client is gone.
//
// Header lines are parsed leniently: a malformed line is reported to the server's [Logger] and
// dropped, it never fails the request.
func ReadContext(ctx context.Context, conn *Conn) (*Context, error) {
	stop := conn.watch(ctx)
	defer stop()

	cfg := conn.config()
	r := &wire.Reader{BR: conn.br, MaxLineBytes: cfg.MaxLineBytes, MaxHeaderBytes: cfg.MaxHeaderBytes}

	rl, err := r.ReadRequestLine()
	if err != nil {
		return nil, wireError(err, CodeRequestURITooLong)
	}

	if !IsValidName(rl.Method) {
		return nil, NewError(CodeBadRequest, errors.Newf("invalid method %q", rl.Method))
	}

	if !isHTTPProto(rl.Proto) {
		return nil, NewError(CodeBadRequest, errors.Newf("invalid protocol %q", rl.Proto))
	}

	version, ok := ParseVersion(rl.Proto)
	if !ok {
		return nil, NewError(CodeHTTPVersionNotSupported, errors.Newf("protocol %q", rl.Proto))
	}

	header := NewHeader()
	for {
		line, err := r.ReadHeaderLine()
		if err != nil {
			return nil, wireError(err, CodeRequestHeaderFieldsTooLarge)
		}

		if line == nil {
			break
		}

		name, value, ok := splitHeaderLine(line)
		if !ok {
			conn.logger().LogRejectedHeader(line, errors.New("malformed header line"))
			continue
		}

		if err := header.AddBytes(name, value); err != nil {
			conn.logger().LogRejectedHeader(line, err)
		}
	}

	if _, ok := header.Get("Transfer-Encoding"); ok {
		return nil, NewError(CodeNotImplemented, errors.New("transfer encodings are not supported"))
	}

	length, err := contentLength(header)
	if err != nil {
		return nil, NewError(CodeBadRequest, err)
	}

	conn.reader.remaining = length

	hctx, err := NewContext(rl.Method, rl.Target, version, header, conn)
	if err != nil {
		return nil, NewError(CodeBadRequest, err)
	}

	return hctx, nil
}

// wireError maps errors of the line reader onto coded errors. Line length errors get the code that
// fits the part of the request being read.
func wireError(err error, tooLong Code) error {
	switch {
	case errors.Is(err, wire.ErrMalformedRequestLine):
		return NewError(CodeBadRequest, err)
	case errors.Is(err, wire.ErrLineTooLong):
		return NewError(tooLong, err)
	case errors.Is(err, wire.ErrHeaderTooLarge):
		return NewError(CodeRequestHeaderFieldsTooLarge, err)
	default:
		return err
	}
}

// contentLength returns the announced body length. Repeated values must agree.
func contentLength(h *Header) (int64, error) {
	vals, ok := h.Values("Content-Length")
	if !ok {
		return 0, nil
	}

	var n int64 = -1
	for _, v := range vals {
		m, err := strconv.ParseInt(v, 10, 64)
		if err != nil || m < 0 {
			return 0, errors.Newf("invalid Content-Length %q", v)
		}

		if n >= 0 && m != n {
			return 0, errors.Newf("conflicting Content-Length values %v", vals)
		}

		n = m
	}

	return n, nil
}
