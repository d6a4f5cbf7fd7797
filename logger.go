package hyper

import (
	"sync/atomic"
	"testing"

	"github.com/advdv/hyper/results"
	"go.uber.org/zap"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogConnectionError(err error)
	LogResponderFailure(hctx *Context, res results.Result[any])
	LogRejectedHeader(line []byte, err error)
	LogImplicitFlushError(err error)
}

type zapLogger struct{ *zap.Logger }

// NewZapLogger logs engine events to l, under the "hyper" name.
func NewZapLogger(l *zap.Logger) Logger {
	return zapLogger{l.Named("hyper")}
}

func (l zapLogger) LogConnectionError(err error) {
	l.Logger.Error("connection error", zap.Error(err))
}

func (l zapLogger) LogResponderFailure(hctx *Context, res results.Result[any]) {
	l.Logger.Warn("responder failed",
		zap.Stringer("request", hctx),
		zap.Bool("has_value", res.HasValue()),
		zap.Error(res.Err()))
}

func (l zapLogger) LogRejectedHeader(line []byte, err error) {
	l.Logger.Debug("rejected header line", zap.ByteString("line", line), zap.Error(err))
}

func (l zapLogger) LogImplicitFlushError(err error) {
	l.Logger.Error("error while flushing implicitly", zap.Error(err))
}

type nopLogger struct{}

func (nopLogger) LogConnectionError(error)                          {}
func (nopLogger) LogResponderFailure(*Context, results.Result[any]) {}
func (nopLogger) LogRejectedHeader([]byte, error)                   {}
func (nopLogger) LogImplicitFlushError(error)                       {}

type TestLogger struct {
	tb testing.TB

	NumLogConnectionError    int64
	NumLogResponderFailure   int64
	NumLogRejectedHeader     int64
	NumLogImplicitFlushError int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogConnectionError(err error) {
	atomic.AddInt64(&l.NumLogConnectionError, 1)
	l.tb.Logf("hyper: connection error: %s", err)
}

func (l *TestLogger) LogResponderFailure(hctx *Context, res results.Result[any]) {
	atomic.AddInt64(&l.NumLogResponderFailure, 1)
	l.tb.Logf("hyper: responder failed for %s: %s", hctx, res.Err())
}

func (l *TestLogger) LogRejectedHeader(line []byte, err error) {
	atomic.AddInt64(&l.NumLogRejectedHeader, 1)
	l.tb.Logf("hyper: rejected header %q: %s", line, err)
}

func (l *TestLogger) LogImplicitFlushError(err error) {
	atomic.AddInt64(&l.NumLogImplicitFlushError, 1)
	l.tb.Logf("hyper: error while flushing implicitly: %s", err)
}

var (
	_ Logger = &TestLogger{}
	_ Logger = zapLogger{}
)
