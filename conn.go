package hyper

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrCompleted is returned when a reader or writer view is used after it was completed.
var ErrCompleted = errors.New("hyper: view completed")

// aLongTimeAgo is a deadline in the past, setting it interrupts any blocked read or write.
var aLongTimeAgo = time.Unix(1, 0)

type deadliner interface {
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Conn owns a single accepted duplex stream. The reader and writer it hands out are views with
// leave-open semantics, only [Conn.Close] closes the underlying stream.
type Conn struct {
	id  uuid.UUID
	srv *Server
	rwc io.ReadWriteCloser

	br     *bufio.Reader
	bw     *bufio.Writer
	reader *BodyReader
	writer *ResponseWriter

	mu     sync.Mutex
	closed bool
}

// NewConn binds rwc to a new identity. The server may be nil, the connection then behaves as if it
// was served with [DefaultConfig].
func NewConn(rwc io.ReadWriteCloser, srv *Server) *Conn {
	c := &Conn{
		id:  uuid.Must(uuid.NewV7()),
		srv: srv,
		rwc: rwc,
		br:  bufio.NewReaderSize(rwc, 4<<10),
		bw:  bufio.NewWriterSize(rwc, 4<<10),
	}

	c.reader = &BodyReader{c: c}
	c.writer = &ResponseWriter{c: c}

	return c
}

// ID is a UUIDv7 so identifiers sort by creation time.
func (c *Conn) ID() uuid.UUID { return c.id }

// Server returns the server that accepted the connection, which may be nil.
func (c *Conn) Server() *Server { return c.srv }

// Reader returns the buffered view for reading the request body.
func (c *Conn) Reader() *BodyReader { return c.reader }

// Writer returns the buffered view for writing the response.
func (c *Conn) Writer() *ResponseWriter { return c.writer }

// RemoteAddr returns the peer address when the stream is a [net.Conn] and nil otherwise.
func (c *Conn) RemoteAddr() net.Addr {
	if nc, ok := c.rwc.(net.Conn); ok {
		return nc.RemoteAddr()
	}

	return nil
}

// IsClosed reports whether Close was called.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// Close completes the writer (flushing it), completes the reader and closes the stream. Only the first
// call has any effect, later calls return nil.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	flushErr := c.writer.complete()
	c.reader.complete()
	closeErr := c.rwc.Close()

	if flushErr != nil {
		flushErr = errors.Wrap(flushErr, "flush on close")
	}

	return errors.CombineErrors(flushErr, closeErr)
}

// watch interrupts blocked reads and writes when ctx is done by forcing the stream's deadline into
// the past. Streams without deadlines only observe cancellation between operations. The returned
// function stops watching.
func (c *Conn) watch(ctx context.Context) (stop func() bool) {
	d, ok := c.rwc.(deadliner)
	if !ok || ctx.Done() == nil {
		return func() bool { return true }
	}

	return context.AfterFunc(ctx, func() {
		_ = d.SetDeadline(aLongTimeAgo)
	})
}

func (c *Conn) setReadDeadline(t time.Time) {
	if d, ok := c.rwc.(deadliner); ok {
		_ = d.SetReadDeadline(t)
	}
}

func (c *Conn) setWriteDeadline(t time.Time) {
	if d, ok := c.rwc.(deadliner); ok {
		_ = d.SetWriteDeadline(t)
	}
}

// config returns the configuration of the owning server, or the defaults.
func (c *Conn) config() Config {
	if c == nil || c.srv == nil {
		return DefaultConfig()
	}

	return c.srv.cfg
}

func (c *Conn) logger() Logger {
	if c == nil || c.srv == nil || c.srv.logs == nil {
		return nopLogger{}
	}

	return c.srv.logs
}

// BodyReader is a view over the connection's read side. It reads at most the number of body bytes the
// request announced. It is not safe for concurrent use.
type BodyReader struct {
	c         *Conn
	remaining int64
	done      bool
}

// Read implements io.Reader.
func (r *BodyReader) Read(p []byte) (int, error) {
	if r.c.IsClosed() {
		return 0, ErrConnClosed
	}

	if r.done || r.remaining <= 0 {
		return 0, io.EOF
	}

	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}

	n, err := r.c.br.Read(p)
	r.remaining -= int64(n)
	if errors.Is(err, io.EOF) && r.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}

	return n, err
}

// Remaining returns the number of body bytes not read yet.
func (r *BodyReader) Remaining() int64 { return r.remaining }

// Complete finishes the view, later reads return io.EOF. The stream stays open.
func (r *BodyReader) Complete() { r.complete() }

func (r *BodyReader) complete() { r.done = true }

// ResponseWriter is a buffered view over the connection's write side. It is not safe for concurrent use.
type ResponseWriter struct {
	c    *Conn
	done bool
}

// Write implements io.Writer, bytes are buffered until Flush or Complete.
func (w *ResponseWriter) Write(p []byte) (int, error) {
	if w.c.IsClosed() {
		return 0, ErrConnClosed
	}

	if w.done {
		return 0, ErrCompleted
	}

	return w.c.bw.Write(p)
}

// Flush writes any buffered bytes to the stream.
func (w *ResponseWriter) Flush() error {
	if w.c.IsClosed() {
		return ErrConnClosed
	}

	return w.c.bw.Flush()
}

// Complete flushes and finishes the view. The stream stays open.
func (w *ResponseWriter) Complete() error {
	if w.c.IsClosed() {
		return ErrConnClosed
	}

	return w.complete()
}

func (w *ResponseWriter) complete() error {
	if w.done {
		return nil
	}

	w.done = true

	return w.c.bw.Flush()
}
