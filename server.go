package hyper

import (
	"context"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/advdv/hyper/results"
	"github.com/cockroachdb/errors"
)

// Config configures a [Server].
type Config struct {
	// BaseURI is what request targets are resolved against when a request has no Host header.
	BaseURI *url.URL
	// ServerName is sent in the Server header, empty omits the header.
	ServerName string
	// Serializer serializes response bodies, nil means a default [JSONSerializer].
	Serializer Serializer
	// MaxLineBytes limits a single line of the request head, zero means 8KiB.
	MaxLineBytes int
	// MaxHeaderBytes limits the whole request head, zero means 64KiB.
	MaxHeaderBytes int
	// ReadHeaderTimeout bounds reading the request head, zero means no timeout.
	ReadHeaderTimeout time.Duration
	// WriteTimeout bounds handling and writing the response, zero means no timeout.
	WriteTimeout time.Duration
}

// DefaultConfig returns the configuration a server uses when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURI:    &url.URL{Scheme: "http", Host: "localhost", Path: "/"},
		ServerName: "hyper",
	}
}

// Server accepts connections and serves one request on each of them with its handler.
type Server struct {
	cfg     Config
	logs    Logger
	handler Handler
	mws     []Middleware

	build    sync.Once
	wrapped  Handler
	building atomic.Bool

	base       context.Context
	cancelBase context.CancelFunc

	mu         sync.Mutex
	listeners  map[net.Listener]struct{}
	conns      sync.WaitGroup
	inShutdown bool
}

// NewServer inits a server. A nil logs discards all engine events.
func NewServer(cfg Config, handler Handler, logs Logger) *Server {
	if logs == nil {
		logs = nopLogger{}
	}

	if cfg.BaseURI == nil {
		cfg.BaseURI = DefaultConfig().BaseURI
	}

	base, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logs:       logs,
		handler:    handler,
		base:       base,
		cancelBase: cancel,
		listeners:  make(map[net.Listener]struct{}),
	}
}

// Use will add middleware around the handler. The middleware provided first is the outermost. It panics
// when the server already served a connection.
func (s *Server) Use(m ...Middleware) {
	if s.building.Load() {
		panic("hyper: cannot call Use() after the server started serving")
	}

	s.mws = append(s.mws, m...)
}

func (s *Server) wrappedHandler() Handler {
	s.build.Do(func() {
		s.building.Store(true)
		s.wrapped = Wrap(s.handler, s.mws...)
	})

	return s.wrapped
}

// Serve accepts connections on ln and serves each of them on its own goroutine. It returns
// [ErrServerClosed] after Shutdown was called.
func (s *Server) Serve(ln net.Listener) error {
	s.wrappedHandler()

	s.mu.Lock()
	if s.inShutdown {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.listeners[ln] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.listeners, ln)
		s.mu.Unlock()
	}()

	for {
		rwc, err := ln.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}

			return errors.Wrap(err, "accept")
		}

		s.mu.Lock()
		if s.inShutdown {
			s.mu.Unlock()
			_ = rwc.Close()
			return ErrServerClosed
		}
		s.conns.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.conns.Done()
			s.ServeConn(s.base, rwc)
		}()
	}
}

// ServeConn serves a single request on rwc and closes it. It blocks until the response was written
// or the client went away.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) {
	c := NewConn(rwc, s)
	defer func() {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
			s.logs.LogImplicitFlushError(err)
		}
	}()

	if s.cfg.ReadHeaderTimeout > 0 {
		c.setReadDeadline(time.Now().Add(s.cfg.ReadHeaderTimeout))
	}

	hctx, err := ReadContext(ctx, c)
	if err != nil {
		s.rejectRequest(ctx, c, err)
		return
	}

	c.setReadDeadline(time.Time{})
	if s.cfg.WriteTimeout > 0 {
		c.setWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
	}

	res := s.wrappedHandler().Respond(ctx, hctx)
	s.finish(ctx, hctx, res)
}

// rejectRequest answers a request whose head could not be read, when the error says how.
func (s *Server) rejectRequest(ctx context.Context, c *Conn, err error) {
	code := CodeOf(err)
	if code == CodeUnknown {
		if !errors.Is(err, io.EOF) {
			s.logs.LogConnectionError(errors.Wrapf(err, "read request on %s", c.ID()))
		}

		return
	}

	hctx := &Context{Version: Version11, Header: NewHeader(), Conn: c, Metadata: map[string]string{}}
	body := errorBody{Errors: []results.Error{results.FromErr(err)}}

	if err := hctx.Respond(ctx, closing(NewStatus(code, body))); err != nil {
		s.logs.LogConnectionError(errors.Wrapf(err, "reject request on %s", c.ID()))
	}
}

// finish turns the pipeline's result into a response. It is the one place that decides what a result
// means for the client.
func (s *Server) finish(ctx context.Context, hctx *Context, res results.Result[Status]) {
	if hctx.HasResponded() {
		return
	}

	var st Status
	switch {
	case res.IsSuccess() && res.HasValue():
		st = res.Value()
	case res.IsSuccess():
		st = NewStatus(CodeNotFound, errorBody{Errors: []results.Error{
			results.NewError("no responder produced a response for " + hctx.Route.Path),
		}})
	case res.HasValue():
		s.logs.LogResponderFailure(hctx, res.Erase())

		st = res.Value()
		if st.Code == CodeUnknown {
			st.Code = CodeInternalServerError
		}

		if st.Body == nil {
			st.Body = errorBody{Errors: res.Errors()}
		}
	default:
		s.logs.LogResponderFailure(hctx, res.Erase())
		st = NewStatus(CodeInternalServerError, errorBody{Errors: res.Errors()})
	}

	if err := hctx.Respond(ctx, closing(st)); err != nil {
		s.logs.LogConnectionError(errors.Wrapf(err, "respond on %s", hctx.Conn.ID()))
	}
}

// closing tells the client the connection closes after the response, unless st says otherwise.
func closing(st Status) Status {
	if st.Header == nil {
		st.Header = NewHeader()
	} else {
		st.Header = st.Header.Clone()
	}

	st.Header.TryAdd("Connection", "close")

	return st
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inShutdown
}

// Shutdown stops accepting connections and waits for the connections in flight to be answered. When
// ctx is done first, the connections still in flight are canceled and ctx's error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.inShutdown = true

	var errs error
	for ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = errors.CombineErrors(errs, err)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return errs
	case <-ctx.Done():
		s.cancelBase()
		return errors.CombineErrors(errs, ctx.Err())
	}
}
