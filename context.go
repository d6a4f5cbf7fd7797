package hyper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/advdv/hyper/internal/wire"
	"github.com/cockroachdb/errors"
)

// Context is a single parsed request. It is owned by the goroutine serving the connection and must
// not be shared with other requests.
//
// Metadata is the scratch space responders use to pass information down the pipeline. It is the only
// side channel between responders and is written by one responder at a time.
type Context struct {
	Method   string
	Route    *url.URL
	Target   string
	Version  Version
	Header   *Header
	Conn     *Conn
	Metadata map[string]string

	responded atomic.Bool
}

// NewContext inits a context and resolves its route. An absolute-form target is the route itself. For
// any other target the route is "http://{host}" or, without a Host header, the server's base URI, with
// only the path and query taken from the target. The asterisk-form target "*" has an empty path.
func NewContext(method, target string, version Version, header *Header, conn *Conn) (*Context, error) {
	if header == nil {
		header = NewHeader()
	}

	route, err := resolveRoute(conn.config().BaseURI, header, target)
	if err != nil {
		return nil, err
	}

	return &Context{
		Method:   method,
		Route:    route,
		Target:   target,
		Version:  version,
		Header:   header,
		Conn:     conn,
		Metadata: make(map[string]string),
	}, nil
}

func resolveRoute(base *url.URL, header *Header, target string) (*url.URL, error) {
	ref := &url.URL{}
	if target != "*" {
		var err error
		if ref, err = url.ParseRequestURI(target); err != nil {
			return nil, errors.Wrapf(err, "parse request target %q", target)
		}
	}

	if ref.IsAbs() {
		if ref.Host == "" {
			return nil, errors.Newf("absolute request target %q has no host", target)
		}

		return ref, nil
	}

	if ref.Host != "" || ref.User != nil {
		return nil, errors.Newf("request target %q names an authority but is not absolute", target)
	}

	var route url.URL
	if host, ok := header.Get("Host"); ok && host != "" {
		authority, err := url.Parse("http://" + host)
		if err != nil {
			return nil, errors.Wrapf(err, "parse route from host %q", host)
		}

		if authority.Host != host {
			return nil, errors.Newf("invalid Host header %q", host)
		}

		route = url.URL{Scheme: authority.Scheme, Host: authority.Host}
	} else {
		if base == nil {
			return nil, errors.Newf("no Host header and no base URI to resolve %q against", target)
		}

		route = *base
		route.User = nil
		route.Fragment, route.RawFragment = "", ""
	}

	route.Path, route.RawPath, route.RawQuery = ref.Path, ref.RawPath, ref.RawQuery
	route.ForceQuery = ref.ForceQuery

	return &route, nil
}

// Body returns the reader for the request body.
func (c *Context) Body() *BodyReader { return c.Conn.Reader() }

// HasResponded reports whether Respond was called.
func (c *Context) HasResponded() bool { return c.responded.Load() }

func (c *Context) String() string {
	route := "<nil>"
	if c.Route != nil {
		route = c.Route.String()
	}

	return fmt.Sprintf("%s %s %s, %d headers, %d metadata items",
		c.Method, route, c.Version, c.Header.Len(), len(c.Metadata))
}

// Respond writes st onto the connection. Only the first call writes anything, every later call
// returns [ErrAlreadyResponded]. The body is serialized before any header is written so the
// Content-Length is known. Date, Content-Length, Content-Type and Server headers are added unless st
// already carries them.
//
// When writing fails, ctx is canceled or something panics, the connection is closed before Respond
// returns. On success the reader and writer views are completed and the connection stays open.
func (c *Context) Respond(ctx context.Context, st Status, opts ...RespondOption) (err error) {
	if !c.responded.CompareAndSwap(false, true) {
		return ErrAlreadyResponded
	}

	cfg := c.Conn.config()
	defer func() {
		if r := recover(); r != nil {
			_ = c.Conn.Close()
			panic(r)
		}

		if err != nil {
			_ = c.Conn.Close()
		}
	}()

	proto := c.Version.token()
	stop := c.Conn.watch(ctx)
	defer stop()

	o := respondOptions{serializer: cfg.Serializer}
	for _, opt := range opts {
		opt(&o)
	}

	if o.serializer == nil {
		o.serializer = JSONSerializer{}
	}

	var body []byte
	if st.Body != nil {
		if body, err = o.serializer.Serialize(st.Body); err != nil {
			return errors.Wrap(err, "serialize body")
		}
	}

	header := NewHeader()
	if st.Header != nil {
		header = st.Header.Clone()
	}

	header.TryAdd("Date", time.Now().UTC().Format(http.TimeFormat))
	header.TryAdd("Content-Length", strconv.Itoa(len(body)))
	header.TryAdd("Content-Type", "application/json; charset=utf-8")
	if cfg.ServerName != "" {
		header.TryAdd("Server", cfg.ServerName)
	}

	code := st.Code
	if code == CodeUnknown {
		code = CodeOK
	}

	buf := wire.AppendStatusLine(make([]byte, 0, 256+len(body)), proto, int(code), code.Reason())
	header.Each(func(name string, values [][]byte) {
		buf = wire.AppendHeaderLine(buf, name, values)
	})
	buf = wire.AppendHeaderEnd(buf)
	buf = append(buf, body...)

	if err = ctx.Err(); err != nil {
		return errors.Wrap(err, "respond")
	}

	if _, err = c.Conn.Writer().Write(buf); err != nil {
		return errors.Wrap(err, "write response")
	}

	if err = c.Conn.Writer().Complete(); err != nil {
		return errors.Wrap(err, "complete response")
	}

	c.Conn.Reader().Complete()

	return nil
}
