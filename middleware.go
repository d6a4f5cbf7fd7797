package hyper

import (
	"context"
	"fmt"

	"github.com/advdv/hyper/results"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Middleware for cross-cutting concerns around the compiled pipeline.
type Middleware func(Handler) Handler

// Wrap takes the inner handler h and wraps it with middleware. The order is that of the Gorilla and Chi router. That
// is: the middleware provided first is called first and is the "outer" most wrapping, the middleware provided last
// will be the "inner most" wrapping (closest to the handler).
func Wrap(h Handler, m ...Middleware) Handler {
	wrapped := h
	for i := len(m) - 1; i >= 0; i-- {
		wrapped = m[i](wrapped)
	}

	return wrapped
}

// Recoverer turns a panicking handler into a failed result so the server can still answer.
func Recoverer() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, hctx *Context) (res results.Result[Status]) {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = errors.Newf("%v", r)
					}

					res = results.FailureError[Status](results.Wrap("responder panicked", results.FromErr(err)))
				}
			}()

			return next.Respond(ctx, hctx)
		})
	}
}

// Tracing starts a server span for every request. The remote span context is extracted from the request
// headers with prop.
func Tracing(tp trace.TracerProvider, prop propagation.TextMapPropagator) Middleware {
	tracer := tp.Tracer("github.com/advdv/hyper")

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, hctx *Context) results.Result[Status] {
			ctx = prop.Extract(ctx, HeaderCarrier{hctx.Header})
			ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", hctx.Method, hctx.Route.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(hctx.Method),
					semconv.URLFull(hctx.Route.String()),
				))
			defer span.End()

			res := next.Respond(ctx, hctx)
			if res.HasValue() {
				span.SetAttributes(semconv.HTTPResponseStatusCode(int(res.Value().Code)))
			}

			if !res.IsSuccess() {
				span.SetStatus(codes.Error, res.Err().Error())
			}

			return res
		})
	}
}

// HeaderCarrier adapts a [Header] for OpenTelemetry propagators.
type HeaderCarrier struct{ *Header }

// Get returns the first value of key.
func (c HeaderCarrier) Get(key string) string {
	v, _ := c.Header.Get(key)
	return v
}

// Set replaces the values of key. Invalid input is ignored.
func (c HeaderCarrier) Set(key, value string) {
	_ = c.Header.Set(key, value)
}

// Keys returns the header names.
func (c HeaderCarrier) Keys() []string {
	return c.Header.Names()
}

var _ propagation.TextMapCarrier = HeaderCarrier{}
