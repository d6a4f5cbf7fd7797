package hyper_test

import (
	"context"
	"testing"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/results"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestWrapOrder(t *testing.T) {
	var res string
	inner := hyper.HandlerFunc(func(context.Context, *hyper.Context) results.Result[hyper.Status] {
		res += "inner"
		return results.Success[hyper.Status]()
	})

	mw := func(name string) hyper.Middleware {
		return func(next hyper.Handler) hyper.Handler {
			return hyper.HandlerFunc(func(ctx context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
				res += name + "("
				defer func() { res += ")" }()

				return next.Respond(ctx, hctx)
			})
		}
	}

	hdlr := hyper.Wrap(inner, mw("1"), mw("2"))
	hdlr.Respond(context.Background(), nil)

	require.Equal(t, "1(2(inner))", res)
}

func TestRecoverer(t *testing.T) {
	t.Run("error value", func(t *testing.T) {
		hdlr := hyper.Wrap(hyper.HandlerFunc(func(context.Context, *hyper.Context) results.Result[hyper.Status] {
			panic(hyper.ErrConnClosed)
		}), hyper.Recoverer())

		res := hdlr.Respond(context.Background(), nil)
		require.False(t, res.IsSuccess())
		require.False(t, res.HasValue())
		require.Equal(t, "responder panicked: [hyper: connection closed]", res.Err().Error())
	})

	t.Run("passes through", func(t *testing.T) {
		hdlr := hyper.Wrap(handlerReturning(results.SuccessValue(hyper.OK("ok"))), hyper.Recoverer())
		require.Equal(t, "ok", hdlr.Respond(context.Background(), nil).Value().Body)
	})
}

func TestTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prop := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	var inner trace.SpanContext
	hdlr := hyper.Wrap(hyper.HandlerFunc(func(ctx context.Context, _ *hyper.Context) results.Result[hyper.Status] {
		inner = trace.SpanContextFromContext(ctx)
		return results.FailureValue(hyper.NewStatus(hyper.CodeTeapot, nil), results.NewError("short and stout"))
	}), hyper.Tracing(tp, prop))

	h := hyper.NewHeader()
	h.MustAdd("Host", "example.com")
	h.MustAdd("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	hctx, err := hyper.NewContext("GET", "/pot", hyper.Version11, h, nil)
	require.NoError(t, err)

	hdlr.Respond(context.Background(), hctx)

	spans := rec.Ended()
	require.Len(t, spans, 1)

	span := spans[0]
	require.Equal(t, "GET /pot", span.Name())
	require.Equal(t, trace.SpanKindServer, span.SpanKind())
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.Parent().TraceID().String())
	require.Equal(t, span.SpanContext().SpanID(), inner.SpanID())
	require.Equal(t, codes.Error, span.Status().Code)
	require.Equal(t, "short and stout", span.Status().Description)
	require.Contains(t, span.Attributes(), attribute.Int("http.response.status_code", 418))
	require.Contains(t, span.Attributes(), attribute.String("url.full", "http://example.com/pot"))
}

func TestHeaderCarrier(t *testing.T) {
	carrier := hyper.HeaderCarrier{Header: hyper.NewHeader()}
	carrier.Set("traceparent", "a")
	carrier.Set("traceparent", "b")
	carrier.Set("bad name", "ignored")

	require.Equal(t, "b", carrier.Get("Traceparent"))
	require.Empty(t, carrier.Get("missing"))
	require.Equal(t, []string{"traceparent"}, carrier.Keys())
}
