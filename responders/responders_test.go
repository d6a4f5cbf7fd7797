package responders_test

import (
	"context"
	"testing"
	"time"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/responders"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newContext(t *testing.T, method, target string, headers ...string) *hyper.Context {
	t.Helper()

	h := hyper.NewHeader()
	for i := 0; i+1 < len(headers); i += 2 {
		h.MustAdd(headers[i], headers[i+1])
	}

	hctx, err := hyper.NewContext(method, target, hyper.Version11, h, nil)
	require.NoError(t, err)

	return hctx
}

func TestHealth(t *testing.T) {
	health := responders.Health("/health").Responder

	res := health.Respond(context.Background(), newContext(t, "GET", "/health"))
	require.True(t, res.IsSuccess())
	require.True(t, res.HasValue())
	require.Equal(t, hyper.CodeOK, res.Value().Code)
	require.Equal(t, map[string]string{"status": "ok"}, res.Value().Body)

	for _, hctx := range []*hyper.Context{
		newContext(t, "POST", "/health"),
		newContext(t, "GET", "/healthz"),
	} {
		res := health.Respond(context.Background(), hctx)
		require.True(t, res.IsSuccess())
		require.False(t, res.HasValue(), hctx.String())
	}
}

func TestRequestID(t *testing.T) {
	reqid := responders.RequestID().Responder

	t.Run("kept", func(t *testing.T) {
		hctx := newContext(t, "GET", "/", "X-Request-Id", "0192F1A2-7B3C-7D4E-8F50-617283940ABC")

		res := reqid.Respond(context.Background(), hctx)
		require.True(t, res.IsSuccess())
		require.False(t, res.HasValue())
		require.Equal(t, "0192f1a2-7b3c-7d4e-8f50-617283940abc", hctx.Metadata[responders.MetadataRequestID])
	})

	for _, headers := range [][]string{nil, {"X-Request-Id", "not-a-uuid"}} {
		hctx := newContext(t, "GET", "/", headers...)
		require.True(t, reqid.Respond(context.Background(), hctx).IsSuccess())

		id, err := uuid.Parse(hctx.Metadata[responders.MetadataRequestID])
		require.NoError(t, err)
		require.EqualValues(t, 7, id.Version())
	}
}

func TestVisitors(t *testing.T) {
	vs := responders.NewVisitors(1, 1)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := vs.Fetch("a", t0)
	vs.Fetch("b", t0.Add(time.Minute))
	require.Equal(t, 2, vs.Len())
	require.Same(t, a.Limiter, vs.Fetch("a", t0.Add(2*time.Minute)).Limiter)

	again := vs.Fetch("a", t0.Add(3*time.Hour))
	require.Equal(t, 1, vs.Len())
	require.NotSame(t, a.Limiter, again.Limiter)
	require.Equal(t, t0.Add(3*time.Hour), again.LastSeen)
}

func TestRateLimit(t *testing.T) {
	vs := responders.NewVisitors(rate.Limit(1), 2)
	limit := responders.RateLimitVisitors(vs)
	require.Equal(t, []string{responders.CapabilityRequestID}, limit.Needs)

	hctx := newContext(t, "GET", "/")
	hctx.Metadata[responders.MetadataRequestID] = "abc"

	for range 2 {
		require.True(t, limit.Responder.Respond(context.Background(), hctx).IsSuccess())
	}

	res := limit.Responder.Respond(context.Background(), hctx)
	require.False(t, res.IsSuccess())
	require.True(t, res.HasValue())
	require.Equal(t, hyper.CodeTooManyRequests, res.Value().Code)
	require.Equal(t, "rate limit exceeded for request abc", res.Err().Error())

	retry, ok := res.Value().Header.Get("Retry-After")
	require.True(t, ok)
	require.Equal(t, "1", retry)
	require.Equal(t, 1, vs.Len())
}

func TestBuiltinsCompile(t *testing.T) {
	c := hyper.NewCompiler(responders.RateLimit(10, 10), responders.Health("/health"), responders.RequestID())

	order, err := c.Responders()
	require.NoError(t, err)
	require.Equal(t, "health", order[0].Name)
	require.Equal(t, "request-id", order[1].Name)
	require.Equal(t, "rate-limit", order[2].Name)

	hctx := newContext(t, "GET", "/health")
	res := c.MustCompile().Respond(context.Background(), hctx)
	require.Equal(t, hyper.CodeOK, res.Value().Code)
	require.Empty(t, hctx.Metadata, "health answers before request ids are assigned")
}
