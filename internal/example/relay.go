package example

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/responders"
	"github.com/advdv/hyper/results"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
)

// Relay answers GET requests under Prefix with what the upstream service answers for the rest of the
// path. The rest is cleaned so it stays below the upstream's path. The request id travels along in the
// X-Request-Id header.
type Relay struct {
	Prefix   string
	Upstream *url.URL

	rt http.RoundTripper
}

// NewRelay inits a relay that forwards /relay/... to upstream through rt. A nil upstream, or one
// without a host, disables the relay.
func NewRelay(upstream *url.URL, rt http.RoundTripper) *Relay {
	return &Relay{Prefix: "/relay/", Upstream: upstream, rt: rt}
}

// Describe implements hyper.Describer.
func (r *Relay) Describe() hyper.Descriptor[*hyper.Context, hyper.Status] {
	return hyper.Descriptor[*hyper.Context, hyper.Status]{
		Name:      "relay",
		Needs:     []string{responders.CapabilityRequestID},
		Responder: hyper.HandlerFunc(r.respond),
	}
}

func (r *Relay) respond(ctx context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
	if r.Upstream == nil || r.Upstream.Host == "" || !strings.HasPrefix(hctx.Route.Path, r.Prefix) {
		return results.Success[hyper.Status]()
	}

	if hctx.Method != "GET" {
		return results.FailureValue(hyper.NewStatus(hyper.CodeMethodNotAllowed, nil),
			results.NewError("method "+hctx.Method+" is not allowed"))
	}

	b := requests.New().
		Transport(r.rt).
		BaseURL(r.Upstream.String()).
		Path(strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(hctx.Route.Path, r.Prefix)), "/"))

	for k, vs := range hctx.Route.Query() {
		b = b.Param(k, vs...)
	}

	if id := hctx.Metadata[responders.MetadataRequestID]; id != "" {
		b = b.Header("X-Request-Id", id)
	}

	var buf bytes.Buffer
	if err := b.ToBytesBuffer(&buf).Fetch(ctx); err != nil {
		msg := "relay to upstream"
		if re := new(requests.ResponseError); errors.As(err, &re) {
			msg = "upstream answered " + strconv.Itoa(re.StatusCode)
		}

		return results.FailureValue(hyper.NewStatus(hyper.CodeBadGateway, nil),
			results.Wrap(msg, results.FromErr(err)))
	}

	if json.Valid(buf.Bytes()) {
		return results.SuccessValue(hyper.OK(json.RawMessage(buf.Bytes())))
	}

	return results.SuccessValue(hyper.OK(buf.String()))
}
