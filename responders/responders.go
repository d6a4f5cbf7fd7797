// Package responders provides responders most pipelines want: a health check, request ids and per-client
// rate limiting.
package responders

import (
	"context"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/results"
	"github.com/google/uuid"
)

// Capability names implemented by the responders in this package.
const (
	CapabilityHealth    = "health"
	CapabilityRequestID = "request-id"
	CapabilityRateLimit = "rate-limit"
)

// MetadataRequestID is the metadata key the request id is stored under.
const MetadataRequestID = "request-id"

// Descriptor is the descriptor shape of the server pipeline.
type Descriptor = hyper.Descriptor[*hyper.Context, hyper.Status]

// Health answers GET requests for path with 200 and {"status":"ok"}. Other requests pass through.
func Health(path string) Descriptor {
	return Descriptor{
		Name:       "health",
		Implements: []string{CapabilityHealth},
		Responder: hyper.HandlerFunc(func(_ context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
			if hctx.Method != "GET" || hctx.Route.Path != path {
				return results.Success[hyper.Status]()
			}

			return results.SuccessValue(hyper.OK(map[string]string{"status": "ok"}))
		}),
	}
}

// RequestID stores an id for the request in its metadata. A valid UUID in the X-Request-Id header is
// kept, otherwise a new UUIDv7 is generated.
func RequestID() Descriptor {
	return Descriptor{
		Name:       "request-id",
		Implements: []string{CapabilityRequestID},
		Responder: hyper.HandlerFunc(func(_ context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
			if v, ok := hctx.Header.Get("X-Request-Id"); ok {
				if id, err := uuid.Parse(v); err == nil {
					hctx.Metadata[MetadataRequestID] = id.String()
					return results.Success[hyper.Status]()
				}
			}

			id, err := uuid.NewV7()
			if err != nil {
				return results.FailureError[hyper.Status](results.Wrap("generate request id", results.FromErr(err)))
			}

			hctx.Metadata[MetadataRequestID] = id.String()

			return results.Success[hyper.Status]()
		}),
	}
}
