// Package hyper is a small HTTP/1.x server engine that answers every request with a pipeline of
// responders, ordered by the capabilities they implement and need.
//
// # Overview
//
// hyper reads one request per connection, turns it into a [Context] and runs a compiled chain of
// responders over it. Each responder returns a [results.Result] instead of writing to the wire
// directly, and the server turns the outcome of the chain into exactly one response.
//
// A minimal example:
//
//	c := hyper.NewCompiler(
//	    responders.RequestID(),
//	    hyper.Descriptor[*hyper.Context, hyper.Status]{
//	        Name:  "items",
//	        Needs: []string{responders.CapabilityRequestID},
//	        Responder: hyper.HandlerFunc(func(ctx context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
//	            return results.SuccessValue(hyper.OK(map[string]string{"id": hctx.Route.Query().Get("id")}))
//	        }),
//	    },
//	)
//
//	srv := hyper.NewServer(hyper.DefaultConfig(), c.MustCompile(), nil)
//	srv.Serve(ln)
//
// # Headers
//
// [Header] is a case-insensitive, multi-valued and insertion-ordered collection. Names must be HTTP
// tokens and values printable ASCII. Incoming header lines that do not follow these rules are dropped
// and reported to the [Logger], they never fail the request.
//
// # Responding
//
// [Context.Respond] serializes the body of a [Status], fills in Date, Content-Length, Content-Type and
// Server when the status does not set them, and writes the response. A context can be responded to
// once: later calls return [ErrAlreadyResponded]. When writing fails the connection is closed.
//
// # Results
//
// A result is success or failure, and carries a value or not. The chain stops at the first failure
// or at the first success that carries a value, otherwise it runs every responder. The server then
// decides:
//
//   - success with a value: the value is the response
//   - success without a value: 404 Not Found
//   - failure with a value: the value is the response, 500 when it has no code
//   - failure without a value: 500 Internal Server Error
//
// Failures are reported to the [Logger]. Bodies of error responses look like
// {"errors":[{"message":"..."}]}.
//
// # Ordering Responders
//
// A [Descriptor] names the capabilities a responder implements and the ones it needs. [Compiler]
// orders responders so that every responder runs after all implementers of the capabilities it
// needs. Responders that are not ordered by their capabilities keep their registration order. A
// needed capability nobody implements, or a cycle, is a [GraphError].
//
// # Middleware
//
// Middleware wraps the compiled chain. [Recoverer] turns panics into failures and [Tracing] starts an
// OpenTelemetry server span for every request:
//
//	srv.Use(hyper.Tracing(tp, prop), hyper.Recoverer())
//
// # Errors
//
// Errors read from the request head carry the status code they should be answered with, see
// [CodeOf]. All standard HTTP 4xx and 5xx status codes are available as [Code] constants.
package hyper
