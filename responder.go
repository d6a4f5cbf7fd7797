package hyper

import (
	"context"

	"github.com/advdv/hyper/results"
)

// Responder is a unit of the request pipeline. It consumes the shared input and produces a Result that
// tells the pipeline whether to continue.
type Responder[I, O any] interface {
	Respond(ctx context.Context, in I) results.Result[O]
}

// ResponderFunc allow casting a function to implement [Responder].
type ResponderFunc[I, O any] func(context.Context, I) results.Result[O]

// Respond implements the [Responder] interface.
func (f ResponderFunc[I, O]) Respond(ctx context.Context, in I) results.Result[O] {
	return f(ctx, in)
}

// Descriptor declares a responder together with the capabilities it implements and the capabilities
// it needs to have run before it.
type Descriptor[I, O any] struct {
	Name       string
	Implements []string
	Needs      []string
	Responder  Responder[I, O]
}

// Describer is implemented by responder types that carry their own descriptor.
type Describer[I, O any] interface {
	Describe() Descriptor[I, O]
}

// Handler is the responder shape the server runs: it turns a request context into a response status.
type Handler = Responder[*Context, Status]

// HandlerFunc allow casting a function to implement [Handler].
type HandlerFunc = ResponderFunc[*Context, Status]
