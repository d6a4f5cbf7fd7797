// Package example implements an example responder in an outside package.
package example

import (
	"context"
	"encoding/json"
	"io"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/results"
	"github.com/advdv/hyper/responders"
)

// Greeting is the response body of the greeter.
type Greeting struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Greeter greets whoever is named in the "name" query parameter on GET /hello, or in the JSON body of
// POST /hello.
type Greeter struct {
	Salutation string
}

// NewGreeter inits a greeter that says "Hello".
func NewGreeter() *Greeter { return &Greeter{Salutation: "Hello"} }

// Describe implements hyper.Describer.
func (g *Greeter) Describe() hyper.Descriptor[*hyper.Context, hyper.Status] {
	return hyper.Descriptor[*hyper.Context, hyper.Status]{
		Name:       "greeter",
		Implements: []string{"greeting"},
		Needs:      []string{responders.CapabilityRequestID},
		Responder:  hyper.HandlerFunc(g.respond),
	}
}

func (g *Greeter) respond(_ context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
	if hctx.Route.Path != "/hello" {
		return results.Success[hyper.Status]()
	}

	var name string
	switch hctx.Method {
	case "GET":
		name = hctx.Route.Query().Get("name")
	case "POST":
		var in struct {
			Name string `json:"name"`
		}

		body, err := io.ReadAll(hctx.Body())
		if err != nil {
			return results.FailureError[hyper.Status](results.Wrap("read body", results.FromErr(err)))
		}

		if err := json.Unmarshal(body, &in); err != nil {
			return results.FailureValue(hyper.NewStatus(hyper.CodeBadRequest, nil),
				results.Wrap("decode body", results.FromErr(err)))
		}

		name = in.Name
	default:
		return results.FailureValue(hyper.NewStatus(hyper.CodeMethodNotAllowed, nil),
			results.NewError("method "+hctx.Method+" is not allowed"))
	}

	if name == "" {
		name = "stranger"
	}

	return results.SuccessValue(hyper.OK(Greeting{
		Message:   g.Salutation + ", " + name,
		RequestID: hctx.Metadata[responders.MetadataRequestID],
	}))
}
