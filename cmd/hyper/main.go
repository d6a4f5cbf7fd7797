// Command hyper serves the example greeter on the address in HYPER_ADDR. When HYPER_RELAY_UPSTREAM is
// set, GET requests under /relay/ are answered by that service.
package main

import (
	"net/http"
	"net/url"

	"github.com/advdv/hyper/app"
	"github.com/advdv/hyper/internal/example"
)

type environment struct {
	app.BaseEnvironment
	RelayUpstream url.URL `env:"HYPER_RELAY_UPSTREAM"`
}

func main() {
	app.NewApp[environment](
		app.WithResponder(example.NewGreeter),
		app.WithResponder(func(e environment, rt http.RoundTripper) *example.Relay {
			return example.NewRelay(&e.RelayUpstream, rt)
		}),
	).Run()
}
