package hyper_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/results"
)

func Example() {
	compiler := hyper.NewCompiler(
		hyper.Descriptor[*hyper.Context, hyper.Status]{
			Name:  "greeter",
			Needs: []string{"user"},
			Responder: hyper.HandlerFunc(func(_ context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
				return results.SuccessValue(hyper.OK(map[string]string{"hello": hctx.Metadata["user"]}))
			}),
		},
		hyper.Descriptor[*hyper.Context, hyper.Status]{
			Name:       "auth",
			Implements: []string{"user"},
			Responder: hyper.HandlerFunc(func(_ context.Context, hctx *hyper.Context) results.Result[hyper.Status] {
				user, ok := hctx.Header.Get("X-User")
				if !ok {
					return results.FailureValue(hyper.NewStatus(hyper.CodeUnauthorized, nil), results.NewError("who are you?"))
				}

				hctx.Metadata["user"] = user

				return results.Success[hyper.Status]()
			}),
		},
	)

	order, _ := compiler.Responders()
	for _, d := range order {
		fmt.Println("runs:", d.Name)
	}

	srv := hyper.NewServer(hyper.DefaultConfig(), compiler.MustCompile(), nil)
	for _, raw := range []string{
		"GET / HTTP/1.1\r\nX-User: gopher\r\n\r\n",
		"GET / HTTP/1.1\r\n\r\n",
	} {
		client, server := net.Pipe()
		go srv.ServeConn(context.Background(), server)
		go func() { _, _ = io.WriteString(client, raw) }()

		out, _ := io.ReadAll(client)
		status, _, _ := strings.Cut(string(out), "\r\n")
		_, body, _ := strings.Cut(string(out), "\r\n\r\n")
		fmt.Println(status, body)
	}

	// Output:
	// runs: auth
	// runs: greeter
	// HTTP/1.1 200 OK {"hello":"gopher"}
	// HTTP/1.1 401 Unauthorized {"errors":[{"message":"who are you?"}]}
}
