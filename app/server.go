package app

import (
	"context"
	"net"
	"slices"
	"strings"

	"github.com/advdv/hyper"
	"github.com/advdv/hyper/responders"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"
)

// ServerParams holds the dependencies for creating the server.
type ServerParams struct {
	fx.In

	Env        Environment
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
	Responders []any `group:"responders"`
}

// NewCompiler registers the built-in responders followed by every responder provided with
// [WithResponder]. Value groups have no order, so provided responders are registered by name.
func NewCompiler(params ServerParams) (*hyper.Compiler[*hyper.Context, hyper.Status], error) {
	c := hyper.NewCompiler(
		responders.Health(params.Env.healthPath()),
		responders.RequestID(),
	)

	if limit := params.Env.rateLimit(); limit > 0 {
		c.Register(responders.RateLimit(rate.Limit(limit), params.Env.rateBurst()))
	}

	provided := make([]responders.Descriptor, 0, len(params.Responders))
	for _, cand := range params.Responders {
		d, ok := hyper.DescriptorOf[*hyper.Context, hyper.Status](cand)
		if !ok {
			return nil, errors.Newf("provided responder of type %T is not a descriptor", cand)
		}

		provided = append(provided, d)
	}

	slices.SortStableFunc(provided, func(a, b responders.Descriptor) int {
		return strings.Compare(a.Name, b.Name)
	})

	c.Register(provided...)

	return c, nil
}

// NewServer compiles the responders and creates the server with tracing and panic recovery. A
// responder graph that cannot be ordered fails here, before anything is served.
func NewServer(params ServerParams, c *hyper.Compiler[*hyper.Context, hyper.Status]) (*hyper.Server, error) {
	chain, err := c.Compile()
	if err != nil {
		return nil, errors.Wrap(err, "compile responders")
	}

	order, _ := c.Responders()
	for _, d := range order {
		params.Logger.Debug("registered responder",
			zap.String("name", d.Name),
			zap.Strings("implements", d.Implements),
			zap.Strings("needs", d.Needs))
	}

	srv := hyper.NewServer(hyper.Config{
		BaseURI:           params.Env.baseURI(),
		ServerName:        params.Env.serverName(),
		MaxHeaderBytes:    params.Env.maxHeaderBytes(),
		ReadHeaderTimeout: params.Env.readHeaderTimeout(),
		WriteTimeout:      params.Env.writeTimeout(),
	}, chain, hyper.NewZapLogger(params.Logger))

	srv.Use(
		hyper.Tracing(params.TracerProv, params.Propagator),
		hyper.Recoverer(),
	)

	return srv, nil
}

// startServerHook registers lifecycle hooks for the server.
func startServerHook(lc fx.Lifecycle, srv *hyper.Server, env Environment, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", env.addr())
			if err != nil {
				return errors.Wrapf(err, "listen on %s", env.addr())
			}

			if n := env.maxConnections(); n > 0 {
				ln = netutil.LimitListener(ln, n)
			}

			logger.Info("starting server", zap.Stringer("addr", ln.Addr()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, hyper.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return srv.Shutdown(ctx)
		},
	})
}
