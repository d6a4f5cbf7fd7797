package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// WithResponder provides a responder through dependency injection. The constructor may take any
// dependency known to fx and must return a hyper.Descriptor, a *hyper.Descriptor or a hyper.Describer
// for the server pipeline.
//
//	app.WithResponder(func(db *sql.DB) *Items { return &Items{db: db} })
func WithResponder(ctor any) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fx.Provide(
			fx.Annotate(ctor, fx.As(new(any)), fx.ResultTags(`group:"responders"`)),
		))
	}
}

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// FxOptions returns the options that make up the app's dependency graph.
func FxOptions[E Environment](opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 10+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewOutboundTransport),
		fx.Provide(NewCompiler),
		fx.Provide(NewServer),
		fx.Invoke(startServerHook),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// NewApp creates an app that serves the compiled responder pipeline.
//
// Example:
//
//	app.NewApp[app.BaseEnvironment](
//	    app.WithResponder(example.NewGreeter),
//	).Run()
func NewApp[E Environment](opts ...Option) *App {
	return &App{
		app: fx.New(FxOptions[E](opts...)...),
	}
}

// Err returns the error fx ran into while building the dependency graph, if any.
func (a *App) Err() error {
	return a.app.Err()
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application with the given context.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
