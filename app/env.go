package app

import (
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	addr() string
	baseURI() *url.URL
	serverName() string
	logLevel() zapcore.Level
	otelExporter() string
	maxConnections() int
	readHeaderTimeout() time.Duration
	writeTimeout() time.Duration
	maxHeaderBytes() int
	healthPath() string
	rateLimit() float64
	rateBurst() int
}

// BaseEnvironment contains the environment variables every server reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Addr              string        `env:"HYPER_ADDR,required"`
	BaseURI           url.URL       `env:"HYPER_BASE_URI" envDefault:"http://localhost/"`
	ServerName        string        `env:"HYPER_SERVER_NAME" envDefault:"hyper"`
	LogLevel          zapcore.Level `env:"HYPER_LOG_LEVEL" envDefault:"info"`
	OtelExporter      string        `env:"HYPER_OTEL_EXPORTER" envDefault:"stdout"`
	MaxConnections    int           `env:"HYPER_MAX_CONNECTIONS" envDefault:"1024"`
	ReadHeaderTimeout time.Duration `env:"HYPER_READ_HEADER_TIMEOUT" envDefault:"5s"`
	WriteTimeout      time.Duration `env:"HYPER_WRITE_TIMEOUT" envDefault:"30s"`
	MaxHeaderBytes    int           `env:"HYPER_MAX_HEADER_BYTES" envDefault:"65536"`
	HealthPath        string        `env:"HYPER_HEALTH_PATH" envDefault:"/health"`
	// RateLimit is the number of requests per second a single client may make, zero disables
	// rate limiting.
	RateLimit float64 `env:"HYPER_RATE_LIMIT" envDefault:"0"`
	RateBurst int     `env:"HYPER_RATE_BURST" envDefault:"20"`
}

func (e BaseEnvironment) addr() string {
	return e.Addr
}

func (e BaseEnvironment) baseURI() *url.URL {
	u := e.BaseURI
	return &u
}

func (e BaseEnvironment) serverName() string {
	return e.ServerName
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) maxConnections() int {
	return e.MaxConnections
}

func (e BaseEnvironment) readHeaderTimeout() time.Duration {
	return e.ReadHeaderTimeout
}

func (e BaseEnvironment) writeTimeout() time.Duration {
	return e.WriteTimeout
}

func (e BaseEnvironment) maxHeaderBytes() int {
	return e.MaxHeaderBytes
}

func (e BaseEnvironment) healthPath() string {
	return e.HealthPath
}

func (e BaseEnvironment) rateLimit() float64 {
	return e.RateLimit
}

func (e BaseEnvironment) rateBurst() int {
	return e.RateBurst
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
