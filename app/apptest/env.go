package apptest

import (
	"net"
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [app.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [app.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - HYPER_ADDR: "127.0.0.1:{port}"
//   - HYPER_SERVER_NAME: "test"
//   - HYPER_LOG_LEVEL: "error"
//   - HYPER_OTEL_EXPORTER: "none"
//   - HYPER_HEALTH_PATH: "/health"
//   - HYPER_RATE_LIMIT: "0"
//
// Use the returned [Env] to override individual values:
//
//	apptest.SetBaseEnv(t, 18085).ServerName("other").RateLimit(1, 1)
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("HYPER_ADDR", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	t.Setenv("HYPER_SERVER_NAME", "test")
	t.Setenv("HYPER_LOG_LEVEL", "error")
	t.Setenv("HYPER_OTEL_EXPORTER", "none")
	t.Setenv("HYPER_HEALTH_PATH", "/health")
	t.Setenv("HYPER_RATE_LIMIT", "0")
	return &Env{t: t}
}

// ServerName overrides HYPER_SERVER_NAME.
func (e *Env) ServerName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("HYPER_SERVER_NAME", name)
	return e
}

// HealthPath overrides HYPER_HEALTH_PATH.
func (e *Env) HealthPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("HYPER_HEALTH_PATH", path)
	return e
}

// BaseURI overrides HYPER_BASE_URI.
func (e *Env) BaseURI(uri string) *Env {
	e.t.Helper()
	e.t.Setenv("HYPER_BASE_URI", uri)
	return e
}

// RateLimit overrides HYPER_RATE_LIMIT and HYPER_RATE_BURST.
func (e *Env) RateLimit(limit float64, burst int) *Env {
	e.t.Helper()
	e.t.Setenv("HYPER_RATE_LIMIT", strconv.FormatFloat(limit, 'f', -1, 64))
	e.t.Setenv("HYPER_RATE_BURST", strconv.Itoa(burst))
	return e
}

// MaxConnections overrides HYPER_MAX_CONNECTIONS.
func (e *Env) MaxConnections(n int) *Env {
	e.t.Helper()
	e.t.Setenv("HYPER_MAX_CONNECTIONS", strconv.Itoa(n))
	return e
}
