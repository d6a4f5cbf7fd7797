package app

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestParseEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("HYPER_ADDR", "127.0.0.1:8080")

		env, err := ParseEnv[BaseEnvironment]()()
		if err != nil {
			t.Fatalf("ParseEnv() error = %v", err)
		}

		if got := env.baseURI().String(); got != "http://localhost/" {
			t.Errorf("baseURI = %q, want http://localhost/", got)
		}
		if env.serverName() != "hyper" {
			t.Errorf("serverName = %q, want hyper", env.serverName())
		}
		if env.logLevel() != zapcore.InfoLevel {
			t.Errorf("logLevel = %v, want info", env.logLevel())
		}
		if env.readHeaderTimeout() != 5*time.Second || env.writeTimeout() != 30*time.Second {
			t.Errorf("timeouts = %v/%v, want 5s/30s", env.readHeaderTimeout(), env.writeTimeout())
		}
		if env.maxConnections() != 1024 || env.maxHeaderBytes() != 65536 {
			t.Errorf("limits = %d/%d, want 1024/65536", env.maxConnections(), env.maxHeaderBytes())
		}
		if env.healthPath() != "/health" || env.rateLimit() != 0 || env.rateBurst() != 20 {
			t.Errorf("responders = %q/%v/%d", env.healthPath(), env.rateLimit(), env.rateBurst())
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("HYPER_ADDR", ":9090")
		t.Setenv("HYPER_BASE_URI", "https://api.example.com/v1/")
		t.Setenv("HYPER_LOG_LEVEL", "debug")
		t.Setenv("HYPER_RATE_LIMIT", "2.5")

		env, err := ParseEnv[BaseEnvironment]()()
		if err != nil {
			t.Fatalf("ParseEnv() error = %v", err)
		}

		if env.addr() != ":9090" {
			t.Errorf("addr = %q", env.addr())
		}
		if u := env.baseURI(); u.Scheme != "https" || u.Host != "api.example.com" || u.Path != "/v1/" {
			t.Errorf("baseURI = %v", u)
		}
		if env.logLevel() != zapcore.DebugLevel {
			t.Errorf("logLevel = %v, want debug", env.logLevel())
		}
		if env.rateLimit() != 2.5 {
			t.Errorf("rateLimit = %v, want 2.5", env.rateLimit())
		}
	})

	t.Run("missing address", func(t *testing.T) {
		t.Setenv("HYPER_ADDR", "")
		os.Unsetenv("HYPER_ADDR")

		if _, err := ParseEnv[BaseEnvironment]()(); err == nil {
			t.Fatal("expected error for missing HYPER_ADDR")
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("HYPER_ADDR", ":8080")
		t.Setenv("HYPER_LOG_LEVEL", "loud")

		if _, err := ParseEnv[BaseEnvironment]()(); err == nil {
			t.Fatal("expected error for invalid log level")
		}
	})
}

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct {
		level   zapcore.Level
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{zapcore.DebugLevel, zapcore.DebugLevel, zapcore.InvalidLevel},
		{zapcore.WarnLevel, zapcore.WarnLevel, zapcore.InfoLevel},
		{zapcore.ErrorLevel, zapcore.ErrorLevel, zapcore.WarnLevel},
	} {
		t.Run(tt.level.String(), func(t *testing.T) {
			logger, err := NewLogger(BaseEnvironment{LogLevel: tt.level})
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}

			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("expected %v to be enabled", tt.enabled)
			}
			if tt.muted != zapcore.InvalidLevel && logger.Core().Enabled(tt.muted) {
				t.Errorf("expected %v to be muted", tt.muted)
			}
		})
	}
}
