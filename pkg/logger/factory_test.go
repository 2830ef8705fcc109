package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"log/slog"

	"github.com/dmitrymomot/sessionkit/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode parses the single JSON record written to buf.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to json", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf)).Info("session created")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "session created", entry["msg"])
	})

	t.Run("last formatter wins", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithJSONFormatter(), logger.WithTextFormatter()).
			Warn("malformed session id")

		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), `msg="malformed session id"`)
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("cache hit")
		assert.Zero(t, buf.Len())

		log.Error("store down")
		assert.Equal(t, "store down", decode(t, buf)["msg"])
	})

	t.Run("static and context attributes", func(t *testing.T) {
		t.Parallel()
		type key struct{}
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithAttr(logger.Backend("redis")),
			logger.WithContextValue("request_id", key{}),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				return logger.Tier("cache"), true
			}),
		)

		ctx := context.WithValue(context.Background(), key{}, "req-1")
		log.With(logger.Component("session")).InfoContext(ctx, "hydrated")

		entry := decode(t, buf)
		assert.Equal(t, "redis", entry["backend"])
		assert.Equal(t, "req-1", entry["request_id"])
		assert.Equal(t, "cache", entry["tier"])
		assert.Equal(t, "session", entry["component"])
	})

	t.Run("missing context value is skipped", func(t *testing.T) {
		t.Parallel()
		type key struct{}
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", key{})).
			InfoContext(context.Background(), "no request")

		assert.NotContains(t, decode(t, buf), "request_id")
	})
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("default")
	assert.Equal(t, "default", decode(t, buf)["msg"])
}

func TestWithFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithDevelopment("svc"), logger.WithOutput(buf))
		log.Debug("msg")
		out := buf.String()
		assert.Contains(t, out, "DEBUG")
		assert.Contains(t, out, "service=svc")
		assert.Contains(t, out, "env=development")
	})

	t.Run("production", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("prod", "svc"), logger.WithOutput(buf))
		log.Debug("hidden")
		log.Info("msg")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "svc", entry["service"])
		assert.Equal(t, "production", entry["env"])
		assert.Equal(t, "msg", entry["msg"])
	})

	t.Run("unknown falls back to development", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("qa", ""), logger.WithOutput(buf))
		log.Debug("msg")
		assert.Contains(t, buf.String(), "env=development")
	})
}

func TestFromConfig(t *testing.T) {
	t.Run("overrides environment defaults", func(t *testing.T) {
		opts, err := logger.FromConfig(logger.Config{Service: "svc", Env: "development", Level: "warn", Format: "json"})
		require.NoError(t, err)

		buf := &bytes.Buffer{}
		log := logger.New(append(opts, logger.WithOutput(buf))...)
		log.Info("hidden")
		log.Warn("shown")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "shown", entry["msg"])
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := logger.FromConfig(logger.Config{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := logger.FromConfig(logger.Config{Format: "xml"})
		assert.Error(t, err)
	})
}

func TestLogHandlerDecorator_ExplicitAttrWins(t *testing.T) {
	t.Parallel()
	type key struct{}
	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", key{}))

	ctx := context.WithValue(context.Background(), key{}, "from-ctx")
	log.InfoContext(ctx, "cycled", slog.String("request_id", "explicit"))

	assert.Equal(t, 1, strings.Count(buf.String(), `"request_id"`))
	assert.Equal(t, "explicit", decode(t, buf)["request_id"])
}
