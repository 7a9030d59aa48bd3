package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	assert.NotNil(t, Default)
	assert.Contains(t, buf.String(), "Logger initialized")
	assert.True(t, IsDebugEnabled())
}

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")

	var buf bytes.Buffer
	InitWithWriter(&buf)
	buf.Reset()

	ForSpider().Info().Str("city", "Краснодар").Msg("city resolved")
	assert.Contains(t, buf.String(), "component=spider")
	assert.Contains(t, buf.String(), "city resolved")

	buf.Reset()
	LogError("engine", errors.New("boom"), "fetch %s failed", "page")
	assert.Contains(t, buf.String(), "fetch page failed")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	ForWorker().Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestGetLogLevelFallsBackOnEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ALKOTEKA_ENVIRONMENT", "production")
	assert.Equal(t, "info", getLogLevel().String())

	t.Setenv("ALKOTEKA_ENVIRONMENT", "development")
	assert.Equal(t, "debug", getLogLevel().String())

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, "info", getLogLevel().String())
}
