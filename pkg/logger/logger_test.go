package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConCampos(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "debug", App: "bodega-lotes", Output: &buf})

	zl := l.Component("allocator")
	zl.Debug().Str("item_id", "X").Msg("stock recalculado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "bodega-lotes", line["app"])
	assert.Equal(t, "allocator", line["component"])
	assert.Equal(t, "X", line["item_id"])
	assert.Equal(t, "debug", line["level"])
}

func TestNew_NivelFiltra(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Output: &buf})
	l.Info().Msg("no sale")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("sale")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("ruido"))
	assert.Equal(t, zerolog.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
}
