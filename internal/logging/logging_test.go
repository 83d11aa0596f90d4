package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})
	l.With(String("op", "insert_via")).Debug(context.Background(), "done", Int("depth", 3), Bool("ok", true))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "done", rec["msg"])
	assert.Equal(t, "insert_via", rec["op"])
	assert.Equal(t, float64(3), rec["depth"])
	assert.Equal(t, true, rec["ok"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())
	l.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestOperationID(t *testing.T) {
	ctx, id := EnsureOperationID(context.Background())
	require.NotEmpty(t, id)
	again, id2 := EnsureOperationID(ctx)
	assert.Equal(t, id, id2)
	assert.Equal(t, id, OperationIDFromContext(again))
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	l := Noop()
	assert.Equal(t, l, FromContext(ContextWithLogger(context.Background(), l)))
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "", Err(nil).Value)
}
