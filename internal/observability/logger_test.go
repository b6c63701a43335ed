package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Info("report built", "location", "Boise, ID")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "report built", entry["msg"])
	assert.Equal(t, "Boise, ID", entry["location"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "text")

	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	debug := newLogger(&buf, "DEBUG", "json")
	assert.True(t, debug.Enabled(context.Background(), slog.LevelDebug))

	fallback := newLogger(&buf, "verbose", "json")
	assert.True(t, fallback.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, fallback.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ReportsBuilt.WithLabelValues("success").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ReportsBuilt.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ReportsBuilt.WithLabelValues("success")))
}
