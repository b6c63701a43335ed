package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testReport() domain.SafetyReport {
	loc := domain.ResolvedLocation{Lat: 29.9511, Lon: -90.0715, City: "New Orleans", State: "LA"}
	alerts := []domain.WeatherAlert{
		domain.NewWeatherAlert("Flash Flood Warning", "Severe", "Immediate", "Flash Flood Warning until 6 PM", "", ""),
	}
	r := domain.NewSafetyReport(loc, alerts, nil, domain.ClassifyCrime("LA", "New Orleans"))
	r.GeneratedAt = time.Date(2026, 6, 1, 18, 30, 0, 0, time.UTC)
	return r
}

func TestSerializeToMessage(t *testing.T) {
	report := testReport()

	msg, err := serializeToMessage("rpt-1", "new orleans", report)
	require.NoError(t, err)

	assert.Equal(t, []byte("New Orleans, LA"), msg.Key)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "report_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("rpt-1"), msg.Headers[0].Value)
	assert.Equal(t, "alert_count", msg.Headers[1].Key)
	assert.Equal(t, []byte("1"), msg.Headers[1].Value)
	assert.Equal(t, "risk_level", msg.Headers[2].Key)
	assert.Equal(t, []byte("High"), msg.Headers[2].Value)
	assert.Equal(t, "generated_at", msg.Headers[3].Key)
	assert.Equal(t, []byte("2026-06-01T18:30:00Z"), msg.Headers[3].Value)

	var event ReportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "rpt-1", event.ID)
	assert.Equal(t, "new orleans", event.Query)
	assert.Equal(t, "New Orleans", event.Report.Location.City)
	assert.Equal(t, 1, event.Report.AlertCount)
	assert.Contains(t, string(msg.Value), `"weather":null`)
}

func TestReportWriter_PublishReport(t *testing.T) {
	fw := &fakeWriter{}
	w := &ReportWriter{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.PublishReport(context.Background(), "70112", testReport()))
	require.NoError(t, w.PublishReport(context.Background(), "70112", testReport()))

	require.Len(t, fw.msgs, 2)
	assert.Equal(t, fw.msgs[0].Key, fw.msgs[1].Key, "same location shares a key")
	assert.NotEqual(t, fw.msgs[0].Headers[0].Value, fw.msgs[1].Headers[0].Value, "each report gets its own id")

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestReportWriter_PublishReportError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := &ReportWriter{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.PublishReport(context.Background(), "70112", testReport())
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "kafka", upErr.Provider)
	assert.Equal(t, domain.OutcomeUpstreamFailure, domain.OutcomeOf(err))
}
