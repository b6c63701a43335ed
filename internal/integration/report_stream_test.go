//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/adapter/kafka"
	"github.com/couchcryptid/safety-check-service/internal/adapter/nominatim"
	"github.com/couchcryptid/safety-check-service/internal/adapter/nws"
	"github.com/couchcryptid/safety-check-service/internal/adapter/upstream"
	"github.com/couchcryptid/safety-check-service/internal/adapter/zippopotam"
	"github.com/couchcryptid/safety-check-service/internal/config"
	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
	"github.com/couchcryptid/safety-check-service/internal/safety"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReportsTopic = "test-safety-reports"

// fakeUpstreams serves canned Zippopotam and NWS responses for ZIP 90210.
func fakeUpstreams(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/us/90210", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"post code":"90210","country":"United States","places":[{"place name":"Beverly Hills","latitude":"34.0901","longitude":"-118.4065","state":"California","state abbreviation":"CA"}]}`)
	})
	mux.HandleFunc("/alerts/active", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"features":[{"properties":{"event":"Red Flag Warning","severity":"Severe","urgency":"Expected","headline":"Red Flag Warning until 8 PM"}}]}`)
	})
	mux.HandleFunc("/points/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/gridpoints/LOX/149,48/forecast"}}`, srv.URL)
	})
	mux.HandleFunc("/gridpoints/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"properties":{"periods":[{"name":"Today","temperature":91,"temperatureUnit":"F","windSpeed":"15 mph","shortForecast":"Sunny"}]}}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestReportStream builds a report through real adapters and verifies the
// published Kafka message.
func TestReportStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportsTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaReportsTopic: testReportsTopic,
	}

	srv := fakeUpstreams(t)
	metrics := observability.NewMetricsForTesting()
	httpClient := upstream.NewClient(5*time.Second, "SafetyAlertBot/test", metrics)

	resolver := safety.NewResolver(
		zippopotam.NewClient(httpClient, srv.URL, "us", discardLogger()),
		nominatim.NewClient(httpClient, srv.URL, "us", discardLogger()),
		discardLogger(),
	)
	weather := nws.NewClient(httpClient, srv.URL, discardLogger())

	writer := kafka.NewReportWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	agg := safety.NewAggregator(resolver, weather, writer, discardLogger(), metrics)

	report, err := agg.BuildReport(ctx, "90210")
	require.NoError(t, err)
	assert.Equal(t, "Beverly Hills, CA", report.Location.Label())
	assert.Equal(t, 1, report.AlertCount)
	require.NotNil(t, report.Weather)
	assert.Equal(t, 91, report.Weather.Temperature)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportsTopic,
		GroupID:     fmt.Sprintf("test-reports-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from reports topic")

	assert.Equal(t, "Beverly Hills, CA", string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "1", headers["alert_count"])
	assert.Equal(t, "Low", headers["risk_level"])
	assert.NotEmpty(t, headers["report_id"])
	_, err = time.Parse(time.RFC3339, headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	var event kafka.ReportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "90210", event.Query)
	assert.Equal(t, headers["report_id"], event.ID)
	assert.Equal(t, "CA", event.Report.Location.State)
	require.Len(t, event.Report.Alerts, 1)
	assert.Equal(t, "Red Flag Warning", event.Report.Alerts[0].Event)
	assert.True(t, event.Report.Crime.Available)
}

// TestReportStreamUnavailableBroker verifies that a dead broker never fails
// report building.
func TestReportStreamUnavailableBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := &config.Config{
		KafkaBrokers:      []string{"127.0.0.1:1"},
		KafkaReportsTopic: testReportsTopic,
	}
	writer := kafka.NewReportWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	srv := fakeUpstreams(t)
	metrics := observability.NewMetricsForTesting()
	httpClient := upstream.NewClient(5*time.Second, "SafetyAlertBot/test", metrics)
	resolver := safety.NewResolver(
		zippopotam.NewClient(httpClient, srv.URL, "us", discardLogger()),
		nominatim.NewClient(httpClient, srv.URL, "us", discardLogger()),
		discardLogger(),
	)
	agg := safety.NewAggregator(resolver, nws.NewClient(httpClient, srv.URL, discardLogger()), writer, discardLogger(), metrics)

	publishCtx, publishCancel := context.WithTimeout(ctx, 5*time.Second)
	defer publishCancel()
	report, err := agg.BuildReport(publishCtx, "90210")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.Location.Label(), "Beverly Hills"))
	assert.Equal(t, domain.RiskLow, report.Crime.RiskLevel)
}
