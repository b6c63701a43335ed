package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "SafetyAlertBot/test"

type payload struct {
	Name string `json:"name"`
}

func TestGetJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := NewClient(time.Second, testUserAgent, metrics)

	var got payload
	require.NoError(t, c.GetJSON(context.Background(), "test", srv.URL, "application/geo+json", &got))
	assert.Equal(t, "ok", got.Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("test", "success")))
}

func TestGetJSON_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`missing user agent`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := NewClient(time.Second, "", metrics)

	err := c.GetJSON(context.Background(), "test", srv.URL, "", &payload{})
	require.Error(t, err)

	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusForbidden, ue.StatusCode)
	assert.Equal(t, "test", ue.Provider)
	assert.Contains(t, err.Error(), "missing user agent")
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("test", "upstream_failure")))
}

func TestGetJSON_NotFoundMetric(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := NewClient(time.Second, testUserAgent, metrics)

	err := c.GetJSON(context.Background(), "test", srv.URL, "", &payload{})
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("test", "not_found")))
}

func TestGetJSON_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, testUserAgent, nil)

	err := c.GetJSON(context.Background(), "test", srv.URL, "", &payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
	assert.Equal(t, domain.OutcomeUpstreamFailure, domain.OutcomeOf(err))
}

func TestGetJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(50*time.Millisecond, testUserAgent, nil)

	err := c.GetJSON(context.Background(), "test", srv.URL, "", &payload{})
	require.Error(t, err)
	var ue *domain.UpstreamError
	assert.True(t, errors.As(err, &ue))
	assert.Zero(t, ue.StatusCode)
}
