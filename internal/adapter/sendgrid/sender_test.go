package sendgrid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessage = notify.EmailMessage{
	From:    "alerts@example.com",
	To:      "user@example.com",
	Subject: "SAFETY ALERT for Tulsa, OK",
	Body:    "SAFETY ALERT FOR Tulsa, OK\n\nStay safe!",
}

func TestSendEmail_Success(t *testing.T) {
	var gotAuth, gotPath string
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSender("SG.test-key", srv.URL, 5*time.Second)
	require.NoError(t, s.SendEmail(context.Background(), testMessage))

	assert.Equal(t, "Bearer SG.test-key", gotAuth)
	assert.Equal(t, "/v3/mail/send", gotPath)
	assert.Equal(t, "SAFETY ALERT for Tulsa, OK", payload["subject"])

	from, ok := payload["from"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alerts@example.com", from["email"])

	content, ok := payload["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Equal(t, "text/plain", content[0].(map[string]any)["type"])
}

func TestSendEmail_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid api key"}]}`))
	}))
	defer srv.Close()

	err := NewSender("SG.bad", srv.URL, 5*time.Second).SendEmail(context.Background(), testMessage)
	require.Error(t, err)

	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestBuildMessage(t *testing.T) {
	m := buildMessage(testMessage)

	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "user@example.com", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, testMessage.Body, m.Content[0].Value)
}

func TestSendEmail_SlowUpstreamTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	start := time.Now()
	err := NewSender("SG.test-key", srv.URL, 50*time.Millisecond).SendEmail(context.Background(), testMessage)
	elapsed := time.Since(start)

	require.Error(t, err)
	var upErr *domain.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "sendgrid", upErr.Provider)
	assert.Less(t, elapsed, 2*time.Second, "send should be cut short by the timeout")
}
