package sendgrid

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/notify"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	provider     = "sendgrid"
	sendEndpoint = "/v3/mail/send"
)

// Sender implements notify.EmailTransport using the SendGrid v3 mail API.
type Sender struct {
	client  *sendgrid.Client
	timeout time.Duration
}

// NewSender creates a SendGrid sender. An empty baseURL targets the public
// API. Each send is bounded by timeout; zero leaves only the caller's deadline.
func NewSender(apiKey, baseURL string, timeout time.Duration) *Sender {
	client := sendgrid.NewSendClient(apiKey)
	if baseURL != "" {
		client.BaseURL = baseURL + sendEndpoint
	}
	return &Sender{client: client, timeout: timeout}
}

// SendEmail sends a plain-text message. Any non-2xx response is an error.
func (s *Sender) SendEmail(ctx context.Context, msg notify.EmailMessage) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := s.client.SendWithContext(ctx, buildMessage(msg))
	if err != nil {
		return &domain.UpstreamError{Provider: provider, Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &domain.UpstreamError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("send rejected: %s", resp.Body),
		}
	}
	return nil
}

func buildMessage(msg notify.EmailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.From))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", msg.Body))
	return m
}
