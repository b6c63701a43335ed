package smtpmail

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/notify"
	"github.com/wneessen/go-mail"
)

const provider = "smtp"

// Sender implements notify.EmailTransport over SMTP with mandatory STARTTLS
// and PLAIN authentication.
type Sender struct {
	client *mail.Client
}

// NewSender creates an SMTP sender for host:port authenticating as username.
func NewSender(host string, port int, username, password string, timeout time.Duration) (*Sender, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &Sender{client: client}, nil
}

// SendEmail dials the server, sends one message, and closes the connection.
func (s *Sender) SendEmail(ctx context.Context, msg notify.EmailMessage) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return &domain.UpstreamError{Provider: provider, Err: err}
	}
	return nil
}

func buildMessage(msg notify.EmailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("sender address: %w", domain.ErrNotConfigured)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient address %q: %w", msg.To, domain.ErrInvalidInput)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
