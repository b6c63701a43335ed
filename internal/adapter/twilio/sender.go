package twilio

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	twilio "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const provider = "twilio"

// messageCreator is the subset of the Twilio REST API used here.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Sender implements notify.SMSTransport using the Twilio Messages API.
type Sender struct {
	api    messageCreator
	logger *slog.Logger
}

// NewSender creates a Twilio sender for the given account. Every API call is
// bounded by timeout.
func NewSender(accountSID, authToken string, timeout time.Duration, logger *slog.Logger) *Sender {
	return newSender(accountSID, authToken, &http.Client{Timeout: timeout}, logger)
}

func newSender(accountSID, authToken string, httpClient *http.Client, logger *slog.Logger) *Sender {
	c := &client.Client{
		Credentials: client.NewCredentials(accountSID, authToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(accountSID)

	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
		Client:   c,
	})
	return &Sender{api: rc.Api, logger: logger}
}

// SendSMS queues one message. The Twilio client has no context support, so
// ctx is only checked before the call.
func (s *Sender) SendSMS(ctx context.Context, from, to, body string) error {
	if err := ctx.Err(); err != nil {
		return &domain.UpstreamError{Provider: provider, Err: err}
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		upErr := &domain.UpstreamError{Provider: provider, Err: err}
		var restErr *client.TwilioRestError
		if errors.As(err, &restErr) {
			upErr.StatusCode = restErr.Status
		}
		return upErr
	}

	if msg != nil && msg.Sid != nil {
		s.logger.Debug("sms queued", "sid", *msg.Sid)
	}
	return nil
}
