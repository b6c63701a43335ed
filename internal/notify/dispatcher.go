// Package notify formats condensed safety reports and delivers them by email
// and SMS. Every send is best effort: failures become a false return.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/safety-check-service/internal/config"
	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
)

const (
	maxEmailAlerts = 3
	maxSMSAlerts   = 2

	channelEmail = "email"
	channelSMS   = "sms"

	// DefaultLocationLabel is used for test alerts when no location was checked.
	DefaultLocationLabel = "Your Location"
)

// EmailMessage is a plain-text email ready for a transport.
type EmailMessage struct {
	From    string
	To      string
	Subject string
	Body    string
}

// EmailTransport delivers a single email.
type EmailTransport interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// SMSTransport delivers a single text message.
type SMSTransport interface {
	SendSMS(ctx context.Context, from, to, body string) error
}

// Config is the immutable channel configuration of a Dispatcher.
type Config struct {
	EmailEnabled   bool
	SenderEmail    string
	SenderPassword string

	SMSEnabled bool
	AccountSID string
	AuthToken  string
	FromNumber string
}

// ConfigFrom extracts the dispatcher settings from the service config.
// SenderPassword carries the credential of the selected email provider.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		EmailEnabled:   cfg.EmailEnabled,
		SenderEmail:    cfg.SenderEmail,
		SenderPassword: cfg.EmailCredential(),
		SMSEnabled:     cfg.SMSEnabled,
		AccountSID:     cfg.TwilioAccountSID,
		AuthToken:      cfg.TwilioAuthToken,
		FromNumber:     cfg.TwilioPhoneNumber,
	}
}

// EmailReady returns domain.ErrNotConfigured when the email channel is off
// or still carries placeholder credentials.
func (c Config) EmailReady() error {
	switch {
	case !c.EmailEnabled:
		return fmt.Errorf("email disabled: %w", domain.ErrNotConfigured)
	case isPlaceholder(c.SenderEmail, config.PlaceholderSenderEmail),
		isPlaceholder(c.SenderPassword, config.PlaceholderSenderPassword):
		return fmt.Errorf("email credentials not set: %w", domain.ErrNotConfigured)
	}
	return nil
}

// SMSReady returns domain.ErrNotConfigured when the SMS channel is off or
// still carries placeholder credentials.
func (c Config) SMSReady() error {
	switch {
	case !c.SMSEnabled:
		return fmt.Errorf("sms disabled: %w", domain.ErrNotConfigured)
	case isPlaceholder(c.AccountSID, config.PlaceholderTwilioSID),
		isPlaceholder(c.AuthToken, config.PlaceholderTwilioToken),
		isPlaceholder(c.FromNumber, config.PlaceholderTwilioNumber):
		return fmt.Errorf("twilio credentials not set: %w", domain.ErrNotConfigured)
	}
	return nil
}

func isPlaceholder(value, placeholder string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == placeholder
}

// Dispatcher sends condensed reports over the configured channels.
type Dispatcher struct {
	cfg     Config
	email   EmailTransport
	sms     SMSTransport
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a Dispatcher. A nil transport disables its channel.
func NewDispatcher(cfg Config, email EmailTransport, sms SMSTransport, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		email:   email,
		sms:     sms,
		logger:  logger,
		metrics: metrics,
	}
}

// SendEmail emails a summary of at most three alerts plus the crime tier when
// available. It returns true only if the transport accepted the message.
func (d *Dispatcher) SendEmail(ctx context.Context, recipient, label string, alerts []domain.WeatherAlert, crime domain.CrimeAssessment) bool {
	recipient = strings.TrimSpace(recipient)
	if err := d.cfg.EmailReady(); err != nil {
		return d.skip(channelEmail, err)
	}
	if d.email == nil {
		return d.skip(channelEmail, fmt.Errorf("no email transport: %w", domain.ErrNotConfigured))
	}
	if recipient == "" {
		return d.skip(channelEmail, fmt.Errorf("empty recipient: %w", domain.ErrInvalidInput))
	}

	msg := EmailMessage{
		From:    d.cfg.SenderEmail,
		To:      recipient,
		Subject: "SAFETY ALERT for " + label,
		Body:    FormatEmailBody(label, alerts, crime),
	}
	err := d.email.SendEmail(ctx, msg)
	return d.done(channelEmail, label, err)
}

// SendSMS texts a summary of at most two alerts. It returns true only if the
// transport accepted the message.
func (d *Dispatcher) SendSMS(ctx context.Context, phone, label string, alerts []domain.WeatherAlert) bool {
	phone = strings.TrimSpace(phone)
	if err := d.cfg.SMSReady(); err != nil {
		return d.skip(channelSMS, err)
	}
	if d.sms == nil {
		return d.skip(channelSMS, fmt.Errorf("no sms transport: %w", domain.ErrNotConfigured))
	}
	if phone == "" {
		return d.skip(channelSMS, fmt.Errorf("empty phone number: %w", domain.ErrInvalidInput))
	}

	err := d.sms.SendSMS(ctx, d.cfg.FromNumber, phone, FormatSMSBody(label, alerts))
	return d.done(channelSMS, label, err)
}

// SendTest delivers a synthetic alert to every contact point set in pref.
func (d *Dispatcher) SendTest(ctx context.Context, pref domain.NotificationPreference, label string) domain.NotificationResult {
	if strings.TrimSpace(label) == "" {
		label = DefaultLocationLabel
	}
	alerts := []domain.WeatherAlert{TestAlert()}

	var res domain.NotificationResult
	if pref.Email != "" {
		res.EmailSent = d.SendEmail(ctx, pref.Email, label, alerts, domain.UnavailableCrimeAssessment())
	}
	if pref.Phone != "" {
		res.SMSSent = d.SendSMS(ctx, pref.Phone, label, alerts)
	}
	return res
}

// TestAlert is the synthetic alert used to verify notification delivery.
func TestAlert() domain.WeatherAlert {
	return domain.NewWeatherAlert("Test Alert", "Minor", "Unknown", "This is a test notification", "", "")
}

// FormatEmailBody renders the plain-text email body.
func FormatEmailBody(label string, alerts []domain.WeatherAlert, crime domain.CrimeAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SAFETY ALERT FOR %s\n\n", label)

	if len(alerts) > 0 {
		b.WriteString("ACTIVE WEATHER ALERTS:\n")
		for _, a := range alerts[:min(len(alerts), maxEmailAlerts)] {
			fmt.Fprintf(&b, "• %s - %s\n", a.Event, a.Severity)
			fmt.Fprintf(&b, "  %s\n\n", a.Headline)
		}
	}

	if crime.Available {
		fmt.Fprintf(&b, "CRIME SAFETY: %s Risk\n", crime.RiskLevel)
		fmt.Fprintf(&b, "%s\n\n", crime.Summary)
	}

	b.WriteString("\nStay safe!")
	return b.String()
}

// FormatSMSBody renders the text message body.
func FormatSMSBody(label string, alerts []domain.WeatherAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SAFETY ALERT for %s:\n", label)
	for _, a := range alerts[:min(len(alerts), maxSMSAlerts)] {
		fmt.Fprintf(&b, "• %s (%s)\n", a.Event, a.Severity)
	}
	b.WriteString("\nCheck the app for details. Stay safe!")
	return b.String()
}

func (d *Dispatcher) skip(channel string, err error) bool {
	d.logger.Debug("notification skipped", "channel", channel, "reason", err)
	d.count(channel, domain.OutcomeOf(err))
	return false
}

func (d *Dispatcher) done(channel, label string, err error) bool {
	d.count(channel, domain.OutcomeOf(err))
	if err != nil {
		d.logger.Warn("notification failed", "channel", channel, "location", label, "error", err)
		return false
	}
	d.logger.Info("notification sent", "channel", channel, "location", label)
	return true
}

func (d *Dispatcher) count(channel string, outcome domain.Outcome) {
	if d.metrics == nil {
		return
	}
	d.metrics.Notifications.WithLabelValues(channel, string(outcome)).Inc()
}
