package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Placeholder credentials shipped as defaults. A channel configured with any
// of these is treated as not set up and skipped without contacting its provider.
const (
	PlaceholderSenderEmail    = "your-email@gmail.com"
	PlaceholderSenderPassword = "your-app-password"
	PlaceholderTwilioSID      = "your_account_sid"
	PlaceholderTwilioToken    = "your_auth_token"
	PlaceholderTwilioNumber   = "+1234567890"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendValkey = "valkey"
)

// Email providers.
const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream providers.
	UserAgent        string
	GeocodeCountry   string
	ZipBaseURL       string
	ZipTimeout       time.Duration
	NominatimBaseURL string
	GeocodeTimeout   time.Duration
	NWSBaseURL       string
	WeatherTimeout   time.Duration

	// Resolved-location cache.
	GeocodeCacheSize int
	GeocodeCacheTTL  time.Duration

	// Session storage.
	SessionBackend      string
	ValkeyAddr          string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	// Report stream. Disabled when KafkaBrokers is empty.
	KafkaBrokers      []string
	KafkaReportsTopic string

	// Email channel.
	EmailEnabled   bool
	EmailProvider  string
	SMTPHost       string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	SendGridAPIKey string
	NotifyTimeout  time.Duration

	// SMS channel.
	SMSEnabled        bool
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	zipTimeout, err := parseDuration("ZIP_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("GEOCODE_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	sessionTTL, err := parseDuration("SESSION_TTL", "24h")
	if err != nil {
		return nil, err
	}
	notifyTimeout, err := parseDuration("NOTIFY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	smtpPort, err := parsePort("SMTP_PORT", "587")
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UserAgent:        sharedcfg.EnvOrDefault("USER_AGENT", "SafetyAlertBot/1.0"),
		GeocodeCountry:   strings.ToLower(sharedcfg.EnvOrDefault("GEOCODE_COUNTRY", "us")),
		ZipBaseURL:       sharedcfg.EnvOrDefault("ZIP_BASE_URL", "https://api.zippopotam.us"),
		ZipTimeout:       zipTimeout,
		NominatimBaseURL: sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeTimeout:   geocodeTimeout,
		NWSBaseURL:       sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		WeatherTimeout:   weatherTimeout,

		GeocodeCacheSize: parsePositiveInt("GEOCODE_CACHE_SIZE", 1000),
		GeocodeCacheTTL:  cacheTTL,

		SessionBackend:      strings.ToLower(sharedcfg.EnvOrDefault("SESSION_BACKEND", SessionBackendMemory)),
		ValkeyAddr:          sharedcfg.EnvOrDefault("VALKEY_ADDR", "localhost:6379"),
		SessionTTL:          sessionTTL,
		SessionCookieSecure: os.Getenv("SESSION_COOKIE_SECURE") == "true",

		KafkaBrokers:      brokers,
		KafkaReportsTopic: sharedcfg.EnvOrDefault("KAFKA_REPORTS_TOPIC", "safety-reports"),

		EmailEnabled:   sharedcfg.EnvOrDefault("EMAIL_ENABLED", "true") == "true",
		EmailProvider:  strings.ToLower(sharedcfg.EnvOrDefault("EMAIL_PROVIDER", EmailProviderSMTP)),
		SMTPHost:       sharedcfg.EnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       smtpPort,
		SenderEmail:    sharedcfg.EnvOrDefault("SENDER_EMAIL", PlaceholderSenderEmail),
		SenderPassword: sharedcfg.EnvOrDefault("SENDER_PASSWORD", PlaceholderSenderPassword),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		NotifyTimeout:  notifyTimeout,

		SMSEnabled:        sharedcfg.EnvOrDefault("SMS_ENABLED", "true") == "true",
		TwilioAccountSID:  sharedcfg.EnvOrDefault("TWILIO_ACCOUNT_SID", PlaceholderTwilioSID),
		TwilioAuthToken:   sharedcfg.EnvOrDefault("TWILIO_AUTH_TOKEN", PlaceholderTwilioToken),
		TwilioPhoneNumber: sharedcfg.EnvOrDefault("TWILIO_PHONE_NUMBER", PlaceholderTwilioNumber),
	}

	if cfg.UserAgent == "" {
		return nil, errors.New("USER_AGENT is required")
	}
	if cfg.SessionBackend != SessionBackendMemory && cfg.SessionBackend != SessionBackendValkey {
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q: want %q or %q", cfg.SessionBackend, SessionBackendMemory, SessionBackendValkey)
	}
	if cfg.SessionBackend == SessionBackendValkey && cfg.ValkeyAddr == "" {
		return nil, errors.New("SESSION_BACKEND is valkey but VALKEY_ADDR is not set")
	}
	if cfg.EmailProvider != EmailProviderSMTP && cfg.EmailProvider != EmailProviderSendGrid {
		return nil, fmt.Errorf("invalid EMAIL_PROVIDER %q: want %q or %q", cfg.EmailProvider, EmailProviderSMTP, EmailProviderSendGrid)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaReportsTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_REPORTS_TOPIC is empty")
	}

	return cfg, nil
}

// ReportStreamEnabled reports whether safety reports are published to Kafka.
func (c *Config) ReportStreamEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// EmailCredential returns the secret checked against placeholders for the
// configured email provider: the SMTP password or the SendGrid API key.
func (c *Config) EmailCredential() string {
	if c.EmailProvider == EmailProviderSendGrid {
		return c.SendGridAPIKey
	}
	return c.SenderPassword
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePort(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 || n > 65535 {
		return 0, fmt.Errorf("invalid %s: must be 1-65535", key)
	}
	return n, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
