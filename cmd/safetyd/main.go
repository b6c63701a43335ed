package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/safety-check-service/internal/adapter/geocache"
	httpadapter "github.com/couchcryptid/safety-check-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/safety-check-service/internal/adapter/kafka"
	"github.com/couchcryptid/safety-check-service/internal/adapter/nominatim"
	"github.com/couchcryptid/safety-check-service/internal/adapter/nws"
	"github.com/couchcryptid/safety-check-service/internal/adapter/sendgrid"
	"github.com/couchcryptid/safety-check-service/internal/adapter/smtpmail"
	"github.com/couchcryptid/safety-check-service/internal/adapter/twilio"
	"github.com/couchcryptid/safety-check-service/internal/adapter/upstream"
	"github.com/couchcryptid/safety-check-service/internal/adapter/valkey"
	"github.com/couchcryptid/safety-check-service/internal/adapter/zippopotam"
	"github.com/couchcryptid/safety-check-service/internal/chat"
	"github.com/couchcryptid/safety-check-service/internal/config"
	"github.com/couchcryptid/safety-check-service/internal/notify"
	"github.com/couchcryptid/safety-check-service/internal/observability"
	"github.com/couchcryptid/safety-check-service/internal/safety"
	"github.com/couchcryptid/safety-check-service/internal/session"
)

// sessionBackend is a session store that can report readiness.
type sessionBackend interface {
	session.Store
	CheckReadiness(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Location resolution: ZIP lookups and free-text geocoding behind an LRU cache.
	zipClient := upstream.NewClient(cfg.ZipTimeout, cfg.UserAgent, metrics)
	geoClient := upstream.NewClient(cfg.GeocodeTimeout, cfg.UserAgent, metrics)
	weatherClient := upstream.NewClient(cfg.WeatherTimeout, cfg.UserAgent, metrics)

	resolver := geocache.NewCachedResolver(
		safety.NewResolver(
			zippopotam.NewClient(zipClient, cfg.ZipBaseURL, cfg.GeocodeCountry, logger),
			nominatim.NewClient(geoClient, cfg.NominatimBaseURL, cfg.GeocodeCountry, logger),
			logger,
		),
		cfg.GeocodeCacheSize, cfg.GeocodeCacheTTL, nil, metrics,
	)
	weather := nws.NewClient(weatherClient, cfg.NWSBaseURL, logger)

	// Report stream (feature-flagged via KAFKA_BROKERS).
	var sink safety.ReportSink
	var writer *kafkaadapter.ReportWriter
	if cfg.ReportStreamEnabled() {
		writer = kafkaadapter.NewReportWriter(cfg, logger)
		sink = writer
		logger.Info("report stream enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportsTopic)
	} else {
		logger.Info("report stream disabled")
	}

	aggregator := safety.NewAggregator(resolver, weather, sink, logger, metrics)
	router := chat.NewRouter(aggregator, logger, metrics)
	dispatcher := notify.NewDispatcher(notify.ConfigFrom(cfg), newEmailTransport(cfg, logger), newSMSTransport(cfg, logger), logger, metrics)

	sessions, closeSessions, err := newSessionStore(cfg)
	if err != nil {
		logger.Error("failed to open session store", "backend", cfg.SessionBackend, "error", err)
		os.Exit(1)
	}
	logger.Info("session store ready", "backend", cfg.SessionBackend, "ttl", cfg.SessionTTL)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Dependencies{
		Reports:      aggregator,
		Notifier:     dispatcher,
		Chat:         router,
		Sessions:     sessions,
		Ready:        sessions,
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.SessionCookieSecure,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	closeSessions()

	logger.Info("shutdown complete")
}

func newSessionStore(cfg *config.Config) (sessionBackend, func(), error) {
	if cfg.SessionBackend == config.SessionBackendValkey {
		store, err := valkey.New(cfg.ValkeyAddr, cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return session.NewMemoryStore(cfg.SessionTTL, nil), func() {}, nil
}

// newEmailTransport returns nil when the channel cannot be used; the
// dispatcher then reports every email as not sent.
func newEmailTransport(cfg *config.Config, logger *slog.Logger) notify.EmailTransport {
	if !cfg.EmailEnabled {
		logger.Info("email notifications disabled")
		return nil
	}
	if cfg.EmailProvider == config.EmailProviderSendGrid {
		logger.Info("email notifications via sendgrid")
		return sendgrid.NewSender(cfg.SendGridAPIKey, "", cfg.NotifyTimeout)
	}
	sender, err := smtpmail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword, cfg.NotifyTimeout)
	if err != nil {
		logger.Warn("email notifications unavailable", "error", err)
		return nil
	}
	logger.Info("email notifications via smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	return sender
}

func newSMSTransport(cfg *config.Config, logger *slog.Logger) notify.SMSTransport {
	if !cfg.SMSEnabled {
		logger.Info("sms notifications disabled")
		return nil
	}
	return twilio.NewSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.NotifyTimeout, logger)
}
