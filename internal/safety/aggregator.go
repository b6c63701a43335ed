package safety

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
)

// MaxQueryLength bounds accepted location queries, in characters.
const MaxQueryLength = 256

// WeatherSource fetches weather signals for a coordinate pair.
type WeatherSource interface {
	Alerts(ctx context.Context, lat, lon float64) ([]domain.WeatherAlert, error)
	Conditions(ctx context.Context, lat, lon float64) (*domain.WeatherConditions, error)
}

// ReportSink receives every report after it is built.
type ReportSink interface {
	PublishReport(ctx context.Context, query string, report domain.SafetyReport) error
}

// Aggregator builds safety reports. It is the single place where weather
// failures are absorbed: once a location resolves, a report is always
// produced.
type Aggregator struct {
	resolver domain.LocationResolver
	weather  WeatherSource
	sink     ReportSink
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAggregator creates an Aggregator. Pass a nil sink to disable report publishing.
func NewAggregator(resolver domain.LocationResolver, weather WeatherSource, sink ReportSink, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		weather:  weather,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
	}
}

// ValidateQuery trims a raw query and rejects empty or oversized input.
func ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" || utf8.RuneCountInString(query) > MaxQueryLength {
		return "", domain.ErrInvalidInput
	}
	return query, nil
}

// BuildReport resolves query and gathers alerts, conditions, and the crime
// tier. It returns domain.ErrInvalidInput for empty or oversized queries and
// domain.ErrNotFound when the location cannot be resolved for any reason.
// Weather lookups run one after the other and never fail the report.
func (a *Aggregator) BuildReport(ctx context.Context, query string) (domain.SafetyReport, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		a.count(domain.OutcomeInvalidInput)
		return domain.SafetyReport{}, err
	}

	loc, err := a.resolver.Resolve(ctx, query)
	if err != nil {
		a.logger.Info("location not resolved",
			"query", query,
			"outcome", domain.OutcomeOf(err),
			"error", err,
		)
		a.count(domain.OutcomeNotFound)
		return domain.SafetyReport{}, domain.ErrNotFound
	}

	alerts, err := a.weather.Alerts(ctx, loc.Lat, loc.Lon)
	if err != nil {
		a.logger.Warn("weather alerts unavailable",
			"location", loc.Label(),
			"error", err,
		)
		alerts = nil
	}

	conditions, err := a.weather.Conditions(ctx, loc.Lat, loc.Lon)
	if err != nil {
		a.logger.Warn("current conditions unavailable",
			"location", loc.Label(),
			"error", err,
		)
		conditions = nil
	}

	crime := domain.ClassifyCrime(loc.State, loc.City)

	report := domain.NewSafetyReport(loc, alerts, conditions, crime)
	a.count(domain.OutcomeSuccess)
	a.publish(ctx, query, report)

	a.logger.Info("safety report built",
		"location", loc.Label(),
		"alert_count", report.AlertCount,
		"has_conditions", report.Weather != nil,
		"risk_level", report.Crime.RiskLevel,
	)
	return report, nil
}

func (a *Aggregator) publish(ctx context.Context, query string, report domain.SafetyReport) {
	if a.sink == nil {
		return
	}
	err := a.sink.PublishReport(ctx, query, report)
	if a.metrics != nil {
		a.metrics.ReportsPublished.WithLabelValues(string(domain.OutcomeOf(err))).Inc()
	}
	if err != nil {
		a.logger.Warn("report publish failed", "location", report.Location.Label(), "error", err)
	}
}

func (a *Aggregator) count(outcome domain.Outcome) {
	if a.metrics == nil {
		return
	}
	a.metrics.ReportsBuilt.WithLabelValues(string(outcome)).Inc()
}
