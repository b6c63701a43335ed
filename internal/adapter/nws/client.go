package nws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/safety-check-service/internal/adapter/upstream"
	"github.com/couchcryptid/safety-check-service/internal/domain"
)

const (
	providerAlerts   = "nws_alerts"
	providerPoints   = "nws_points"
	providerForecast = "nws_forecast"

	acceptGeoJSON = "application/geo+json"
)

// Client fetches active alerts and current conditions from the National
// Weather Service API. Neither call retries.
type Client struct {
	http    *upstream.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an NWS client. The upstream client must send an
// identifying User-Agent; api.weather.gov rejects anonymous traffic.
func NewClient(httpClient *upstream.Client, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Alerts returns the active alerts covering a point, in upstream order.
func (c *Client) Alerts(ctx context.Context, lat, lon float64) ([]domain.WeatherAlert, error) {
	u := fmt.Sprintf("%s/alerts/active?point=%s", c.baseURL, point(lat, lon))

	var resp alertsResponse
	if err := c.http.GetJSON(ctx, providerAlerts, u, acceptGeoJSON, &resp); err != nil {
		return nil, fmt.Errorf("active alerts: %w", err)
	}

	alerts := make([]domain.WeatherAlert, 0, len(resp.Features))
	for _, f := range resp.Features {
		p := f.Properties
		alerts = append(alerts, domain.NewWeatherAlert(
			p.Event, p.Severity, p.Urgency, p.Headline, p.Description, p.Instruction,
		))
	}
	c.logger.Debug("active alerts fetched", "point", point(lat, lon), "count", len(alerts))
	return alerts, nil
}

// Conditions resolves the point's gridpoint forecast and returns its first
// period as the current conditions.
func (c *Client) Conditions(ctx context.Context, lat, lon float64) (*domain.WeatherConditions, error) {
	u := fmt.Sprintf("%s/points/%s", c.baseURL, point(lat, lon))

	var pts pointsResponse
	if err := c.http.GetJSON(ctx, providerPoints, u, acceptGeoJSON, &pts); err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	if pts.Properties.Forecast == "" {
		return nil, &domain.UpstreamError{Provider: providerPoints, Err: errors.New("no forecast url for point")}
	}

	var fc forecastResponse
	if err := c.http.GetJSON(ctx, providerForecast, pts.Properties.Forecast, acceptGeoJSON, &fc); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	if len(fc.Properties.Periods) == 0 {
		return nil, &domain.UpstreamError{Provider: providerForecast, Err: errors.New("forecast has no periods")}
	}

	current := fc.Properties.Periods[0]
	if current.Temperature == nil {
		return nil, &domain.UpstreamError{Provider: providerForecast, Err: errors.New("forecast period has no temperature")}
	}
	return &domain.WeatherConditions{
		Temperature:     int(math.Round(*current.Temperature)),
		TemperatureUnit: current.TemperatureUnit,
		Conditions:      current.ShortForecast,
		Wind:            current.WindSpeed,
	}, nil
}

// point formats coordinates the way the API expects: at most four decimals.
func point(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// NWS API response types (GeoJSON).

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []period `json:"periods"`
	} `json:"properties"`
}

type period struct {
	Name            string   `json:"name"`
	Temperature     *float64 `json:"temperature"`
	TemperatureUnit string   `json:"temperatureUnit"`
	WindSpeed       string   `json:"windSpeed"`
	ShortForecast   string   `json:"shortForecast"`
}
