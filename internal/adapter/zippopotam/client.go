package zippopotam

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/safety-check-service/internal/adapter/upstream"
	"github.com/couchcryptid/safety-check-service/internal/domain"
)

const provider = "zippopotam"

// Client implements domain.ZipGeocoder using the Zippopotam.us postal code API.
type Client struct {
	http    *upstream.Client
	baseURL string
	country string
	logger  *slog.Logger
}

// NewClient creates a ZIP lookup client scoped to one country code (e.g. "us").
func NewClient(httpClient *upstream.Client, baseURL, country string, logger *slog.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		country: country,
		logger:  logger,
	}
}

// LookupZIP converts a postal code to coordinates and a city/state pair.
func (c *Client) LookupZIP(ctx context.Context, zip string) (domain.GeocodingResult, error) {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.country), url.PathEscape(zip))

	var resp response
	if err := c.http.GetJSON(ctx, provider, u, "application/json", &resp); err != nil {
		if upstream.IsStatus(err, http.StatusNotFound) {
			return domain.GeocodingResult{}, fmt.Errorf("zip %s: %w", zip, domain.ErrNotFound)
		}
		return domain.GeocodingResult{}, fmt.Errorf("zip %s: %w", zip, err)
	}

	if len(resp.Places) == 0 {
		return domain.GeocodingResult{}, fmt.Errorf("zip %s: %w", zip, domain.ErrNotFound)
	}

	p := resp.Places[0]
	lat, errLat := strconv.ParseFloat(p.Latitude, 64)
	lon, errLon := strconv.ParseFloat(p.Longitude, 64)
	if errLat != nil || errLon != nil {
		return domain.GeocodingResult{}, &domain.UpstreamError{
			Provider: provider,
			Err:      fmt.Errorf("invalid coordinates %q,%q", p.Latitude, p.Longitude),
		}
	}
	if p.PlaceName == "" || p.StateAbbreviation == "" {
		return domain.GeocodingResult{}, &domain.UpstreamError{
			Provider: provider,
			Err:      fmt.Errorf("incomplete place for zip %s", zip),
		}
	}

	c.logger.Debug("zip resolved", "zip", zip, "city", p.PlaceName, "state", p.StateAbbreviation)

	return domain.GeocodingResult{
		Lat:   lat,
		Lon:   lon,
		City:  p.PlaceName,
		State: p.StateAbbreviation,
	}, nil
}

// Zippopotam API response types. Coordinates arrive as strings.

type response struct {
	PostCode string  `json:"post code"`
	Country  string  `json:"country"`
	Places   []place `json:"places"`
}

type place struct {
	PlaceName         string `json:"place name"`
	Latitude          string `json:"latitude"`
	Longitude         string `json:"longitude"`
	State             string `json:"state"`
	StateAbbreviation string `json:"state abbreviation"`
}
