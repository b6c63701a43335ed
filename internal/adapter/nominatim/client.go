package nominatim

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/couchcryptid/safety-check-service/internal/adapter/upstream"
	"github.com/couchcryptid/safety-check-service/internal/domain"
)

const provider = "nominatim"

// Client implements domain.PlaceGeocoder using the OpenStreetMap Nominatim search API.
type Client struct {
	http        *upstream.Client
	baseURL     string
	countryCode string
	logger      *slog.Logger
}

// NewClient creates a Nominatim client restricted to countryCode, the
// country the weather service covers. Nominatim rejects requests without an
// identifying User-Agent, which the upstream client supplies.
func NewClient(httpClient *upstream.Client, baseURL, countryCode string, logger *slog.Logger) *Client {
	return &Client{
		http:        httpClient,
		baseURL:     baseURL,
		countryCode: countryCode,
		logger:      logger,
	}
}

// Search geocodes free text and returns the first match. Zero results is
// domain.ErrNotFound.
func (c *Client) Search(ctx context.Context, query string) (domain.GeocodingResult, error) {
	params := url.Values{
		"q":            {query},
		"format":       {"jsonv2"},
		"limit":        {"1"},
		"countrycodes": {c.countryCode},
	}
	u := c.baseURL + "/search?" + params.Encode()

	var places []place
	if err := c.http.GetJSON(ctx, provider, u, "application/json", &places); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("search %q: %w", query, err)
	}
	if len(places) == 0 {
		return domain.GeocodingResult{}, fmt.Errorf("search %q: %w", query, domain.ErrNotFound)
	}

	p := places[0]
	lat, errLat := strconv.ParseFloat(p.Lat, 64)
	lon, errLon := strconv.ParseFloat(p.Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.GeocodingResult{}, &domain.UpstreamError{
			Provider: provider,
			Err:      fmt.Errorf("invalid coordinates %q,%q", p.Lat, p.Lon),
		}
	}

	c.logger.Debug("place resolved", "query", query, "display_name", p.DisplayName)

	return domain.GeocodingResult{
		Lat:         lat,
		Lon:         lon,
		DisplayName: p.DisplayName,
	}, nil
}

// Nominatim API response types. Coordinates arrive as strings.

type place struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
