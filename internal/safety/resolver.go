package safety

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/safety-check-service/internal/domain"
)

// Resolver implements domain.LocationResolver. Five-digit input goes to the
// ZIP provider only; everything else goes to the free-text geocoder.
type Resolver struct {
	zip    domain.ZipGeocoder
	places domain.PlaceGeocoder
	logger *slog.Logger
}

// NewResolver creates a Resolver over the two geocoding providers.
func NewResolver(zip domain.ZipGeocoder, places domain.PlaceGeocoder, logger *slog.Logger) *Resolver {
	return &Resolver{
		zip:    zip,
		places: places,
		logger: logger,
	}
}

// Resolve returns a fully populated location, domain.ErrNotFound when the
// provider has no match, or the provider's *domain.UpstreamError. At most one
// provider is called per invocation.
func (r *Resolver) Resolve(ctx context.Context, text string) (domain.ResolvedLocation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ResolvedLocation{}, domain.ErrInvalidInput
	}

	if domain.IsZIPCode(text) {
		res, err := r.zip.LookupZIP(ctx, text)
		if err != nil {
			return domain.ResolvedLocation{}, fmt.Errorf("resolve zip: %w", err)
		}
		return domain.ResolvedLocation{
			Lat:   res.Lat,
			Lon:   res.Lon,
			City:  res.City,
			State: res.State,
		}, nil
	}

	res, err := r.places.Search(ctx, text)
	if err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("resolve place: %w", err)
	}

	city, state := domain.ParseDisplayName(res.DisplayName)
	r.logger.Debug("display name parsed",
		"query", text,
		"display_name", res.DisplayName,
		"city", city,
		"state", state,
	)
	return domain.ResolvedLocation{
		Lat:   res.Lat,
		Lon:   res.Lon,
		City:  city,
		State: state,
	}, nil
}
