package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
// DisplayName is set by free-text providers; City and State by providers
// that return structured fields.
type GeocodingResult struct {
	Lat         float64
	Lon         float64
	City        string
	State       string
	DisplayName string
}

// ZipGeocoder resolves a five-digit ZIP code.
type ZipGeocoder interface {
	// LookupZIP returns ErrNotFound when the code is unknown.
	LookupZIP(ctx context.Context, zip string) (GeocodingResult, error)
}

// PlaceGeocoder resolves free text (city names, street addresses).
type PlaceGeocoder interface {
	// Search returns the first match or ErrNotFound when there are none.
	Search(ctx context.Context, query string) (GeocodingResult, error)
}

// LocationResolver turns free-text input into a fully populated location.
type LocationResolver interface {
	Resolve(ctx context.Context, text string) (ResolvedLocation, error)
}
