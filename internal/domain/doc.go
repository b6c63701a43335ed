// Package domain models the location safety report: resolved locations,
// National Weather Service (NWS) alerts and conditions, and the static
// state-level crime tier.
//
// # Location Resolution
//
// Two upstream shapes are normalized into a [ResolvedLocation]:
//
//	ZIP lookup:  "90210" → places[0] = {latitude, longitude, place name, state abbreviation}
//	Free text:   "Chicago" → display_name = "Chicago, Cook County, Illinois, United States"
//
// The ZIP provider already yields a clean city/state pair. The general
// geocoder returns only a comma-separated display name, least specific last,
// so the pair is recovered heuristically by [ParseDisplayName]:
//
//	segments are scanned right to left
//	"United States", "USA" and purely numeric segments (postcodes) are skipped
//	a two-letter upper-case segment ("IL") is the state code
//	a full state name ("Illinois") is the state when none is known yet
//	the first non-county segment after the state is the city
//
// When no state is found the "US" sentinel is used. It is not a real state
// code; [ClassifyCrime] places it in the Low tier like any unlisted code.
//
// # NWS Data Conventions
//
// Alerts come from /alerts/active?point={lat},{lon} as GeoJSON features.
// Coordinates are sent with four decimal places; the API redirects or
// rejects more precise points. Free-text fields are bounded before they
// reach a report:
//
//	description: 300 characters
//	instruction: 200 characters
//
// Current conditions need two calls: /points/{lat},{lon} returns the
// gridpoint forecast URL, and the first period of that forecast is taken as
// "now".
//
// # Degradation
//
// Upstream failures are represented as [*UpstreamError] or [ErrNotFound]
// inside adapters so they can be logged and counted, and are collapsed to an
// empty or absent field when a report is composed. Only [ErrInvalidInput] and
// [ErrNotFound] for the location itself ever reach a caller.
package domain
