package domain

import (
	"strings"
)

const (
	// UnknownState is the sentinel used when a display name names no state.
	UnknownState = "US"
	unknownCity  = "Unknown"
)

var countryLiterals = map[string]struct{}{
	"united states":            {},
	"united states of america": {},
	"usa":                      {},
	"us":                       {},
}

var countySuffixes = []string{" county", " parish", " borough", " census area", " municipality"}

var stateCodeByName = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"district of columbia": "DC", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN", "texas": "TX",
	"utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY", "puerto rico": "PR",
}

// ParseDisplayName extracts a best-effort (city, state) pair from a
// geocoder display name such as
// "Beverly Hills, Los Angeles County, California, 90210, United States".
//
// Segments are scanned from least to most specific. The state is the first
// two-letter upper-case segment or recognized state name; the city is the
// first non-county segment after it. Without a city the most specific
// segment is used, and without a state the result carries UnknownState.
// The result is a heuristic, not an authoritative parse.
func ParseDisplayName(display string) (city, state string) {
	segments := splitSegments(display)
	if len(segments) == 0 {
		return unknownCity, UnknownState
	}

	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if isCountry(seg) || isPostcode(seg) {
			continue
		}
		if state == "" {
			if isStateCode(seg) {
				state = seg
			} else if code, ok := stateCodeByName[strings.ToLower(seg)]; ok {
				state = code
			}
			continue
		}
		if isCountyLike(seg) {
			continue
		}
		city = seg
		break
	}

	if city == "" {
		city = segments[0]
	}
	if state == "" {
		state = UnknownState
	}
	return city, state
}

func splitSegments(display string) []string {
	parts := strings.Split(display, ",")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func isCountry(seg string) bool {
	_, ok := countryLiterals[strings.ToLower(seg)]
	return ok
}

// isPostcode matches purely numeric segments, allowing ZIP+4 ("90210-1234").
func isPostcode(seg string) bool {
	digits := 0
	for _, r := range seg {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
		default:
			return false
		}
	}
	return digits > 0
}

func isStateCode(seg string) bool {
	if len(seg) != 2 {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < 'A' || seg[i] > 'Z' {
			return false
		}
	}
	return true
}

func isCountyLike(seg string) bool {
	lower := strings.ToLower(seg)
	for _, suffix := range countySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// IsZIPCode reports whether s is exactly five ASCII digits.
func IsZIPCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
