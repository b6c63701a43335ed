package domain

import "fmt"

// RiskLevel is the state-level crime tier.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskUnknown  RiskLevel = "Unknown"
)

// CrimeDetails carries the fixed caveats shown next to every tier.
type CrimeDetails struct {
	Note           string `json:"note,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// CrimeAssessment is the static crime classification for a state.
type CrimeAssessment struct {
	Available bool         `json:"available"`
	RiskLevel RiskLevel    `json:"risk_level"`
	Summary   string       `json:"summary"`
	Details   CrimeDetails `json:"details"`
}

var (
	highCrimeStates = map[string]struct{}{
		"LA": {}, "NM": {}, "TN": {}, "AR": {}, "AK": {}, "MO": {}, "SC": {}, "AL": {},
	}
	moderateCrimeStates = map[string]struct{}{
		"TX": {}, "FL": {}, "GA": {}, "NC": {}, "AZ": {}, "OK": {}, "NV": {}, "MI": {},
	}
)

var crimeDetails = CrimeDetails{
	Note:           "This is based on state-level FBI statistics. Individual neighborhoods may vary significantly.",
	Recommendation: "Check local police department websites for more specific neighborhood crime data.",
}

// UnavailableCrimeAssessment is the value used when no state is known, e.g.
// for synthetic test notifications.
func UnavailableCrimeAssessment() CrimeAssessment {
	return CrimeAssessment{
		Available: false,
		RiskLevel: RiskUnknown,
		Summary:   "Crime data not available for this location",
	}
}

// ClassifyCrime maps a state code to a risk tier. It is total: codes outside
// the High and Moderate sets, including the "US" sentinel and malformed
// input, fall into Low and the assessment is always available. Matching is
// exact, so lower-case codes are Low as well.
//
// The second argument, the city, is accepted for parity with finer-grained
// sources and is currently unused.
func ClassifyCrime(state, _ string) CrimeAssessment {
	a := CrimeAssessment{Available: true, Details: crimeDetails}
	if _, ok := highCrimeStates[state]; ok {
		a.RiskLevel = RiskHigh
		a.Summary = fmt.Sprintf("%s has higher crime rates compared to national average. Exercise caution, especially at night.", state)
		return a
	}
	if _, ok := moderateCrimeStates[state]; ok {
		a.RiskLevel = RiskModerate
		a.Summary = fmt.Sprintf("%s has moderate crime rates. Use common sense safety precautions.", state)
		return a
	}
	a.RiskLevel = RiskLow
	a.Summary = fmt.Sprintf("%s has relatively lower crime rates compared to national average.", state)
	return a
}
