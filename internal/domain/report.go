package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	maxDescriptionLen = 300
	maxInstructionLen = 200
)

// ResolvedLocation is a geocoded query. All four fields are set; a failed
// resolution produces an error instead of a partial value.
type ResolvedLocation struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	City  string  `json:"city"`
	State string  `json:"state"`
}

// Label renders the location as "City, ST".
func (l ResolvedLocation) Label() string {
	return fmt.Sprintf("%s, %s", l.City, l.State)
}

// WeatherAlert is one active NWS alert, in upstream order.
type WeatherAlert struct {
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

// NewWeatherAlert applies upstream defaults and length bounds to raw alert fields.
func NewWeatherAlert(event, severity, urgency, headline, description, instruction string) WeatherAlert {
	return WeatherAlert{
		Event:       orDefault(event, "Unknown Alert"),
		Severity:    orDefault(severity, "Unknown"),
		Urgency:     orDefault(urgency, "Unknown"),
		Headline:    headline,
		Description: truncate(description, maxDescriptionLen),
		Instruction: truncate(instruction, maxInstructionLen),
	}
}

// WeatherConditions is the first forecast period, treated as current.
type WeatherConditions struct {
	Temperature     int    `json:"temperature"`
	TemperatureUnit string `json:"temperature_unit,omitempty"`
	Conditions      string `json:"conditions"`
	Wind            string `json:"wind"`
}

// SafetyReport combines every signal for one resolved location.
type SafetyReport struct {
	Location    ResolvedLocation   `json:"resolved_location"`
	Alerts      []WeatherAlert     `json:"alerts"`
	Weather     *WeatherConditions `json:"weather"`
	Crime       CrimeAssessment    `json:"crime"`
	AlertCount  int                `json:"alert_count"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// NewSafetyReport composes a report. A nil alert slice becomes empty so the
// count and the serialized form always agree.
func NewSafetyReport(loc ResolvedLocation, alerts []WeatherAlert, weather *WeatherConditions, crime CrimeAssessment) SafetyReport {
	if alerts == nil {
		alerts = []WeatherAlert{}
	}
	return SafetyReport{
		Location:    loc,
		Alerts:      alerts,
		Weather:     weather,
		Crime:       crime,
		AlertCount:  len(alerts),
		GeneratedAt: clock.Now().UTC(),
	}
}

// NotificationPreference holds the contact points saved for a session.
// Either field may be empty.
type NotificationPreference struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// NotificationResult reports which channels accepted a message.
type NotificationResult struct {
	EmailSent bool `json:"email_sent"`
	SMSSent   bool `json:"sms_sent"`
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
