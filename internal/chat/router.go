// Package chat answers free-text chat messages. Messages are classified by
// keyword with a fixed precedence; anything unmatched is looked up as a
// location.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
)

// Intent is the classification of a chat message.
type Intent string

const (
	IntentGreeting     Intent = "greeting"
	IntentHelp         Intent = "help"
	IntentNotification Intent = "notification"
	IntentLocation     Intent = "location"
)

const maxInlineAlerts = 2

const (
	greetingReply = "Hello! I can:\n" +
		"• Check weather alerts & disasters\n" +
		"• Provide crime safety info\n" +
		"• Send email/SMS alerts\n\n" +
		"Just give me a ZIP code, city, or address!"

	helpReply = "I help you stay safe! Enter a location to check for:\n" +
		"• Weather alerts\n" +
		"• Crime data\n" +
		"• Current conditions\n\n" +
		"Try \"90210\", \"Chicago, IL\" or \"1600 Pennsylvania Ave, Washington DC\".\n" +
		"You can also enable notifications to get alerts automatically!"

	notificationReply = "I can send you alerts via email and SMS! " +
		"Use the 'Enable Notifications' section to set it up."

	notFoundReply = "I couldn't find that location. Please try a 5-digit ZIP code or a city and state."

	tooLongReply = "That message is too long to look up. Send just a ZIP code or a city and state."

	tipLine = "Tip: Enable notifications to get alerts automatically!"
)

var (
	greetingWords = wordSet("hi", "hello", "hey", "greetings", "howdy")
	helpWords     = wordSet("help", "info", "what", "how")
	notifyWords   = wordSet("email", "sms")
	notifyStems   = []string{"notif", "alert"}
)

// ReportBuilder builds a safety report for a location query.
type ReportBuilder interface {
	BuildReport(ctx context.Context, query string) (domain.SafetyReport, error)
}

// Reply is the router's answer. Report is set only when a location lookup
// succeeded.
type Reply struct {
	Text   string
	Intent Intent
	Query  string
	Report *domain.SafetyReport
}

// Router classifies chat messages and renders replies.
type Router struct {
	reports ReportBuilder
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRouter creates a Router backed by a report builder.
func NewRouter(reports ReportBuilder, logger *slog.Logger, metrics *observability.Metrics) *Router {
	return &Router{
		reports: reports,
		logger:  logger,
		metrics: metrics,
	}
}

// Classify returns the intent of message. The first matching rule wins:
// greeting, help, notification, then location. Keywords match whole words,
// so "Chicago" is not a greeting. Matching is case-insensitive, so a state
// code that is also a keyword still wins: "Honolulu, HI" is a greeting.
func Classify(message string) Intent {
	words := tokenize(message)
	switch {
	case containsAny(words, greetingWords):
		return IntentGreeting
	case containsAny(words, helpWords):
		return IntentHelp
	case containsAny(words, notifyWords) || hasStem(words, notifyStems):
		return IntentNotification
	default:
		return IntentLocation
	}
}

// Route answers message. It returns domain.ErrInvalidInput only for an empty
// message; lookup failures produce a fallback reply.
func (r *Router) Route(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, domain.ErrInvalidInput
	}

	intent := Classify(message)
	r.count(intent)

	switch intent {
	case IntentGreeting:
		return Reply{Text: greetingReply, Intent: intent}, nil
	case IntentHelp:
		return Reply{Text: helpReply, Intent: intent}, nil
	case IntentNotification:
		return Reply{Text: notificationReply, Intent: intent}, nil
	}

	reply := Reply{Intent: IntentLocation, Query: message}
	report, err := r.reports.BuildReport(ctx, message)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		reply.Text = tooLongReply
	case err != nil:
		r.logger.Debug("chat location not resolved", "query", message, "error", err)
		reply.Text = notFoundReply
	default:
		reply.Report = &report
		reply.Text = RenderReport(message, report)
	}
	return reply, nil
}

// RenderReport formats a report as a chat reply.
func RenderReport(query string, report domain.SafetyReport) string {
	var b strings.Builder

	label := report.Location.Label()
	if domain.IsZIPCode(query) {
		fmt.Fprintf(&b, "SAFETY REPORT FOR %s (%s)\n\n", label, query)
	} else {
		fmt.Fprintf(&b, "SAFETY REPORT FOR %s\n\n", label)
	}

	if len(report.Alerts) > 0 {
		b.WriteString("ACTIVE WEATHER ALERTS:\n")
		for _, a := range report.Alerts[:min(len(report.Alerts), maxInlineAlerts)] {
			fmt.Fprintf(&b, "%s (Severity: %s)\n", a.Event, a.Severity)
			fmt.Fprintf(&b, "%s\n\n", a.Headline)
		}
		if extra := len(report.Alerts) - maxInlineAlerts; extra > 0 {
			fmt.Fprintf(&b, "...and %d more alerts.\n\n", extra)
		}
	} else {
		b.WriteString("No active weather alerts.\n\n")
	}

	if report.Crime.Available {
		fmt.Fprintf(&b, "CRIME SAFETY:\n%s\nRisk Level: %s\n\n", report.Crime.Summary, report.Crime.RiskLevel)
	}

	if w := report.Weather; w != nil {
		unit := w.TemperatureUnit
		if unit == "" {
			unit = "F"
		}
		fmt.Fprintf(&b, "CURRENT CONDITIONS:\n%d°%s, %s, Wind: %s\n\n", w.Temperature, unit, w.Conditions, w.Wind)
	}

	b.WriteString(tipLine)
	return b.String()
}

func (r *Router) count(intent Intent) {
	if r.metrics == nil {
		return
	}
	r.metrics.ChatIntents.WithLabelValues(string(intent)).Inc()
}

func tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func containsAny(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func hasStem(words, stems []string) bool {
	for _, w := range words {
		for _, s := range stems {
			if strings.HasPrefix(w, s) {
				return true
			}
		}
	}
	return false
}
