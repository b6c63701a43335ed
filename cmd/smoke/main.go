// Command smoke runs live checks against the upstream services a safety
// report depends on: ZIP lookup, free-text geocoding, NWS alerts and the NWS
// forecast chain. Base URLs and timeouts come from the same environment
// variables the server reads.
//
// Usage:
//
//	go run ./cmd/smoke -zip 90210 -place "Chicago, IL"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/adapter/nominatim"
	"github.com/couchcryptid/safety-check-service/internal/adapter/nws"
	"github.com/couchcryptid/safety-check-service/internal/adapter/upstream"
	"github.com/couchcryptid/safety-check-service/internal/adapter/zippopotam"
	"github.com/couchcryptid/safety-check-service/internal/config"
	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
	"github.com/couchcryptid/safety-check-service/internal/safety"
)

// phase tracks pass/fail for a smoke phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	zip := flag.String("zip", "90210", "ZIP code to resolve")
	place := flag.String("place", "Chicago, IL", "free-text place to geocode")
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline for all phases")
	flag.Parse()

	if *zip == "" || *place == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if code := run(ctx, cfg, *zip, *place, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

// targets bundles the real adapters under test.
type targets struct {
	zip     *zippopotam.Client
	places  *nominatim.Client
	weather *nws.Client
	reports *safety.Aggregator
}

func newTargets(cfg *config.Config) targets {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	zip := zippopotam.NewClient(upstream.NewClient(cfg.ZipTimeout, cfg.UserAgent, metrics), cfg.ZipBaseURL, cfg.GeocodeCountry, logger)
	places := nominatim.NewClient(upstream.NewClient(cfg.GeocodeTimeout, cfg.UserAgent, metrics), cfg.NominatimBaseURL, cfg.GeocodeCountry, logger)
	weather := nws.NewClient(upstream.NewClient(cfg.WeatherTimeout, cfg.UserAgent, metrics), cfg.NWSBaseURL, logger)

	return targets{
		zip:     zip,
		places:  places,
		weather: weather,
		reports: safety.NewAggregator(safety.NewResolver(zip, places, logger), weather, nil, logger, metrics),
	}
}

func run(ctx context.Context, cfg *config.Config, zip, place string, out io.Writer) int {
	fmt.Fprintln(out, "=== Upstream Smoke Checks ===")
	fmt.Fprintln(out)

	t := newTargets(cfg)

	zipPhase, loc := checkZIP(ctx, t, zip)
	phases := []*phase{
		zipPhase,
		checkGeocode(ctx, t, place),
		checkAlerts(ctx, t, loc),
		checkConditions(ctx, t, loc),
		checkReport(ctx, t, place),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll smoke checks passed.")
		return 0
	}
	fmt.Fprintln(out, "\nSmoke checks FAILED.")
	return 1
}

// checkZIP returns the resolved coordinates so the weather phases can reuse
// them; a failed lookup falls back to a fixed point in Kansas.
func checkZIP(ctx context.Context, t targets, zip string) (*phase, domain.ResolvedLocation) {
	p := &phase{name: "Phase 1: ZIP lookup (" + zip + ")"}
	fallback := domain.ResolvedLocation{Lat: 39.0997, Lon: -94.5786, City: "Kansas City", State: "MO"}

	if !domain.IsZIPCode(zip) {
		p.errorf("%q is not a five-digit ZIP code", zip)
		return p, fallback
	}
	res, err := t.zip.LookupZIP(ctx, zip)
	if err != nil {
		p.errorf("lookup: %v", err)
		return p, fallback
	}
	checkCoordinates(p, res.Lat, res.Lon)
	if res.City == "" {
		p.errorf("city is empty")
	}
	if len(res.State) != 2 {
		p.errorf("state %q is not a two-letter code", res.State)
	}
	return p, domain.ResolvedLocation{Lat: res.Lat, Lon: res.Lon, City: res.City, State: res.State}
}

func checkGeocode(ctx context.Context, t targets, place string) *phase {
	p := &phase{name: "Phase 2: Free-text geocode"}

	res, err := t.places.Search(ctx, place)
	if err != nil {
		p.errorf("search %q: %v", place, err)
		return p
	}
	checkCoordinates(p, res.Lat, res.Lon)
	if res.DisplayName == "" {
		p.errorf("display_name is empty")
	}
	city, state := domain.ParseDisplayName(res.DisplayName)
	if city == "" || state == "" {
		p.errorf("display name %q did not parse to city/state", res.DisplayName)
	}
	return p
}

func checkAlerts(ctx context.Context, t targets, loc domain.ResolvedLocation) *phase {
	p := &phase{name: "Phase 3: NWS active alerts"}

	alerts, err := t.weather.Alerts(ctx, loc.Lat, loc.Lon)
	if err != nil {
		p.errorf("alerts at %.4f,%.4f: %v", loc.Lat, loc.Lon, err)
		return p
	}
	for i, a := range alerts {
		if a.Event == "" {
			p.errorf("alert %d: event is empty", i)
		}
	}
	return p
}

func checkConditions(ctx context.Context, t targets, loc domain.ResolvedLocation) *phase {
	p := &phase{name: "Phase 4: NWS forecast chain"}

	cond, err := t.weather.Conditions(ctx, loc.Lat, loc.Lon)
	if err != nil {
		p.errorf("conditions at %.4f,%.4f: %v", loc.Lat, loc.Lon, err)
		return p
	}
	if cond == nil {
		p.errorf("no forecast periods returned")
		return p
	}
	if cond.TemperatureUnit == "" {
		p.errorf("temperature unit is empty")
	}
	return p
}

func checkReport(ctx context.Context, t targets, place string) *phase {
	p := &phase{name: "Phase 5: Full safety report"}

	report, err := t.reports.BuildReport(ctx, place)
	if err != nil {
		p.errorf("build report %q: %v", place, err)
		return p
	}
	if report.AlertCount != len(report.Alerts) {
		p.errorf("alert_count %d does not match %d alerts", report.AlertCount, len(report.Alerts))
	}
	if !report.Crime.Available {
		p.errorf("crime assessment unavailable")
	}
	if report.Weather == nil {
		p.errorf("weather conditions missing")
	}
	return p
}

func checkCoordinates(p *phase, lat, lon float64) {
	if lat == 0 && lon == 0 {
		p.errorf("coordinates are both zero")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		p.errorf("coordinates %.4f,%.4f out of range", lat, lon)
	}
}
