// Command validate checks an Open-Meteo archive response file, phase by
// phase: decoding, series completeness, strict and lenient aggregation, and
// the plausibility of the resulting seasonal summaries. An optional hourly
// air-quality response is summarized too.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -archive data/mock/archive_grenoble.json \
//	  -air-quality data/mock/air_quality_grenoble.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/adapter/openmeteo"
	"github.com/couchcryptid/climate-atlas/internal/adapter/render"
	"github.com/couchcryptid/climate-atlas/internal/domain"
)

// maxListed caps the per-phase error listing.
const maxListed = 10

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	archivePath := flag.String("archive", "", "path to a daily archive response")
	aqPath := flag.String("air-quality", "", "optional path to an hourly air-quality response")
	flag.Parse()

	if *archivePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *archivePath, *aqPath))
}

func run(out io.Writer, archivePath, aqPath string) int {
	fmt.Fprintln(out, "=== Climate Data Validation ===")
	fmt.Fprintln(out)

	body, err := os.ReadFile(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read archive: %v\n", err)
		return 1
	}

	decode := &phase{name: "Decode archive response"}
	series, err := openmeteo.DecodeDaily(body)
	if err != nil {
		decode.errorf("%v", err)
	}

	phases := []*phase{decode}
	var tables []domain.Table
	if decode.passed() {
		strict, winter, summer := validateStrict(series)
		lenient, lw, ls := validateLenient(series)
		phases = append(phases, validateCompleteness(series), strict, lenient)
		if !strict.passed() {
			winter, summer = lw, ls
		}
		if winter != nil && summer != nil {
			phases = append(phases, validateSummaries(*winter, *summer))
			tables = append(tables, summaryTable(*winter, *summer))
		}
	}

	if aqPath != "" {
		p, table := validateAirQuality(aqPath)
		phases = append(phases, p)
		if table != nil {
			tables = append(tables, *table)
		}
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

	if len(series) > 0 {
		fmt.Fprintf(out, "\nDays: %d (%s to %s)\n", len(series),
			series[0].Date.Format(time.DateOnly), series[len(series)-1].Date.Format(time.DateOnly))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxListed {
				fmt.Fprintf(out, "  ... %d more\n", len(p.errors)-maxListed)
				break
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if len(tables) > 0 {
		fmt.Fprintln(out)
		if err := render.WriteTables(out, tables); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: write tables: %v\n", err)
			return 1
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// validateCompleteness lists every day with a missing metric and every
// calendar day absent from the series.
func validateCompleteness(series []domain.DailyObservation) *phase {
	p := &phase{name: "Series completeness"}
	for i, o := range series {
		if m := o.MissingMetric(); m != "" {
			p.errorf("%s: missing %s", o.Date.Format(time.DateOnly), m)
		}
		if i > 0 {
			if want := series[i-1].Date.AddDate(0, 0, 1); !o.Date.Equal(want) {
				p.errorf("%s: follows %s, days in between are absent",
					o.Date.Format(time.DateOnly), series[i-1].Date.Format(time.DateOnly))
			}
		}
	}
	return p
}

func validateStrict(series []domain.DailyObservation) (*phase, *domain.SeasonalSummary, *domain.SeasonalSummary) {
	p := &phase{name: "Strict aggregation"}
	winter, summer, err := domain.NewAggregator(domain.Strict, quietLogger()).Aggregate(series)
	if err != nil {
		var incomplete *domain.DataCompletenessError
		if errors.As(err, &incomplete) {
			p.errorf("%s", incomplete.Error())
		} else {
			p.errorf("%v", err)
		}
		return p, nil, nil
	}
	return p, &winter, &summer
}

func validateLenient(series []domain.DailyObservation) (*phase, *domain.SeasonalSummary, *domain.SeasonalSummary) {
	p := &phase{name: "Lenient aggregation"}
	agg := domain.NewAggregator(domain.Lenient, quietLogger())
	dropped := 0
	agg.OnDrop = func(time.Time, string) { dropped++ }
	winter, summer, err := agg.Aggregate(series)
	if err != nil {
		p.errorf("%v", err)
		return p, nil, nil
	}
	if dropped > 0 {
		fmt.Fprintf(os.Stderr, "lenient aggregation dropped %d days\n", dropped)
	}
	return p, &winter, &summer
}

// validateSummaries checks physical plausibility of both seasons.
func validateSummaries(winter, summer domain.SeasonalSummary) *phase {
	p := &phase{name: "Seasonal summaries"}
	for _, s := range []domain.SeasonalSummary{winter, summer} {
		if s.TemperatureMin > s.TemperatureMean || s.TemperatureMean > s.TemperatureMax {
			p.errorf("%s: temperatures out of order: min %.2f mean %.2f max %.2f",
				s.Season, s.TemperatureMin, s.TemperatureMean, s.TemperatureMax)
		}
		if s.DaylightHours < 0 || s.DaylightHours > 24 {
			p.errorf("%s: daylight %.2f h outside a day", s.Season, s.DaylightHours)
		}
		if s.SunshineHours > s.DaylightHours {
			p.errorf("%s: sunshine %.2f h exceeds daylight %.2f h", s.Season, s.SunshineHours, s.DaylightHours)
		}
		if s.Rainfall < 0 || s.Snowfall < 0 || s.Evapotranspiration < 0 {
			p.errorf("%s: negative cumulative total", s.Season)
		}
	}
	if winter.DaylightHours > summer.DaylightHours {
		p.errorf("winter days (%.2f h) longer than summer days (%.2f h)", winter.DaylightHours, summer.DaylightHours)
	}
	return p
}

func summaryTable(winter, summer domain.SeasonalSummary) domain.Table {
	t := domain.Table{Title: "Seasonal summaries", Columns: []string{"metric", "winter", "summer"}}
	for _, metric := range []string{
		"temperature_mean", "temperature_min", "temperature_max",
		"rainfall", "snowfall", "wind_speed_max",
		"sunshine_hours", "daylight_hours", "precipitation_hours", "evapotranspiration",
	} {
		w, _ := winter.Metric(metric)
		s, _ := summer.Metric(metric)
		t.AddRow(metric, strconv.FormatFloat(w, 'f', 2, 64), strconv.FormatFloat(s, 'f', 2, 64))
	}
	t.AddRow("years", strconv.Itoa(winter.Years), strconv.Itoa(summer.Years))
	return t
}

func validateAirQuality(path string) (*phase, *domain.Table) {
	p := &phase{name: "Air quality summary"}
	body, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read: %v", err)
		return p, nil
	}
	hourly, err := openmeteo.DecodeHourly(body)
	if err != nil {
		p.errorf("%v", err)
		return p, nil
	}
	summary, err := domain.SummarizeAirQuality(hourly)
	if err != nil {
		p.errorf("%v", err)
		return p, nil
	}

	t := domain.Table{Title: "Air quality", Columns: []string{"index", "min", "mean", "max"}}
	for _, index := range domain.AirQualityIndices {
		s := summary[index]
		if s.Min < 0 {
			p.errorf("%s: negative minimum %.1f", index, s.Min)
		}
		t.AddRow(index,
			strconv.FormatFloat(s.Min, 'f', 1, 64),
			strconv.FormatFloat(s.Mean, 'f', 1, 64),
			strconv.FormatFloat(s.Max, 'f', 1, 64))
	}
	return p, &t
}
