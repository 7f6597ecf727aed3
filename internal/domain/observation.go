package domain

import (
	"fmt"
	"strings"
	"time"
)

// Season is one of the two seasons summarized for every location.
type Season int

const (
	Winter Season = iota
	Summer
)

func (s Season) String() string {
	switch s {
	case Winter:
		return "winter"
	case Summer:
		return "summer"
	default:
		return fmt.Sprintf("season(%d)", int(s))
	}
}

// ParseSeason parses "winter" or "summer".
func ParseSeason(s string) (Season, error) {
	switch strings.ToLower(s) {
	case "winter":
		return Winter, nil
	case "summer":
		return Summer, nil
	default:
		return 0, fmt.Errorf("unknown season %q", s)
	}
}

// MarshalText encodes the season by name.
func (s Season) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a season name.
func (s *Season) UnmarshalText(b []byte) error {
	v, err := ParseSeason(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Months returns the calendar months of the season, all within the same
// calendar year.
func (s Season) Months() []time.Month {
	if s == Summer {
		return []time.Month{time.June, time.July, time.August}
	}
	return []time.Month{time.December, time.January, time.February}
}

func seasonOf(m time.Month) (Season, bool) {
	switch m {
	case time.December, time.January, time.February:
		return Winter, true
	case time.June, time.July, time.August:
		return Summer, true
	default:
		return 0, false
	}
}

// daysIn returns the calendar length of month in year.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// completeMonth reports whether got days make a complete month. February is
// complete with 28 or 29 days in any year.
func completeMonth(year int, month time.Month, got int) bool {
	if month == time.February {
		return got == 28 || got == 29
	}
	return got == daysIn(year, month)
}

// expectedDays describes the accepted day count of a month for error messages.
func expectedDays(month time.Month, year int) string {
	if month == time.February {
		return "28 or 29"
	}
	return fmt.Sprintf("%d", daysIn(year, month))
}

// DailyObservation is one day of archived weather in the units delivered by
// the archive service. A nil metric is a sensor gap.
type DailyObservation struct {
	Date time.Time

	TemperatureMax          *float64 // °C
	TemperatureMin          *float64
	TemperatureMean         *float64
	ApparentTemperatureMax  *float64
	ApparentTemperatureMin  *float64
	ApparentTemperatureMean *float64
	WindSpeedMax            *float64 // km/h
	DaylightDuration        *float64 // seconds
	SunshineDuration        *float64 // seconds
	RainSum                 *float64 // mm
	SnowfallSum             *float64 // cm
	PrecipitationHours      *float64
	Evapotranspiration      *float64 // mm
}

// MissingMetric returns the archive name of the first absent metric, or ""
// when the record is complete.
func (o DailyObservation) MissingMetric() string {
	fields := []struct {
		name  string
		value *float64
	}{
		{"temperature_2m_max", o.TemperatureMax},
		{"temperature_2m_min", o.TemperatureMin},
		{"temperature_2m_mean", o.TemperatureMean},
		{"apparent_temperature_max", o.ApparentTemperatureMax},
		{"apparent_temperature_min", o.ApparentTemperatureMin},
		{"apparent_temperature_mean", o.ApparentTemperatureMean},
		{"wind_speed_10m_max", o.WindSpeedMax},
		{"daylight_duration", o.DaylightDuration},
		{"sunshine_duration", o.SunshineDuration},
		{"rain_sum", o.RainSum},
		{"snowfall_sum", o.SnowfallSum},
		{"precipitation_hours", o.PrecipitationHours},
		{"et0_fao_evapotranspiration", o.Evapotranspiration},
	}
	for _, f := range fields {
		if f.value == nil {
			return f.name
		}
	}
	return ""
}

// DailyMetrics lists the archive variables requested for every location.
var DailyMetrics = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"temperature_2m_mean",
	"apparent_temperature_max",
	"apparent_temperature_min",
	"apparent_temperature_mean",
	"daylight_duration",
	"sunshine_duration",
	"wind_speed_10m_max",
	"rain_sum",
	"snowfall_sum",
	"precipitation_hours",
	"et0_fao_evapotranspiration",
}

// SeasonalSummary folds every qualifying day of one season across years.
// Durations are in hours and snowfall in millimeters. Rainfall, Snowfall and
// Evapotranspiration are mean seasonal totals; the rest are daily means.
type SeasonalSummary struct {
	Season Season `json:"season"`
	Years  int    `json:"years"`
	Days   int    `json:"days"`

	TemperatureMax          float64 `json:"temperature_max"`
	TemperatureMin          float64 `json:"temperature_min"`
	TemperatureMean         float64 `json:"temperature_mean"`
	ApparentTemperatureMax  float64 `json:"apparent_temperature_max"`
	ApparentTemperatureMin  float64 `json:"apparent_temperature_min"`
	ApparentTemperatureMean float64 `json:"apparent_temperature_mean"`
	WindSpeedMax            float64 `json:"wind_speed_max"`
	DaylightHours           float64 `json:"daylight_hours"`
	SunshineHours           float64 `json:"sunshine_hours"`
	Rainfall                float64 `json:"rainfall"`
	Snowfall                float64 `json:"snowfall"`
	PrecipitationHours      float64 `json:"precipitation_hours"`
	Evapotranspiration      float64 `json:"evapotranspiration"`
}

// Metric returns the named field, using the JSON field names.
func (s SeasonalSummary) Metric(name string) (float64, error) {
	switch name {
	case "temperature_max":
		return s.TemperatureMax, nil
	case "temperature_min":
		return s.TemperatureMin, nil
	case "temperature_mean":
		return s.TemperatureMean, nil
	case "apparent_temperature_max":
		return s.ApparentTemperatureMax, nil
	case "apparent_temperature_min":
		return s.ApparentTemperatureMin, nil
	case "apparent_temperature_mean":
		return s.ApparentTemperatureMean, nil
	case "wind_speed_max":
		return s.WindSpeedMax, nil
	case "daylight_hours":
		return s.DaylightHours, nil
	case "sunshine_hours":
		return s.SunshineHours, nil
	case "rainfall":
		return s.Rainfall, nil
	case "snowfall":
		return s.Snowfall, nil
	case "precipitation_hours":
		return s.PrecipitationHours, nil
	case "evapotranspiration":
		return s.Evapotranspiration, nil
	default:
		return 0, fmt.Errorf("unknown seasonal metric %q", name)
	}
}
