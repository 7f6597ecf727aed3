package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownRegion is returned by region lookups for codes outside the closed region set.
var ErrUnknownRegion = errors.New("unknown region")

// ErrMissingRegionValue is returned when a known region has no value in a RegionTable.
var ErrMissingRegionValue = errors.New("no value for region")

// ExternalServiceError reports a non-2xx response that is not a rate limit.
type ExternalServiceError struct {
	Endpoint   string
	StatusCode int
	Reason     string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service error: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Reason)
}

// ResolutionFailure classifies why a place name could not be resolved.
type ResolutionFailure int

const (
	// NoResult means the geocoding service returned no candidate at all.
	NoResult ResolutionFailure = iota
	// NoResultAfterFilter means candidates existed but none survived filtering.
	NoResultAfterFilter
	// Ambiguous means several candidates survived every narrowing step.
	Ambiguous
)

// CityResolutionError reports a place name that did not resolve to exactly one place.
type CityResolutionError struct {
	Query string
	Kind  ResolutionFailure
	Count int // surviving candidates, set for Ambiguous
}

func (e *CityResolutionError) Error() string {
	switch e.Kind {
	case NoResultAfterFilter:
		return fmt.Sprintf("no result found for '%s' after filter", e.Query)
	case Ambiguous:
		return fmt.Sprintf("%d results were found for '%s', don't know which one to pick", e.Count, e.Query)
	default:
		return fmt.Sprintf("no result found for '%s'", e.Query)
	}
}

// IsNoResult reports whether the failure means "nothing matched" as opposed to
// "too many things matched". Sampling skips the former and aborts on the latter.
func (e *CityResolutionError) IsNoResult() bool {
	return e.Kind == NoResult || e.Kind == NoResultAfterFilter
}

// DataCompletenessError reports a month whose day count does not match the calendar.
type DataCompletenessError struct {
	Season Season
	Year   int
	Month  time.Month // zero when the whole season is empty
	Got    int
	Want   string
}

func (e *DataCompletenessError) Error() string {
	if e.Month == 0 {
		return fmt.Sprintf("no qualifying weather measurements for %s", e.Season)
	}
	return fmt.Sprintf("missing weather measurements for %s %d, got only %d measures instead of %s",
		monthName(e.Month), e.Year, e.Got, e.Want)
}

// MalformedDatasetError reports a registry row with an unexpected shape or value.
type MalformedDatasetError struct {
	Dataset string
	Row     int
	Reason  string
}

func (e *MalformedDatasetError) Error() string {
	return fmt.Sprintf("malformed %s dataset at row %d: %s", e.Dataset, e.Row, e.Reason)
}

func monthName(m time.Month) string {
	switch m {
	case time.December:
		return "december"
	case time.January:
		return "january"
	case time.February:
		return "february"
	case time.June:
		return "june"
	case time.July:
		return "july"
	case time.August:
		return "august"
	default:
		return m.String()
	}
}
