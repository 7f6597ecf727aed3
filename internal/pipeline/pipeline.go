// Package pipeline orchestrates the two runs of the atlas: per-department map
// generation and the side-by-side comparison of named cities.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/domain"
	"github.com/couchcryptid/climate-atlas/internal/observability"
)

// WeatherSource returns the archived daily series of a location.
type WeatherSource interface {
	DailyWeather(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.DailyObservation, error)
}

// AirQualitySource returns the hourly air-quality indices of a location.
type AirQualitySource interface {
	HourlyAirQuality(ctx context.Context, lat, lon float64, start, end time.Time) (domain.HourlyAirQuality, error)
}

// RegistrySource returns the rows of an incident registry.
type RegistrySource interface {
	Rows(ctx context.Context, dataset domain.RegistryDataset) (domain.Rows, error)
}

// Publisher receives the generated maps.
type Publisher interface {
	Publish(ctx context.Context, maps []domain.MapResult) error
}

// Sources gathers the external services a run reads from.
type Sources struct {
	Geocoder   domain.Geocoder
	Communes   domain.MunicipalityLister
	Weather    WeatherSource
	AirQuality AirQualitySource
	Registries RegistrySource
}

// countingResolver records the outcome of every resolution.
type countingResolver struct {
	next    domain.PlaceResolver
	metrics *observability.Metrics
}

func (r countingResolver) Resolve(ctx context.Context, query string, expected domain.Region) (domain.Place, error) {
	p, err := r.next.Resolve(ctx, query, expected)
	r.metrics.Resolutions.WithLabelValues(resolutionOutcome(err)).Inc()
	return p, err
}

func resolutionOutcome(err error) string {
	if err == nil {
		return "resolved"
	}
	var cre *domain.CityResolutionError
	if !errors.As(err, &cre) {
		return "error"
	}
	switch cre.Kind {
	case domain.NoResultAfterFilter:
		return "no_result_after_filter"
	case domain.Ambiguous:
		return "ambiguous"
	default:
		return "no_result"
	}
}
