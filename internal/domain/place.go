package domain

import "context"

// Place is a canonical populated place selected by the Resolver.
type Place struct {
	Name       string     `json:"name"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Elevation  int        `json:"elevation"` // meters
	Population *int       `json:"population,omitempty"`
	Department RegionCode `json:"department"`

	// DepartmentName is the department as reported by the geocoder. It is set
	// even when the name does not map to a known region code.
	DepartmentName string `json:"department_name"`
}

// Municipality is a commune as listed by the administrative registry.
type Municipality struct {
	Name       string `json:"nom"`
	Code       string `json:"code"`
	Population *int   `json:"population,omitempty"`
}

// PopulationOrZero returns the registry population, treating an absent figure as zero.
func (m Municipality) PopulationOrZero() int {
	if m.Population == nil {
		return 0
	}
	return *m.Population
}

// GeocodingCandidate is one raw result of a geocoding search.
type GeocodingCandidate struct {
	Name        string   `json:"name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Elevation   *float64 `json:"elevation,omitempty"`
	Population  *int     `json:"population,omitempty"`
	FeatureCode string   `json:"feature_code"`
	CountryCode string   `json:"country_code"`
	Country     string   `json:"country"`
	Admin2      string   `json:"admin2"`
	Admin4      string   `json:"admin4"`
}

// Geocoder searches places by name.
type Geocoder interface {
	// Search returns up to count candidates for name. An empty slice with a
	// nil error means the service found nothing.
	Search(ctx context.Context, name string, count int) ([]GeocodingCandidate, error)
}

// MunicipalityLister lists the communes of a department.
type MunicipalityLister interface {
	Communes(ctx context.Context, code RegionCode) ([]Municipality, error)
}
