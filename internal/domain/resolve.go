package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Requirement is the attribute a candidate must carry to be considered.
type Requirement int

const (
	// RequireElevation keeps only candidates with an elevation. Used when
	// sampling, where the elevation ceiling must be checked.
	RequireElevation Requirement = iota
	// RequirePopulation keeps only candidates with a population figure. Used
	// when comparing named cities.
	RequirePopulation
)

// Default candidate counts requested from the geocoder.
const (
	SamplingSearchCount   = 20
	ComparisonSearchCount = 10
)

// Resolver turns a free-text place name into exactly one canonical Place.
type Resolver struct {
	geocoder    Geocoder
	count       int
	requirement Requirement
	logger      *slog.Logger
}

// NewResolver creates a Resolver asking the geocoder for count candidates per
// query and keeping only candidates that satisfy req.
func NewResolver(geocoder Geocoder, count int, req Requirement, logger *slog.Logger) *Resolver {
	if count <= 0 {
		count = SamplingSearchCount
	}
	return &Resolver{geocoder: geocoder, count: count, requirement: req, logger: logger}
}

// Resolve returns the single place named query inside expected. A zero
// expected region accepts any French place, overseas included.
func (r *Resolver) Resolve(ctx context.Context, query string, expected Region) (Place, error) {
	name := query
	var candidates []GeocodingCandidate
	for {
		found, err := r.geocoder.Search(ctx, name, r.count)
		if err != nil {
			return Place{}, fmt.Errorf("search %q: %w", name, err)
		}
		if len(found) > 0 {
			candidates = found
			break
		}
		head, _, ok := strings.Cut(name, "-")
		if !ok {
			return Place{}, &CityResolutionError{Query: name, Kind: NoResult}
		}
		r.logger.Debug("no geocoding result, retrying without suffix", "query", name, "retry", head)
		name = head
	}

	candidates = filterCandidates(candidates, expected, r.requirement)
	candidates = narrowCandidates(candidates, name)

	switch len(candidates) {
	case 0:
		return Place{}, &CityResolutionError{Query: name, Kind: NoResultAfterFilter}
	case 1:
		return toPlace(candidates[0], expected), nil
	default:
		return Place{}, &CityResolutionError{Query: name, Kind: Ambiguous, Count: len(candidates)}
	}
}

// filterCandidates keeps populated places inside the expected region that
// carry the required attribute.
func filterCandidates(candidates []GeocodingCandidate, expected Region, req Requirement) []GeocodingCandidate {
	var kept []GeocodingCandidate
	for _, c := range candidates {
		if !isPopulatedPlace(c) || !inRegion(c, expected) {
			continue
		}
		switch req {
		case RequireElevation:
			if c.Elevation == nil {
				continue
			}
		case RequirePopulation:
			if c.Population == nil {
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

func isPopulatedPlace(c GeocodingCandidate) bool {
	return strings.HasPrefix(c.FeatureCode, "PPL")
}

// inRegion matches overseas regions by country code and metropolitan regions
// by department name.
func inRegion(c GeocodingCandidate, expected Region) bool {
	if expected.Code == "" {
		return c.CountryCode == "FR" || regionForCountry(c.CountryCode) != nil
	}
	if expected.Code.Outlier() {
		return c.CountryCode == expected.CountryCode
	}
	return c.CountryCode == "FR" && c.Admin2 != "" && strings.EqualFold(c.Admin2, expected.Name)
}

func regionForCountry(countryCode string) *Region {
	for i := range regions {
		if regions[i].Code.Outlier() && regions[i].CountryCode == countryCode {
			return &regions[i]
		}
	}
	return nil
}

// narrowStep is one tie-breaking predicate. A step that would leave no
// candidate is skipped.
type narrowStep func(c GeocodingCandidate, query string) bool

var narrowSteps = []narrowStep{
	func(c GeocodingCandidate, query string) bool { return strings.EqualFold(c.Name, query) },
	func(c GeocodingCandidate, query string) bool {
		return c.Admin4 != "" && strings.EqualFold(c.Admin4, query)
	},
	func(c GeocodingCandidate, _ string) bool { return c.Population != nil },
}

func narrowCandidates(candidates []GeocodingCandidate, query string) []GeocodingCandidate {
	for _, step := range narrowSteps {
		if len(candidates) <= 1 {
			return candidates
		}
		candidates = applyStep(candidates, query, step)
	}
	return candidates
}

func applyStep(candidates []GeocodingCandidate, query string, step narrowStep) []GeocodingCandidate {
	var kept []GeocodingCandidate
	for _, c := range candidates {
		if step(c, query) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

func toPlace(c GeocodingCandidate, expected Region) Place {
	p := Place{
		Name:       c.Name,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Population: c.Population,
	}
	if c.Elevation != nil {
		p.Elevation = int(*c.Elevation)
	}

	switch {
	case expected.Code != "":
		p.Department = expected.Code
		p.DepartmentName = expected.Name
	case regionForCountry(c.CountryCode) != nil:
		reg := regionForCountry(c.CountryCode)
		p.Department = reg.Code
		p.DepartmentName = reg.Name
	default:
		p.DepartmentName = c.Admin2
		if reg, err := RegionByName(c.Admin2); err == nil {
			p.Department = reg.Code
		}
	}
	return p
}
