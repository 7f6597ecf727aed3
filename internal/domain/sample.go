package domain

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
)

// ElevationStep is how much the elevation ceiling grows on each sampling retry.
const ElevationStep = 10

// PlaceResolver resolves a place name inside a region. *Resolver implements it.
type PlaceResolver interface {
	Resolve(ctx context.Context, query string, expected Region) (Place, error)
}

// Sampler picks a balanced set of low-elevation places per region: half
// among the least populated communes, half among the most populated.
type Sampler struct {
	resolver PlaceResolver
	logger   *slog.Logger

	// OnRelax, if set, is called each time the elevation ceiling is raised.
	OnRelax func(region Region, maxElevation int)
}

// NewSampler creates a Sampler backed by resolver.
func NewSampler(resolver PlaceResolver, logger *slog.Logger) *Sampler {
	return &Sampler{resolver: resolver, logger: logger}
}

type resolution struct {
	place Place
	ok    bool
}

// Sample returns at most sampleSize distinct places of region whose elevation
// is below maxElevation. When fewer are found, the ceiling is raised by
// ElevationStep and sampling restarts, unless the region is the capital or has
// fewer communes than sampleSize. Raising stops once the ceiling is above
// every resolved elevation, since no further place could qualify.
func (s *Sampler) Sample(ctx context.Context, region Region, municipalities []Municipality, maxElevation, sampleSize int) ([]Place, error) {
	sorted := slices.Clone(municipalities)
	slices.SortStableFunc(sorted, func(a, b Municipality) int {
		return cmp.Compare(a.PopulationOrZero(), b.PopulationOrZero())
	})

	memo := make(map[string]resolution, len(sorted))
	highest := 0
	resolve := func(m Municipality) (Place, bool, error) {
		if r, ok := memo[m.Name]; ok {
			r.place.Population = m.Population
			return r.place, r.ok, nil
		}
		p, err := s.resolver.Resolve(ctx, m.Name, region)
		if err != nil {
			var cre *CityResolutionError
			if errors.As(err, &cre) && cre.IsNoResult() {
				s.logger.Debug("skipping unresolved commune", "region", region.Code, "commune", m.Name, "error", err)
				memo[m.Name] = resolution{}
				return Place{}, false, nil
			}
			return Place{}, false, err
		}
		p.Population = m.Population
		if p.Elevation > highest {
			highest = p.Elevation
		}
		memo[m.Name] = resolution{place: p, ok: true}
		return p, true, nil
	}

	for {
		picked, err := s.pick(sorted, maxElevation, sampleSize, resolve)
		if err != nil {
			return nil, err
		}
		if len(picked) >= sampleSize || region.Code == Capital || len(sorted) < sampleSize {
			return picked, nil
		}
		if maxElevation > highest {
			s.logger.Warn("not enough places below any elevation ceiling, keeping partial sample",
				"region", region.Code, "picked", len(picked), "sample_size", sampleSize)
			return picked, nil
		}

		maxElevation += ElevationStep
		s.logger.Warn("not enough places found, retrying with a higher elevation ceiling",
			"region", region.Code, "picked", len(picked), "max_elevation", maxElevation)
		if s.OnRelax != nil {
			s.OnRelax(region, maxElevation)
		}
	}
}

// pick runs one forward walk from the least populated commune and one
// backward walk from the most populated.
func (s *Sampler) pick(
	sorted []Municipality,
	maxElevation, sampleSize int,
	resolve func(Municipality) (Place, bool, error),
) ([]Place, error) {
	var picked []Place
	seen := make(map[string]bool)
	accept := func(m Municipality) error {
		p, ok, err := resolve(m)
		if err != nil || !ok || p.Elevation >= maxElevation {
			return err
		}
		// Places of one region are identified by name.
		if !seen[p.Name] {
			seen[p.Name] = true
			picked = append(picked, p)
		}
		return nil
	}

	half := sampleSize / 2
	stop := -1
	if half > 0 {
		stop = len(sorted) - 1
		for i, m := range sorted {
			if err := accept(m); err != nil {
				return nil, err
			}
			if len(picked) == half {
				stop = i
				break
			}
		}
	}

	for i := len(sorted) - 1; i > stop && len(picked) < sampleSize; i-- {
		if err := accept(sorted[i]); err != nil {
			return nil, err
		}
	}
	return picked, nil
}
