package domain

import (
	"fmt"
	"strings"
	"time"
)

// MapSpec describes one choropleth map: the region metric it shows and its
// ordered categories.
type MapSpec struct {
	ID         string     `toml:"id"`
	Title      string     `toml:"title"`
	Metric     string     `toml:"metric"`
	Categories []Category `toml:"categories"`
}

// RegionMetrics gathers every per-region aggregate a map can be drawn from.
type RegionMetrics struct {
	Winter     *RegionTable[SeasonalSummary]
	Summer     *RegionTable[SeasonalSummary]
	AirQuality *RegionTable[AirQualitySummary]
	Registry   map[string]*RegionTable[int]
}

// MapResult is a classified map ready for rendering.
type MapResult struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Metric         string                 `json:"metric"`
	Categories     []Category             `json:"categories"`
	Values         map[RegionCode]float64 `json:"values"`
	Classification Classification         `json:"classification"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// Values extracts the region table selected by a metric key:
//
//	winter.<field>, summer.<field>        seasonal summary field
//	summer.<field>/<field>                ratio of two fields of a season
//	air_quality.<index>.<min|max|mean>    air-quality statistic
//	registry.<dataset>                    registry incident count
//
// Regions without a value in the source are left out.
func (m RegionMetrics) Values(key string) (*RegionTable[float64], error) {
	source, rest, ok := strings.Cut(key, ".")
	if !ok {
		return nil, fmt.Errorf("metric %q: missing source prefix", key)
	}

	switch source {
	case "winter", "summer":
		table := m.Winter
		if source == "summer" {
			table = m.Summer
		}
		if table == nil {
			return nil, fmt.Errorf("metric %q: no %s summaries", key, source)
		}
		num, den, isRatio := strings.Cut(rest, "/")
		return mapTable(table, func(s SeasonalSummary) (float64, error) {
			v, err := s.Metric(num)
			if err != nil || !isRatio {
				return v, err
			}
			d, err := s.Metric(den)
			if err != nil {
				return 0, err
			}
			if d == 0 {
				return 0, fmt.Errorf("metric %q: zero %s", key, den)
			}
			return v / d, nil
		})

	case "air_quality":
		if m.AirQuality == nil {
			return nil, fmt.Errorf("metric %q: no air quality summaries", key)
		}
		index, stat, ok := strings.Cut(rest, ".")
		if !ok {
			return nil, fmt.Errorf("metric %q: want air_quality.<index>.<stat>", key)
		}
		return mapTable(m.AirQuality, func(s AirQualitySummary) (float64, error) {
			return s.Metric(index, stat)
		})

	case "registry":
		counts, ok := m.Registry[rest]
		if !ok {
			return nil, fmt.Errorf("metric %q: no %s counts", key, rest)
		}
		return mapTable(counts, func(n int) (float64, error) { return float64(n), nil })

	default:
		return nil, fmt.Errorf("metric %q: unknown source %q", key, source)
	}
}

func mapTable[T any](in *RegionTable[T], fn func(T) (float64, error)) (*RegionTable[float64], error) {
	out := NewRegionTable[float64]()
	var err error
	in.Range(func(code RegionCode, v T) bool {
		var f float64
		if f, err = fn(v); err != nil {
			err = fmt.Errorf("region %s: %w", code, err)
			return false
		}
		err = out.Set(code, f)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BuildMap classifies the metric of spec and stamps the result.
func BuildMap(spec MapSpec, metrics RegionMetrics) (MapResult, error) {
	values, err := metrics.Values(spec.Metric)
	if err != nil {
		return MapResult{}, fmt.Errorf("map %s: %w", spec.ID, err)
	}
	classification, err := Classify(values, spec.Categories)
	if err != nil {
		return MapResult{}, fmt.Errorf("map %s: %w", spec.ID, err)
	}
	return MapResult{
		ID:             spec.ID,
		Title:          spec.Title,
		Metric:         spec.Metric,
		Categories:     spec.Categories,
		Values:         values.Map(),
		Classification: classification,
		GeneratedAt:    clock.Now().UTC(),
	}, nil
}
