package domain

import (
	"fmt"
	"math"
)

// AirQualityIndices lists the hourly European AQI variables requested for
// every location, in report order.
var AirQualityIndices = []string{
	"european_aqi",
	"european_aqi_pm2_5",
	"european_aqi_pm10",
	"european_aqi_nitrogen_dioxide",
	"european_aqi_ozone",
	"european_aqi_sulphur_dioxide",
}

// HourlyAirQuality holds one hourly series per index. A nil slot is a gap.
type HourlyAirQuality map[string][]*float64

// IndexSummary is the spread of one index over a period.
type IndexSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// AirQualitySummary maps every index of AirQualityIndices to its summary.
type AirQualitySummary map[string]IndexSummary

// SummarizeAirQuality computes min, max and mean of every index, ignoring
// gaps. An index without a single value is an error.
func SummarizeAirQuality(hourly HourlyAirQuality) (AirQualitySummary, error) {
	out := make(AirQualitySummary, len(AirQualityIndices))
	for _, index := range AirQualityIndices {
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		n := 0
		for _, v := range hourly[index] {
			if v == nil {
				continue
			}
			lo = math.Min(lo, *v)
			hi = math.Max(hi, *v)
			sum += *v
			n++
		}
		if n == 0 {
			return nil, fmt.Errorf("air quality: no value for %s", index)
		}
		out[index] = IndexSummary{Min: lo, Max: hi, Mean: sum / float64(n)}
	}
	return out, nil
}

// AverageAirQuality returns the per-index mean of each statistic across
// summaries.
func AverageAirQuality(summaries []AirQualitySummary) (AirQualitySummary, error) {
	if len(summaries) == 0 {
		return nil, fmt.Errorf("average air quality: no summary to average")
	}
	out := make(AirQualitySummary, len(AirQualityIndices))
	for _, index := range AirQualityIndices {
		var acc IndexSummary
		for _, s := range summaries {
			v, ok := s[index]
			if !ok {
				return nil, fmt.Errorf("average air quality: summary without %s", index)
			}
			acc.Min += v.Min
			acc.Max += v.Max
			acc.Mean += v.Mean
		}
		n := float64(len(summaries))
		out[index] = IndexSummary{Min: acc.Min / n, Max: acc.Max / n, Mean: acc.Mean / n}
	}
	return out, nil
}

// Metric returns a statistic of an index, for example ("european_aqi", "max").
func (s AirQualitySummary) Metric(index, stat string) (float64, error) {
	v, ok := s[index]
	if !ok {
		return 0, fmt.Errorf("unknown air quality index %q", index)
	}
	switch stat {
	case "min":
		return v.Min, nil
	case "max":
		return v.Max, nil
	case "mean":
		return v.Mean, nil
	default:
		return 0, fmt.Errorf("unknown air quality statistic %q", stat)
	}
}
