// Command genmock writes deterministic synthetic Open-Meteo responses for
// offline development: a daily archive response and, optionally, an hourly
// air-quality response. Values follow a seasonal cycle with seeded noise so
// the same flags always produce the same files.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -archive-out data/mock/archive_grenoble.json \
//	  -air-quality-out data/mock/air_quality_grenoble.json \
//	  -lat 45.19 -lon 5.72 -start 2010-01-01 -end 2023-12-31 -gaps 3
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	archiveOut := flag.String("archive-out", "", "output path for the daily archive response")
	aqOut := flag.String("air-quality-out", "", "optional output path for the hourly air-quality response")
	lat := flag.Float64("lat", 45.19, "latitude of the location")
	lon := flag.Float64("lon", 5.72, "longitude of the location")
	start := flag.String("start", "2010-01-01", "first day (inclusive)")
	end := flag.String("end", "2023-12-31", "last day (inclusive)")
	gaps := flag.Int("gaps", 0, "number of days with one metric nulled out")
	seed := flag.Uint64("seed", 1, "noise seed")
	flag.Parse()

	if *archiveOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -archive-out")
	}
	from, err := time.Parse(dateLayout, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	to, err := time.Parse(dateLayout, *end)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("-end %s is before -start %s", *end, *start)
	}

	rng := rand.New(rand.NewPCG(*seed, 0))

	archive, days := dailyResponse(rng, *lat, *lon, from, to, *gaps)
	if err := writeJSON(*archiveOut, archive); err != nil {
		return fmt.Errorf("writing archive response: %w", err)
	}
	log.Printf("wrote archive response: %s (%d days, %d gaps)", *archiveOut, days, *gaps)

	if *aqOut != "" {
		aq, hours := hourlyResponse(rng, *lat, *lon, from, to)
		if err := writeJSON(*aqOut, aq); err != nil {
			return fmt.Errorf("writing air quality response: %w", err)
		}
		log.Printf("wrote air quality response: %s (%d hours)", *aqOut, hours)
	}
	return nil
}

// seasonal is -1 in mid-January and +1 in mid-July.
func seasonal(d time.Time) float64 {
	return -math.Cos(2 * math.Pi * float64(d.YearDay()-15) / 365)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func dailyResponse(rng *rand.Rand, lat, lon float64, from, to time.Time, gaps int) (map[string]any, int) {
	var dates []string
	series := make(map[string][]any, len(domain.DailyMetrics))

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
		s := seasonal(d)

		mean := 12 + 9*s + rng.NormFloat64()*2
		daylight := 43200 + 15000*s
		sunshine := daylight * math.Max(0, math.Min(1, 0.35+0.25*s+rng.NormFloat64()*0.15))
		rainy := rng.Float64() < 0.35
		var rain, snow, hours float64
		if rainy {
			rain = rng.ExpFloat64() * 6
			hours = 1 + rng.Float64()*10
			if mean < 1 {
				snow = rain * 0.7
			}
		}

		values := map[string]float64{
			"temperature_2m_max":         mean + 5,
			"temperature_2m_min":         mean - 5,
			"temperature_2m_mean":        mean,
			"apparent_temperature_max":   mean + 3.5,
			"apparent_temperature_min":   mean - 6.5,
			"apparent_temperature_mean":  mean - 1.5,
			"daylight_duration":          daylight,
			"sunshine_duration":          sunshine,
			"wind_speed_10m_max":         math.Max(0, 18-4*s+rng.NormFloat64()*3),
			"rain_sum":                   rain,
			"snowfall_sum":               snow,
			"precipitation_hours":        hours,
			"et0_fao_evapotranspiration": math.Max(0.2, 2.2+2*s+rng.NormFloat64()*0.3),
		}
		for _, metric := range domain.DailyMetrics {
			series[metric] = append(series[metric], round1(values[metric]))
		}
	}

	for range min(gaps, len(dates)) {
		metric := domain.DailyMetrics[rng.IntN(len(domain.DailyMetrics))]
		series[metric][rng.IntN(len(dates))] = nil
	}

	daily := map[string]any{"time": dates}
	for metric, values := range series {
		daily[metric] = values
	}
	return map[string]any{
		"latitude":  lat,
		"longitude": lon,
		"timezone":  "GMT",
		"daily":     daily,
	}, len(dates)
}

func hourlyResponse(rng *rand.Rand, lat, lon float64, from, to time.Time) (map[string]any, int) {
	var stamps []string
	series := make(map[string][]any, len(domain.AirQualityIndices))

	last := to.AddDate(0, 0, 1)
	for h := from; h.Before(last); h = h.Add(time.Hour) {
		stamps = append(stamps, h.Format("2006-01-02T15:04"))
		base := 30 + 10*seasonal(h)
		for _, index := range domain.AirQualityIndices {
			series[index] = append(series[index], round1(math.Max(0, base+rng.NormFloat64()*8)))
		}
	}

	hourly := map[string]any{"time": stamps}
	for index, values := range series {
		hourly[index] = values
	}
	return map[string]any{
		"latitude":  lat,
		"longitude": lon,
		"hourly":    hourly,
	}, len(stamps)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
