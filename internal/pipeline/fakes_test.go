package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/config"
	"github.com/couchcryptid/climate-atlas/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

var year2021 = config.Period{Start: date(2021, time.January, 1), End: date(2021, time.December, 31)}

// --- fakes ---

type fakeGeocoder struct {
	candidates map[string][]domain.GeocodingCandidate
	err        error
}

func (g *fakeGeocoder) Search(_ context.Context, name string, _ int) ([]domain.GeocodingCandidate, error) {
	if g.err != nil {
		return nil, g.err
	}
	if c, ok := g.candidates[name]; ok {
		return c, nil
	}
	return []domain.GeocodingCandidate{}, nil
}

type fakeCommunes map[domain.RegionCode][]domain.Municipality

func (f fakeCommunes) Communes(_ context.Context, code domain.RegionCode) ([]domain.Municipality, error) {
	m, ok := f[code]
	if !ok {
		return nil, errors.New("no communes for " + string(code))
	}
	return m, nil
}

// fakeWeather returns a complete daily series whose mean temperature is the
// latitude of the location.
type fakeWeather struct {
	calls atomic.Int32
	gap   bool
}

func (f *fakeWeather) DailyWeather(_ context.Context, lat, _ float64, start, end time.Time) ([]domain.DailyObservation, error) {
	f.calls.Add(1)
	var out []domain.DailyObservation
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if f.gap && d.Month() == time.July && d.Day() == 14 {
			continue
		}
		out = append(out, domain.DailyObservation{
			Date:                    d,
			TemperatureMax:          ptr(lat + 5),
			TemperatureMin:          ptr(lat - 5),
			TemperatureMean:         ptr(lat),
			ApparentTemperatureMax:  ptr(lat + 3),
			ApparentTemperatureMin:  ptr(lat - 7),
			ApparentTemperatureMean: ptr(lat - 2),
			WindSpeedMax:            ptr(20.0),
			DaylightDuration:        ptr(36000.0),
			SunshineDuration:        ptr(18000.0),
			RainSum:                 ptr(1.0),
			SnowfallSum:             ptr(0.0),
			PrecipitationHours:      ptr(2.0),
			Evapotranspiration:      ptr(2.0),
		})
	}
	return out, nil
}

// fakeAirQuality returns, for every index, the latitude, a gap and twice
// the latitude.
type fakeAirQuality struct {
	calls atomic.Int32
}

func (f *fakeAirQuality) HourlyAirQuality(_ context.Context, lat, _ float64, _, _ time.Time) (domain.HourlyAirQuality, error) {
	f.calls.Add(1)
	out := make(domain.HourlyAirQuality, len(domain.AirQualityIndices))
	for _, index := range domain.AirQualityIndices {
		out[index] = []*float64{ptr(lat), nil, ptr(2 * lat)}
	}
	return out, nil
}

type fakeRegistries map[string][][]string

func (f fakeRegistries) Rows(_ context.Context, dataset domain.RegistryDataset) (domain.Rows, error) {
	rows, ok := f[dataset.Name]
	if !ok {
		return nil, errors.New("registry unavailable")
	}
	return func(yield func([]string, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}, nil
}

type recordingPublisher struct {
	published [][]domain.MapResult
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, maps []domain.MapResult) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, maps)
	return nil
}

// --- world ---

func town(name, admin2, country string, lat, elevation float64, population int) domain.GeocodingCandidate {
	return domain.GeocodingCandidate{
		Name:        name,
		Latitude:    lat,
		Longitude:   5,
		Elevation:   ptr(elevation),
		Population:  ptr(population),
		FeatureCode: "PPLA3",
		CountryCode: country,
		Admin2:      admin2,
	}
}

func commune(name string, population int) domain.Municipality {
	return domain.Municipality{Name: name, Population: ptr(population)}
}

// world has two sampled towns in each of Drôme, Isère, Savoie and Réunion.
func world() (*fakeGeocoder, fakeCommunes) {
	geo := &fakeGeocoder{candidates: map[string][]domain.GeocodingCandidate{
		"Valence":       {town("Valence", "Drôme", "FR", 44.7, 120, 64000)},
		"Montélimar":    {town("Montélimar", "Drôme", "FR", 44.9, 80, 40000)},
		"Grenoble":      {town("Grenoble", "Isère", "FR", 45.0, 212, 158000)},
		"Voiron":        {town("Voiron", "Isère", "FR", 45.2, 290, 20000)},
		"Chambéry":      {town("Chambéry", "Savoie", "FR", 45.5, 270, 59000)},
		"Aix-les-Bains": {town("Aix-les-Bains", "Savoie", "FR", 45.6, 250, 31000)},
		"Saint-Denis":   {town("Saint-Denis", "", "RE", -21.0, 50, 153000)},
		"Le Port":       {town("Le Port", "", "RE", -21.0, 5, 32000)},
	}}
	communes := fakeCommunes{
		"26":  {commune("Valence", 64000), commune("Montélimar", 40000)},
		"38":  {commune("Grenoble", 158000), commune("Voiron", 20000)},
		"73":  {commune("Chambéry", 59000), commune("Aix-les-Bains", 31000)},
		"974": {commune("Saint-Denis", 153000), commune("Le Port", 32000)},
	}
	return geo, communes
}

func testRegions() []domain.Region {
	var out []domain.Region
	for _, code := range []domain.RegionCode{"26", "38", "73", "974"} {
		r, err := domain.LookupRegion(code)
		if err != nil {
			panic(err)
		}
		out = append(out, r)
	}
	return out
}

var gasparRows = [][]string{
	{"INTE01", "38185", "Grenoble"},
	{"INTE02", "38563", "Voiron"},
	{"INTE03", "73065", "Chambéry"},
	{"INTE04", "38185", "Grenoble"},
}

var basolRows = [][]string{
	{"SSP1", "site", "adresse", "lieu-dit", "x", "y", "region", "Grenoble", "38185"},
	{"SSP2", "site", "adresse", "lieu-dit", "x", "y", "region", "Le Port", "97407"},
}

func twoClasses() []domain.Category {
	return []domain.Category{{Label: "Bas", Color: "#0000FF"}, {Label: "Haut", Color: "#FF0000"}}
}
