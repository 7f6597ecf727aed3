package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/climate-atlas/internal/config"
	"github.com/couchcryptid/climate-atlas/internal/domain"
	"github.com/couchcryptid/climate-atlas/internal/observability"
)

// CompareConfig parameterizes a city comparison.
type CompareConfig struct {
	WeatherPeriod    config.Period
	AirQualityPeriod config.Period
}

// CityReport holds everything reported about one city.
type CityReport struct {
	Place      domain.Place             `json:"place"`
	Winter     domain.SeasonalSummary   `json:"winter"`
	Summer     domain.SeasonalSummary   `json:"summer"`
	AirQuality domain.AirQualitySummary `json:"air_quality"`
	Disasters  int                      `json:"disasters"`
	Pollutions int                      `json:"pollutions"`
}

// Comparison is the result of comparing cities, in the order they were given.
type Comparison struct {
	Cities []CityReport `json:"cities"`
}

// Comparator resolves named cities and reports their climate and risks.
// Weather completeness is always checked strictly.
type Comparator struct {
	sources    Sources
	cfg        CompareConfig
	resolver   domain.PlaceResolver
	aggregator *domain.Aggregator
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewComparator wires a population-requiring resolver and a strict aggregator.
func NewComparator(sources Sources, cfg CompareConfig, logger *slog.Logger, metrics *observability.Metrics) *Comparator {
	return &Comparator{
		sources: sources,
		cfg:     cfg,
		resolver: countingResolver{
			next:    domain.NewResolver(sources.Geocoder, domain.ComparisonSearchCount, domain.RequirePopulation, logger),
			metrics: metrics,
		},
		aggregator: domain.NewAggregator(domain.Strict, logger),
		logger:     logger,
		tracer:     otel.Tracer(observability.TracerName),
	}
}

// Compare builds a report for every city. Any failure aborts the comparison.
func (c *Comparator) Compare(ctx context.Context, cities []string) (Comparison, error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.compare",
		trace.WithAttributes(attribute.StringSlice("cities", cities)))
	defer span.End()

	out, err := c.compare(ctx, cities)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Comparison{}, err
	}
	return out, nil
}

func (c *Comparator) compare(ctx context.Context, cities []string) (Comparison, error) {
	if len(cities) == 0 {
		return Comparison{}, fmt.Errorf("compare: no city given")
	}
	gaspar, err := c.sources.Registries.Rows(ctx, domain.GASPAR)
	if err != nil {
		return Comparison{}, fmt.Errorf("gaspar registry: %w", err)
	}
	basol, err := c.sources.Registries.Rows(ctx, domain.BASOL)
	if err != nil {
		return Comparison{}, fmt.Errorf("basol registry: %w", err)
	}

	out := Comparison{Cities: make([]CityReport, 0, len(cities))}
	for _, city := range cities {
		report, err := c.city(ctx, city, gaspar, basol)
		if err != nil {
			return Comparison{}, err
		}
		out.Cities = append(out.Cities, report)
		c.logger.Info("city compared", "city", city, "department", report.Place.DepartmentName)
	}
	return out, nil
}

func (c *Comparator) city(ctx context.Context, name string, gaspar, basol domain.Rows) (CityReport, error) {
	place, err := c.resolver.Resolve(ctx, name, domain.Region{})
	if err != nil {
		return CityReport{}, err
	}
	report := CityReport{Place: place}

	wp := c.cfg.WeatherPeriod
	series, err := c.sources.Weather.DailyWeather(ctx, place.Latitude, place.Longitude, wp.Start, wp.End)
	if err != nil {
		return CityReport{}, fmt.Errorf("weather of %s: %w", name, err)
	}
	if report.Winter, report.Summer, err = c.aggregator.Aggregate(series); err != nil {
		return CityReport{}, fmt.Errorf("weather of %s: %w", name, err)
	}

	ap := c.cfg.AirQualityPeriod
	hourly, err := c.sources.AirQuality.HourlyAirQuality(ctx, place.Latitude, place.Longitude, ap.Start, ap.End)
	if err != nil {
		return CityReport{}, fmt.Errorf("air quality of %s: %w", name, err)
	}
	if report.AirQuality, err = domain.SummarizeAirQuality(hourly); err != nil {
		return CityReport{}, fmt.Errorf("air quality of %s: %w", name, err)
	}

	if report.Disasters, err = domain.CountByName(gaspar, domain.GASPAR, place.Name); err != nil {
		return CityReport{}, err
	}
	if report.Pollutions, err = domain.CountByName(basol, domain.BASOL, place.Name); err != nil {
		return CityReport{}, err
	}
	return report, nil
}

var climateRows = []struct {
	label  string
	metric string
}{
	{"Température moyenne (°C)", "temperature_mean"},
	{"Température minimale (°C)", "temperature_min"},
	{"Température maximale (°C)", "temperature_max"},
	{"Température ressentie (°C)", "apparent_temperature_mean"},
	{"Précipitations pluie (mm)", "rainfall"},
	{"Précipitations neige (mm)", "snowfall"},
	{"Vent maximal (km/h)", "wind_speed_max"},
	{"Ensoleillement (h/jour)", "sunshine_hours"},
	{"Heures de pluie (h/jour)", "precipitation_hours"},
	{"Durée du jour (h/jour)", "daylight_hours"},
	{"Evapotranspiration (mm)", "evapotranspiration"},
}

// Tables lays the comparison out as report tables: places, winter and summer
// climate, then risks.
func (c Comparison) Tables() []domain.Table {
	places := domain.Table{
		Title:   "Villes à l'étude",
		Columns: []string{"Nom", "Département", "Altitude (m)", "Population"},
	}
	names := make([]string, 0, len(c.Cities))
	for _, r := range c.Cities {
		population := "-"
		if r.Place.Population != nil {
			population = strconv.Itoa(*r.Place.Population)
		}
		places.AddRow(r.Place.Name, r.Place.DepartmentName, strconv.Itoa(r.Place.Elevation), population)
		names = append(names, r.Place.Name)
	}

	return []domain.Table{
		places,
		c.climateTable("Climat hivernal", names, func(r CityReport) domain.SeasonalSummary { return r.Winter }),
		c.climateTable("Climat estival", names, func(r CityReport) domain.SeasonalSummary { return r.Summer }),
		c.riskTable(names),
	}
}

func (c Comparison) climateTable(title string, names []string, season func(CityReport) domain.SeasonalSummary) domain.Table {
	t := domain.Table{Title: title, Columns: append([]string{"Métrique"}, names...)}
	for _, row := range climateRows {
		cells := []string{row.label}
		for _, r := range c.Cities {
			v, err := season(r).Metric(row.metric)
			if err != nil {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, strconv.FormatFloat(v, 'f', 2, 64))
		}
		t.AddRow(cells...)
	}
	return t
}

func (c Comparison) riskTable(names []string) domain.Table {
	t := domain.Table{Title: "Risques", Columns: append([]string{"Métrique"}, names...)}
	aqi := func(stat string) []string {
		cells := make([]string, 0, len(c.Cities))
		for _, r := range c.Cities {
			v, err := r.AirQuality.Metric("european_aqi", stat)
			if err != nil {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, strconv.FormatFloat(v, 'f', 0, 64))
		}
		return cells
	}
	counts := func(fn func(CityReport) int) []string {
		cells := make([]string, 0, len(c.Cities))
		for _, r := range c.Cities {
			cells = append(cells, strconv.Itoa(fn(r)))
		}
		return cells
	}

	t.AddRow(append([]string{"Qualité de l'air moyenne (AQI)"}, aqi("mean")...)...)
	t.AddRow(append([]string{"Pic de qualité de l'air (AQI)"}, aqi("max")...)...)
	t.AddRow(append([]string{"Catastrophes naturelles (GASPAR)"}, counts(func(r CityReport) int { return r.Disasters })...)...)
	t.AddRow(append([]string{"Sites pollués (BASOL)"}, counts(func(r CityReport) int { return r.Pollutions })...)...)
	return t
}
