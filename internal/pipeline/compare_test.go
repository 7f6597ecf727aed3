package pipeline_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-atlas/internal/domain"
	"github.com/couchcryptid/climate-atlas/internal/observability"
	"github.com/couchcryptid/climate-atlas/internal/pipeline"
)

func newComparator(geo *fakeGeocoder, weather *fakeWeather, metrics *observability.Metrics) *pipeline.Comparator {
	return pipeline.NewComparator(pipeline.Sources{
		Geocoder:   geo,
		Weather:    weather,
		AirQuality: &fakeAirQuality{},
		Registries: fakeRegistries{"gaspar": gasparRows, "basol": basolRows},
	}, pipeline.CompareConfig{
		WeatherPeriod:    year2021,
		AirQualityPeriod: year2021,
	}, discardLogger(), metrics)
}

func TestComparator_Compare(t *testing.T) {
	geo, _ := world()
	metrics := observability.NewMetricsForTesting()
	c := newComparator(geo, &fakeWeather{}, metrics)

	got, err := c.Compare(context.Background(), []string{"Grenoble", "Le Port"})
	require.NoError(t, err)
	require.Len(t, got.Cities, 2)

	grenoble := got.Cities[0]
	assert.Equal(t, "Grenoble", grenoble.Place.Name)
	assert.Equal(t, domain.RegionCode("38"), grenoble.Place.Department)
	assert.Equal(t, 212, grenoble.Place.Elevation)
	assert.InDelta(t, 45.0, grenoble.Winter.TemperatureMean, 1e-9)
	assert.InDelta(t, 90.0, grenoble.AirQuality["european_aqi"].Max, 1e-9)
	assert.Equal(t, 2, grenoble.Disasters)
	assert.Equal(t, 1, grenoble.Pollutions)

	port := got.Cities[1]
	assert.Equal(t, domain.RegionCode("974"), port.Place.Department)
	assert.Equal(t, "Réunion", port.Place.DepartmentName)
	assert.Equal(t, 0, port.Disasters)
	assert.Equal(t, 1, port.Pollutions)

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("resolved")), 0)
}

func TestComparator_Compare_StrictCompleteness(t *testing.T) {
	geo, _ := world()
	c := newComparator(geo, &fakeWeather{gap: true}, observability.NewMetricsForTesting())

	_, err := c.Compare(context.Background(), []string{"Grenoble"})

	var incomplete *domain.DataCompletenessError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2021, incomplete.Year)
	assert.Equal(t, 30, incomplete.Got)
}

func TestComparator_Compare_UnknownCity(t *testing.T) {
	geo, _ := world()
	metrics := observability.NewMetricsForTesting()
	c := newComparator(geo, &fakeWeather{}, metrics)

	_, err := c.Compare(context.Background(), []string{"Atlantide"})

	var cre *domain.CityResolutionError
	require.ErrorAs(t, err, &cre)
	assert.True(t, cre.IsNoResult())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("no_result")), 0)
}

func TestComparator_Compare_GeocoderFailure(t *testing.T) {
	geo := &fakeGeocoder{err: &domain.ExternalServiceError{Endpoint: "search", StatusCode: 500, Reason: "boom"}}
	metrics := observability.NewMetricsForTesting()
	c := newComparator(geo, &fakeWeather{}, metrics)

	_, err := c.Compare(context.Background(), []string{"Grenoble"})

	var svcErr *domain.ExternalServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("error")), 0)
}

func TestComparator_Compare_NoCity(t *testing.T) {
	geo, _ := world()
	c := newComparator(geo, &fakeWeather{}, observability.NewMetricsForTesting())

	_, err := c.Compare(context.Background(), nil)
	require.Error(t, err)
}

func TestComparator_Compare_RegistryUnavailable(t *testing.T) {
	geo, _ := world()
	c := pipeline.NewComparator(pipeline.Sources{
		Geocoder:   geo,
		Weather:    &fakeWeather{},
		AirQuality: &fakeAirQuality{},
		Registries: fakeRegistries{"gaspar": gasparRows},
	}, pipeline.CompareConfig{WeatherPeriod: year2021, AirQualityPeriod: year2021},
		discardLogger(), observability.NewMetricsForTesting())

	_, err := c.Compare(context.Background(), []string{"Grenoble"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "basol registry")
}

func TestComparison_Tables(t *testing.T) {
	geo, _ := world()
	c := newComparator(geo, &fakeWeather{}, observability.NewMetricsForTesting())
	got, err := c.Compare(context.Background(), []string{"Grenoble", "Le Port"})
	require.NoError(t, err)

	tables := got.Tables()
	require.Len(t, tables, 4)

	titles := make([]string, 0, len(tables))
	for _, tbl := range tables {
		titles = append(titles, tbl.Title)
	}
	if diff := cmp.Diff([]string{"Villes à l'étude", "Climat hivernal", "Climat estival", "Risques"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}

	places := tables[0]
	assert.Equal(t, []string{"Grenoble", "Le Port"}, places.Column("Nom"))
	assert.Equal(t, []string{"Isère", "Réunion"}, places.Column("Département"))
	assert.Equal(t, []string{"158000", "32000"}, places.Column("Population"))

	winter := tables[1]
	assert.Equal(t, []string{"Métrique", "Grenoble", "Le Port"}, winter.Columns)
	assert.Equal(t, []string{"Température moyenne (°C)", "45.00", "-21.00"}, winter.Rows[0])

	risks := tables[3]
	assert.Equal(t, []string{"Pic de qualité de l'air (AQI)", "90", "-42"}, risks.Rows[1])
	assert.Equal(t, []string{"Catastrophes naturelles (GASPAR)", "2", "0"}, risks.Rows[2])
	assert.Equal(t, []string{"Sites pollués (BASOL)", "1", "1"}, risks.Rows[3])
}

func TestComparison_Tables_MissingPopulation(t *testing.T) {
	cmpResult := pipeline.Comparison{Cities: []pipeline.CityReport{{
		Place: domain.Place{Name: "Hameau", DepartmentName: "Isère", Elevation: 800},
	}}}

	places := cmpResult.Tables()[0]
	assert.Equal(t, []string{"-"}, places.Column("Population"))
	assert.Equal(t, []string{"800"}, places.Column("Altitude (m)"))
}
