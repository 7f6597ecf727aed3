package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-atlas/internal/domain"
	"github.com/couchcryptid/climate-atlas/internal/observability"
	"github.com/couchcryptid/climate-atlas/internal/pipeline"
)

func testCatalog() []domain.MapSpec {
	return []domain.MapSpec{
		{ID: "winter-temperature", Title: "Température hivernale", Metric: "winter.temperature_mean", Categories: twoClasses()},
		{ID: "air-quality-peaks", Title: "Pics de pollution", Metric: "air_quality.european_aqi.max", Categories: twoClasses()},
		{ID: "natural-disasters", Title: "Catastrophes naturelles", Metric: "registry.gaspar", Categories: twoClasses()},
	}
}

func newMapPipeline(catalog []domain.MapSpec, pubs ...pipeline.Publisher) (*pipeline.MapPipeline, *fakeWeather, *fakeAirQuality, *observability.Metrics) {
	geo, communes := world()
	weather := &fakeWeather{}
	aq := &fakeAirQuality{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.NewMapPipeline(pipeline.Sources{
		Geocoder:   geo,
		Communes:   communes,
		Weather:    weather,
		AirQuality: aq,
		Registries: fakeRegistries{"gaspar": gasparRows, "basol": basolRows},
	}, pipeline.MapConfig{
		MaxElevation:     400,
		SampleSize:       2,
		Mode:             domain.Strict,
		WeatherPeriod:    year2021,
		AirQualityPeriod: year2021,
		Catalog:          catalog,
		Regions:          testRegions(),
	}, discardLogger(), metrics, pubs...)
	return p, weather, aq, metrics
}

func TestMapPipeline_Run(t *testing.T) {
	pub := &recordingPublisher{}
	p, weather, aq, metrics := newMapPipeline(testCatalog(), pub)

	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.Latest())

	maps, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, maps, 3)
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, maps, p.Latest())

	// Each sampled place is fetched once per service.
	assert.Equal(t, int32(8), weather.calls.Load())
	assert.Equal(t, int32(8), aq.calls.Load())

	winter := maps[0]
	assert.Equal(t, "winter-temperature", winter.ID)
	wantWinter := map[domain.RegionCode]float64{"26": 44.8, "38": 45.1, "73": 45.55, "974": -21}
	if diff := cmp.Diff(wantWinter, winter.Values, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("winter values mismatch (-want +got):\n%s", diff)
	}
	// The overseas value is far below the core but is classified with the
	// core thresholds.
	assert.InDelta(t, 44.8, winter.Classification.Breaks.Min, 1e-9)
	wantClasses := map[domain.RegionCode]int{"26": 0, "38": 0, "73": 1, "974": 0}
	if diff := cmp.Diff(wantClasses, winter.Classification.Assignments); diff != "" {
		t.Fatalf("winter classes mismatch (-want +got):\n%s", diff)
	}

	peaks := maps[1]
	assert.InDelta(t, 90.2, peaks.Values["38"], 1e-9)

	disasters := maps[2]
	assert.InDelta(t, 3, disasters.Values["38"], 0)
	assert.InDelta(t, 1, disasters.Values["73"], 0)
	assert.InDelta(t, 0, disasters.Values["26"], 0)
	assert.Len(t, disasters.Values, len(domain.Regions()))

	require.Len(t, pub.published, 1)
	assert.Len(t, pub.published[0], 3)

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.MapsGenerated), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.MapsPublished), 0)
	assert.InDelta(t, 8, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("resolved")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(metrics.RegionsProcessed.WithLabelValues("weather")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestMapPipeline_Run_RegistryOnlySkipsSampling(t *testing.T) {
	catalog := []domain.MapSpec{
		{ID: "soil-pollution", Metric: "registry.basol", Categories: twoClasses()},
	}
	p, weather, aq, _ := newMapPipeline(catalog)

	maps, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, maps, 1)

	assert.Zero(t, weather.calls.Load())
	assert.Zero(t, aq.calls.Load())
	assert.InDelta(t, 1, maps[0].Values["974"], 0)
	assert.InDelta(t, 1, maps[0].Values["38"], 0)
}

func TestMapPipeline_Run_AmbiguousPlaceAborts(t *testing.T) {
	geo, communes := world()
	geo.candidates["Voiron"] = append(geo.candidates["Voiron"], town("Voiron", "Isère", "FR", 45.3, 300, 20000))

	p := pipeline.NewMapPipeline(pipeline.Sources{
		Geocoder:   geo,
		Communes:   communes,
		Weather:    &fakeWeather{},
		AirQuality: &fakeAirQuality{},
		Registries: fakeRegistries{},
	}, pipeline.MapConfig{
		MaxElevation:  400,
		SampleSize:    2,
		WeatherPeriod: year2021,
		Catalog:       testCatalog()[:1],
		Regions:       testRegions(),
	}, discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(context.Background())

	var cre *domain.CityResolutionError
	require.ErrorAs(t, err, &cre)
	assert.Equal(t, domain.Ambiguous, cre.Kind)
	assert.Contains(t, err.Error(), "region 38")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestMapPipeline_Run_StrictGapAborts(t *testing.T) {
	geo, communes := world()
	p := pipeline.NewMapPipeline(pipeline.Sources{
		Geocoder: geo,
		Communes: communes,
		Weather:  &fakeWeather{gap: true},
	}, pipeline.MapConfig{
		MaxElevation:  400,
		SampleSize:    2,
		Mode:          domain.Strict,
		WeatherPeriod: year2021,
		Catalog:       testCatalog()[:1],
		Regions:       testRegions(),
	}, discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(context.Background())

	var incomplete *domain.DataCompletenessError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, domain.Summer, incomplete.Season)
}

func TestMapPipeline_Run_LenientToleratesGap(t *testing.T) {
	geo, communes := world()
	metrics := observability.NewMetricsForTesting()
	weather := &fakeWeather{gap: true}
	p := pipeline.NewMapPipeline(pipeline.Sources{
		Geocoder: geo,
		Communes: communes,
		Weather:  weather,
	}, pipeline.MapConfig{
		MaxElevation:  400,
		SampleSize:    2,
		Mode:          domain.Lenient,
		WeatherPeriod: year2021,
		Catalog:       testCatalog()[:1],
		Regions:       testRegions(),
	}, discardLogger(), metrics)

	maps, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 45.1, maps[0].Values["38"], 1e-9)
}

func TestMapPipeline_Run_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("disk full")}
	p, _, _, metrics := newMapPipeline(testCatalog()[2:], pub)

	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, testutil.ToFloat64(metrics.MapsPublished))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestMapPipeline_Run_UnknownMetric(t *testing.T) {
	catalog := []domain.MapSpec{{ID: "bogus", Metric: "spring.temperature_mean", Categories: twoClasses()}}
	p, _, _, _ := newMapPipeline(catalog)

	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
