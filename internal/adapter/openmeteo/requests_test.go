package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "Voiron", q.Get("name"))
		assert.Equal(t, "20", q.Get("count"))
		assert.Equal(t, "fr", q.Get("language"))
		assert.Equal(t, "json", q.Get("format"))
		writeJSON(w, http.StatusOK, `{"results":[{
			"name":"Voiron","latitude":45.36,"longitude":5.58,"elevation":290.0,
			"feature_code":"PPLA3","country_code":"FR","country":"France",
			"admin2":"Isère","admin4":"Voiron","population":20000
		}]}`)
	}))
	defer srv.Close()

	c := testClient(srv, Options{})
	got, err := c.Search(context.Background(), "Voiron", domain.SamplingSearchCount)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Voiron", got[0].Name)
	assert.Equal(t, "PPLA3", got[0].FeatureCode)
	assert.Equal(t, "Isère", got[0].Admin2)
	require.NotNil(t, got[0].Elevation)
	assert.InDelta(t, 290, *got[0].Elevation, 0)
	require.NotNil(t, got[0].Population)
	assert.Equal(t, 20000, *got[0].Population)
}

func TestClient_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"generationtime_ms":0.5}`)
	}))
	defer srv.Close()

	c := testClient(srv, Options{})
	got, err := c.Search(context.Background(), "Nowhere", 10)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

const archiveBody = `{"daily":{
	"time":["2020-01-01","2020-01-02"],
	"temperature_2m_max":[8.1,7.0],
	"temperature_2m_min":[1.2,null],
	"temperature_2m_mean":[4.0,3.5],
	"apparent_temperature_max":[5.0,4.1],
	"apparent_temperature_min":[-1.0,-2.0],
	"apparent_temperature_mean":[2.0,1.0],
	"daylight_duration":[31000,31100],
	"sunshine_duration":[20000,0],
	"wind_speed_10m_max":[12.3,20.1],
	"rain_sum":[0,3.2],
	"snowfall_sum":[0,0.7],
	"precipitation_hours":[0,5],
	"et0_fao_evapotranspiration":[0.4,0.3]
}}`

func TestClient_DailyWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v1/archive", r.URL.Path)
		assert.Equal(t, "45.19", q.Get("latitude"))
		assert.Equal(t, "5.72", q.Get("longitude"))
		assert.Equal(t, "2020-01-01", q.Get("start_date"))
		assert.Equal(t, "2020-01-02", q.Get("end_date"))
		assert.Equal(t, strings.Join(domain.DailyMetrics, ","), q.Get("daily"))
		writeJSON(w, http.StatusOK, archiveBody)
	}))
	defer srv.Close()

	c := testClient(srv, Options{})
	got, err := c.DailyWeather(context.Background(), 45.19, 5.72, day("2020-01-01"), day("2020-01-02"))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, day("2020-01-01"), got[0].Date)
	assert.Empty(t, got[0].MissingMetric())
	assert.InDelta(t, 8.1, *got[0].TemperatureMax, 1e-9)
	assert.InDelta(t, 20000, *got[0].SunshineDuration, 0)
	assert.InDelta(t, 0.4, *got[0].Evapotranspiration, 1e-9)

	assert.Nil(t, got[1].TemperatureMin)
	assert.Equal(t, "temperature_2m_min", got[1].MissingMetric())
	assert.InDelta(t, 0.7, *got[1].SnowfallSum, 1e-9)
}

func TestDecodeDaily_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `<html>`, "decode archive response"},
		{"no daily", `{"hourly":{}}`, "no daily section"},
		{"bad date", `{"daily":{"time":["01/01/2020"]}}`, "01/01/2020"},
		{"missing metric", `{"daily":{"time":["2020-01-01"]}}`, "missing temperature_2m_max"},
		{
			"length mismatch",
			strings.Replace(archiveBody, `"rain_sum":[0,3.2]`, `"rain_sum":[0]`, 1),
			"rain_sum: 1 values for 2 days",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDaily([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_HourlyAirQuality(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/air-quality", r.URL.Path)
		assert.Equal(t, strings.Join(domain.AirQualityIndices, ","), r.URL.Query().Get("hourly"))
		writeJSON(w, http.StatusOK, `{"hourly":{
			"time":["2022-07-29T00:00","2022-07-29T01:00"],
			"european_aqi":[20,null],
			"european_aqi_pm2_5":[10,12],
			"european_aqi_pm10":[5,6],
			"european_aqi_nitrogen_dioxide":[3,4],
			"european_aqi_ozone":[30,35],
			"european_aqi_sulphur_dioxide":[1,1]
		}}`)
	}))
	defer srv.Close()

	c := testClient(srv, Options{})
	got, err := c.HourlyAirQuality(context.Background(), 45.19, 5.72, day("2022-07-29"), day("2022-07-29"))
	require.NoError(t, err)

	require.Len(t, got, len(domain.AirQualityIndices))
	require.Len(t, got["european_aqi"], 2)
	assert.InDelta(t, 20, *got["european_aqi"][0], 0)
	assert.Nil(t, got["european_aqi"][1])

	summary, err := domain.SummarizeAirQuality(got)
	require.NoError(t, err)
	assert.InDelta(t, 32.5, summary["european_aqi_ozone"].Mean, 1e-9)
}

func TestDecodeHourly_MissingIndex(t *testing.T) {
	_, err := DecodeHourly([]byte(`{"hourly":{"european_aqi":[1]}}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing european_aqi_pm2_5")
}
