package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourly(values ...*float64) HourlyAirQuality {
	out := HourlyAirQuality{}
	for _, index := range AirQualityIndices {
		out[index] = values
	}
	return out
}

func TestSummarizeAirQuality(t *testing.T) {
	s, err := SummarizeAirQuality(hourly(ptr(20.0), nil, ptr(40.0), ptr(60.0)))

	require.NoError(t, err)
	assert.Len(t, s, len(AirQualityIndices))
	assert.Equal(t, IndexSummary{Min: 20, Max: 60, Mean: 40}, s["european_aqi"])
}

func TestSummarizeAirQuality_AllGaps(t *testing.T) {
	_, err := SummarizeAirQuality(hourly(nil, nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "european_aqi")
}

func TestAverageAirQuality(t *testing.T) {
	a, err := SummarizeAirQuality(hourly(ptr(10.0), ptr(30.0)))
	require.NoError(t, err)
	b, err := SummarizeAirQuality(hourly(ptr(30.0), ptr(50.0)))
	require.NoError(t, err)

	avg, err := AverageAirQuality([]AirQualitySummary{a, b})

	require.NoError(t, err)
	assert.Equal(t, IndexSummary{Min: 20, Max: 40, Mean: 30}, avg["european_aqi_ozone"])

	mean, err := avg.Metric("european_aqi", "mean")
	require.NoError(t, err)
	assert.Equal(t, 30.0, mean)

	_, err = avg.Metric("european_aqi", "median")
	require.Error(t, err)
	_, err = avg.Metric("pollen", "mean")
	require.Error(t, err)

	_, err = AverageAirQuality(nil)
	require.Error(t, err)
}
