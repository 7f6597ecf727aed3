package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

const dateLayout = "2006-01-02"

// Search implements domain.Geocoder against the geocoding service. A
// response without results yields an empty slice.
func (c *Client) Search(ctx context.Context, name string, count int) ([]domain.GeocodingCandidate, error) {
	body, err := c.FetchRaw(ctx, c.endpoints.Geocoding, url.Values{
		"name":     {name},
		"count":    {strconv.Itoa(count)},
		"language": {"fr"},
		"format":   {"json"},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []domain.GeocodingCandidate `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}
	if resp.Results == nil {
		return []domain.GeocodingCandidate{}, nil
	}
	return resp.Results, nil
}

// DailyWeather returns the archived daily series for a location over the
// inclusive range [start, end]. Gaps are kept as nil metrics.
func (c *Client) DailyWeather(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.DailyObservation, error) {
	body, err := c.FetchRaw(ctx, c.endpoints.Archive, url.Values{
		"latitude":   {formatCoord(lat)},
		"longitude":  {formatCoord(lon)},
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
		"daily":      {strings.Join(domain.DailyMetrics, ",")},
	})
	if err != nil {
		return nil, err
	}
	return DecodeDaily(body)
}

// DecodeDaily parses an archive response body into daily observations.
func DecodeDaily(body []byte) ([]domain.DailyObservation, error) {
	var resp struct {
		Daily map[string]json.RawMessage `json:"daily"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode archive response: %w", err)
	}
	if resp.Daily == nil {
		return nil, fmt.Errorf("decode archive response: no daily section")
	}

	var days []string
	if err := json.Unmarshal(resp.Daily["time"], &days); err != nil {
		return nil, fmt.Errorf("decode archive time: %w", err)
	}

	out := make([]domain.DailyObservation, len(days))
	for i, d := range days {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("decode archive time %q: %w", d, err)
		}
		out[i].Date = t
	}

	for _, metric := range domain.DailyMetrics {
		values, err := decodeSeries(resp.Daily, metric, len(days))
		if err != nil {
			return nil, fmt.Errorf("decode archive: %w", err)
		}
		for i := range out {
			*dailyField(&out[i], metric) = values[i]
		}
	}
	return out, nil
}

func dailyField(o *domain.DailyObservation, metric string) **float64 {
	switch metric {
	case "temperature_2m_max":
		return &o.TemperatureMax
	case "temperature_2m_min":
		return &o.TemperatureMin
	case "temperature_2m_mean":
		return &o.TemperatureMean
	case "apparent_temperature_max":
		return &o.ApparentTemperatureMax
	case "apparent_temperature_min":
		return &o.ApparentTemperatureMin
	case "apparent_temperature_mean":
		return &o.ApparentTemperatureMean
	case "daylight_duration":
		return &o.DaylightDuration
	case "sunshine_duration":
		return &o.SunshineDuration
	case "wind_speed_10m_max":
		return &o.WindSpeedMax
	case "rain_sum":
		return &o.RainSum
	case "snowfall_sum":
		return &o.SnowfallSum
	case "precipitation_hours":
		return &o.PrecipitationHours
	case "et0_fao_evapotranspiration":
		return &o.Evapotranspiration
	default:
		panic("openmeteo: unmapped daily metric " + metric)
	}
}

// HourlyAirQuality returns the hourly European AQI series for a location
// over the inclusive range [start, end].
func (c *Client) HourlyAirQuality(ctx context.Context, lat, lon float64, start, end time.Time) (domain.HourlyAirQuality, error) {
	body, err := c.FetchRaw(ctx, c.endpoints.AirQuality, url.Values{
		"latitude":   {formatCoord(lat)},
		"longitude":  {formatCoord(lon)},
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
		"hourly":     {strings.Join(domain.AirQualityIndices, ",")},
	})
	if err != nil {
		return nil, err
	}
	return DecodeHourly(body)
}

// DecodeHourly parses an air-quality response body.
func DecodeHourly(body []byte) (domain.HourlyAirQuality, error) {
	var resp struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode air quality response: %w", err)
	}
	if resp.Hourly == nil {
		return nil, fmt.Errorf("decode air quality response: no hourly section")
	}

	out := make(domain.HourlyAirQuality, len(domain.AirQualityIndices))
	for _, index := range domain.AirQualityIndices {
		values, err := decodeSeries(resp.Hourly, index, -1)
		if err != nil {
			return nil, fmt.Errorf("decode air quality: %w", err)
		}
		out[index] = values
	}
	return out, nil
}

// decodeSeries reads a nullable numeric column. A negative want skips the
// length check.
func decodeSeries(section map[string]json.RawMessage, name string, want int) ([]*float64, error) {
	raw, ok := section[name]
	if !ok {
		return nil, fmt.Errorf("missing %s", name)
	}
	var values []*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if want >= 0 && len(values) != want {
		return nil, fmt.Errorf("%s: %d values for %d days", name, len(values), want)
	}
	return values, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
