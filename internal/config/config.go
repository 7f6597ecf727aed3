package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

const dateLayout = "2006-01-02"

// Period is an inclusive date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// Config holds all settings, populated from environment variables.
type Config struct {
	MeteoAPIKey string
	HTTPTimeout time.Duration
	CachePath   string
	CacheSize   int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MaxElevation    int
	SampleSize      int
	AggregationMode domain.AggregationMode

	WeatherPeriod        Period
	CompareWeatherPeriod Period
	AirQualityPeriod     Period

	MapCatalog string
	OutputDir  string
	GasparURL  string
	BasolURL   string

	KafkaBrokers []string
	KafkaTopic   string

	TracingEnabled     bool
	TracingExporter    string
	TracingEndpoint    string
	TracingSampleRatio float64
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	maxElevation, err := parsePositiveInt("MAX_ELEVATION", 400)
	if err != nil {
		return nil, err
	}
	sampleSize, err := parsePositiveInt("SAMPLE_SIZE", 10)
	if err != nil {
		return nil, err
	}

	mode, err := domain.ParseAggregationMode(sharedcfg.EnvOrDefault("AGGREGATION_MODE", "lenient"))
	if err != nil {
		return nil, fmt.Errorf("invalid AGGREGATION_MODE: %w", err)
	}

	weather, err := parsePeriod("WEATHER", "1994-01-01", "2023-12-31")
	if err != nil {
		return nil, err
	}
	compareWeather, err := parsePeriod("COMPARE_WEATHER", "2010-01-01", "2023-12-31")
	if err != nil {
		return nil, err
	}
	airQuality, err := parsePeriod("AIR_QUALITY", "2022-07-29", "2024-07-07")
	if err != nil {
		return nil, err
	}

	ratio, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TRACING_SAMPLE_RATIO", "1"), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return nil, errors.New("invalid TRACING_SAMPLE_RATIO")
	}

	cfg := &Config{
		MeteoAPIKey: os.Getenv("METEO_API_KEY"),
		HTTPTimeout: httpTimeout,
		CachePath:   os.Getenv("CACHE_PATH"),
		CacheSize:   cacheSize,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MaxElevation:    maxElevation,
		SampleSize:      sampleSize,
		AggregationMode: mode,

		WeatherPeriod:        weather,
		CompareWeatherPeriod: compareWeather,
		AirQualityPeriod:     airQuality,

		MapCatalog: os.Getenv("MAP_CATALOG"),
		OutputDir:  sharedcfg.EnvOrDefault("OUTPUT_DIR", "maps"),
		GasparURL:  sharedcfg.EnvOrDefault("GASPAR_URL", "http://files.georisques.fr/GASPAR/gaspar.zip"),
		BasolURL:   sharedcfg.EnvOrDefault("BASOL_URL", "https://www.georisques.gouv.fr/webappReport/ws/infosols/export/excel?national=true"),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "climate-maps"),

		TracingEnabled:     strings.EqualFold(os.Getenv("TRACING_ENABLED"), "true"),
		TracingExporter:    strings.ToLower(sharedcfg.EnvOrDefault("TRACING_EXPORTER", "stdout")),
		TracingEndpoint:    os.Getenv("TRACING_ENDPOINT"),
		TracingSampleRatio: ratio,
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (allowed: json, text)", cfg.LogFormat)
	}

	return cfg, nil
}

// PublishEnabled reports whether map results are written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePeriod(prefix, defStart, defEnd string) (Period, error) {
	startKey, endKey := prefix+"_START", prefix+"_END"
	start, err := time.Parse(dateLayout, sharedcfg.EnvOrDefault(startKey, defStart))
	if err != nil {
		return Period{}, fmt.Errorf("invalid %s", startKey)
	}
	end, err := time.Parse(dateLayout, sharedcfg.EnvOrDefault(endKey, defEnd))
	if err != nil {
		return Period{}, fmt.Errorf("invalid %s", endKey)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("%s is before %s", endKey, startKey)
	}
	return Period{Start: start, End: end}, nil
}
