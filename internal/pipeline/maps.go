package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/climate-atlas/internal/config"
	"github.com/couchcryptid/climate-atlas/internal/domain"
	"github.com/couchcryptid/climate-atlas/internal/observability"
)

// MapConfig parameterizes a map generation run.
type MapConfig struct {
	MaxElevation     int
	SampleSize       int
	Mode             domain.AggregationMode
	WeatherPeriod    config.Period
	AirQualityPeriod config.Period
	Catalog          []domain.MapSpec

	// Regions restricts the run. Empty means every known region.
	Regions []domain.Region
}

// MapPipeline samples every region, aggregates what the catalog needs and
// classifies one map per catalog entry.
type MapPipeline struct {
	sources    Sources
	publishers []Publisher
	cfg        MapConfig
	sampler    *domain.Sampler
	aggregator *domain.Aggregator
	logger     *slog.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer
	ready      atomic.Bool
	latest     atomic.Pointer[[]domain.MapResult]
}

// NewMapPipeline wires the sampler and aggregator over sources.
func NewMapPipeline(sources Sources, cfg MapConfig, logger *slog.Logger, metrics *observability.Metrics, publishers ...Publisher) *MapPipeline {
	resolver := countingResolver{
		next:    domain.NewResolver(sources.Geocoder, domain.SamplingSearchCount, domain.RequireElevation, logger),
		metrics: metrics,
	}
	sampler := domain.NewSampler(resolver, logger)
	sampler.OnRelax = func(region domain.Region, _ int) {
		metrics.SamplerRelaxations.WithLabelValues(string(region.Code)).Inc()
	}
	aggregator := domain.NewAggregator(cfg.Mode, logger)
	aggregator.OnDrop = func(time.Time, string) {
		metrics.DaysDropped.Inc()
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = domain.Regions()
	}
	return &MapPipeline{
		sources:    sources,
		publishers: publishers,
		cfg:        cfg,
		sampler:    sampler,
		aggregator: aggregator,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer(observability.TracerName),
	}
}

// CheckReadiness returns nil once a run has published its maps.
func (p *MapPipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no map has been published yet")
	}
	return nil
}

// Latest returns the maps of the last successful run, nil before any.
func (p *MapPipeline) Latest() []domain.MapResult {
	if maps := p.latest.Load(); maps != nil {
		return *maps
	}
	return nil
}

// needs lists the metric sources the catalog draws from.
type needs struct {
	weather    bool
	airQuality bool
	registries []domain.RegistryDataset
}

func catalogNeeds(catalog []domain.MapSpec) needs {
	var n needs
	seen := map[string]bool{}
	for _, spec := range catalog {
		source, rest, _ := strings.Cut(spec.Metric, ".")
		switch source {
		case "winter", "summer":
			n.weather = true
		case "air_quality":
			n.airQuality = true
		case "registry":
			if seen[rest] {
				continue
			}
			seen[rest] = true
			switch rest {
			case domain.GASPAR.Name:
				n.registries = append(n.registries, domain.GASPAR)
			case domain.BASOL.Name:
				n.registries = append(n.registries, domain.BASOL)
			}
		}
	}
	return n
}

// Run builds every map of the catalog and hands them to the publishers.
func (p *MapPipeline) Run(ctx context.Context) ([]domain.MapResult, error) {
	p.logger.Info("pipeline started",
		"maps", len(p.cfg.Catalog),
		"regions", len(p.cfg.Regions),
		"mode", p.cfg.Mode.String(),
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ctx, span := p.tracer.Start(ctx, "pipeline.maps")
	defer span.End()

	maps, err := p.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	p.latest.Store(&maps)
	p.ready.Store(true)
	return maps, nil
}

func (p *MapPipeline) run(ctx context.Context) ([]domain.MapResult, error) {
	start := time.Now()
	need := catalogNeeds(p.cfg.Catalog)
	metrics := domain.RegionMetrics{Registry: make(map[string]*domain.RegionTable[int])}

	if need.weather || need.airQuality {
		if need.weather {
			metrics.Winter = domain.NewRegionTable[domain.SeasonalSummary]()
			metrics.Summer = domain.NewRegionTable[domain.SeasonalSummary]()
		}
		if need.airQuality {
			metrics.AirQuality = domain.NewRegionTable[domain.AirQualitySummary]()
		}
		for _, region := range p.cfg.Regions {
			if err := p.processRegion(ctx, region, need, metrics); err != nil {
				return nil, fmt.Errorf("region %s: %w", region.Code, err)
			}
		}
	}

	for _, dataset := range need.registries {
		counts, err := p.countRegistry(ctx, dataset)
		if err != nil {
			return nil, err
		}
		metrics.Registry[dataset.Name] = counts
	}

	maps := make([]domain.MapResult, 0, len(p.cfg.Catalog))
	for _, spec := range p.cfg.Catalog {
		m, err := domain.BuildMap(spec, metrics)
		if err != nil {
			return nil, err
		}
		p.metrics.MapsGenerated.Inc()
		maps = append(maps, m)
	}

	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, maps); err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
	}
	p.metrics.MapsPublished.Add(float64(len(maps)))

	p.logger.Info("pipeline finished", "maps", len(maps), "duration", time.Since(start))
	return maps, nil
}

// processRegion samples one region and folds the per-place aggregates into
// the region tables. A region either contributes all its places or fails.
func (p *MapPipeline) processRegion(ctx context.Context, region domain.Region, need needs, metrics domain.RegionMetrics) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.region",
		trace.WithAttributes(attribute.String("region", string(region.Code))))
	defer span.End()

	communes, err := p.sources.Communes.Communes(ctx, region.Code)
	if err != nil {
		return err
	}
	places, err := p.sampler.Sample(ctx, region, communes, p.cfg.MaxElevation, p.cfg.SampleSize)
	if err != nil {
		return err
	}
	if len(places) == 0 {
		return fmt.Errorf("no place sampled among %d communes", len(communes))
	}
	span.SetAttributes(attribute.Int("places", len(places)))
	p.logger.Info("region sampled", "region", region.Code, "name", region.Name, "places", len(places))

	if need.weather {
		winter, summer, err := p.regionWeather(ctx, places)
		if err != nil {
			return err
		}
		if err := metrics.Winter.Set(region.Code, winter); err != nil {
			return err
		}
		if err := metrics.Summer.Set(region.Code, summer); err != nil {
			return err
		}
		p.metrics.RegionsProcessed.WithLabelValues("weather").Inc()
	}

	if need.airQuality {
		aq, err := p.regionAirQuality(ctx, places)
		if err != nil {
			return err
		}
		if err := metrics.AirQuality.Set(region.Code, aq); err != nil {
			return err
		}
		p.metrics.RegionsProcessed.WithLabelValues("air_quality").Inc()
	}
	return nil
}

func (p *MapPipeline) regionWeather(ctx context.Context, places []domain.Place) (winter, summer domain.SeasonalSummary, err error) {
	period := p.cfg.WeatherPeriod
	winters := make([]domain.SeasonalSummary, 0, len(places))
	summers := make([]domain.SeasonalSummary, 0, len(places))
	for _, place := range places {
		series, err := p.sources.Weather.DailyWeather(ctx, place.Latitude, place.Longitude, period.Start, period.End)
		if err != nil {
			return winter, summer, fmt.Errorf("weather of %s: %w", place.Name, err)
		}
		w, s, err := p.aggregator.Aggregate(series)
		if err != nil {
			return winter, summer, fmt.Errorf("weather of %s: %w", place.Name, err)
		}
		winters = append(winters, w)
		summers = append(summers, s)
	}
	if winter, err = domain.AverageSummaries(winters); err != nil {
		return winter, summer, err
	}
	summer, err = domain.AverageSummaries(summers)
	return winter, summer, err
}

func (p *MapPipeline) regionAirQuality(ctx context.Context, places []domain.Place) (domain.AirQualitySummary, error) {
	period := p.cfg.AirQualityPeriod
	summaries := make([]domain.AirQualitySummary, 0, len(places))
	for _, place := range places {
		hourly, err := p.sources.AirQuality.HourlyAirQuality(ctx, place.Latitude, place.Longitude, period.Start, period.End)
		if err != nil {
			return nil, fmt.Errorf("air quality of %s: %w", place.Name, err)
		}
		s, err := domain.SummarizeAirQuality(hourly)
		if err != nil {
			return nil, fmt.Errorf("air quality of %s: %w", place.Name, err)
		}
		summaries = append(summaries, s)
	}
	return domain.AverageAirQuality(summaries)
}

func (p *MapPipeline) countRegistry(ctx context.Context, dataset domain.RegistryDataset) (*domain.RegionTable[int], error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.registry",
		trace.WithAttributes(attribute.String("dataset", dataset.Name)))
	defer span.End()

	rows, err := p.sources.Registries.Rows(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("%s registry: %w", dataset.Name, err)
	}
	counts, err := domain.CountByDepartment(rows, dataset, p.logger)
	if err != nil {
		return nil, fmt.Errorf("%s registry: %w", dataset.Name, err)
	}
	return counts, nil
}
