// Package openmeteo talks to the Open-Meteo geocoding, archive and air-quality
// services. Rate-limit responses are absorbed by waiting out the reported
// window and replaying the request.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/climate-atlas/internal/adapter/cache"
	"github.com/couchcryptid/climate-atlas/internal/domain"
	"github.com/couchcryptid/climate-atlas/internal/observability"
)

const userAgent = "climate-atlas/1.0"

// Endpoints are the service URLs used by the client.
type Endpoints struct {
	Geocoding  string
	Archive    string
	AirQuality string
}

// DefaultEndpoints returns the public Open-Meteo URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Geocoding:  "https://geocoding-api.open-meteo.com/v1/search",
		Archive:    "https://archive-api.open-meteo.com/v1/archive",
		AirQuality: "https://air-quality-api.open-meteo.com/v1/air-quality",
	}
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// APIKey is sent as the apikey parameter and switches every endpoint to
	// its "customer-" subdomain.
	APIKey    string
	Timeout   time.Duration
	Endpoints Endpoints
	// Cache stores successful response bodies. Nil disables caching.
	Cache   cache.Store
	Clock   clockwork.Clock
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// rateLimit is one of the windows the service reports when a quota is hit.
type rateLimit struct {
	tier   string
	marker string
	wait   time.Duration
}

var rateLimits = []rateLimit{
	{tier: "minutely", marker: "Minutely API request limit exceeded", wait: time.Minute},
	{tier: "hourly", marker: "Hourly API request limit exceeded", wait: time.Hour},
	{tier: "daily", marker: "Daily API request limit exceeded", wait: 24 * time.Hour},
}

// Client is the rate-limit aware Open-Meteo client.
type Client struct {
	http      *resty.Client
	apiKey    string
	endpoints Endpoints
	cache     cache.Store
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewClient creates a client from opts.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = DefaultEndpoints()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Client{
		apiKey:    opts.APIKey,
		endpoints: opts.Endpoints,
		cache:     opts.Cache,
		clock:     opts.Clock,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		tracer:    otel.Tracer(observability.TracerName),
	}

	c.http = resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout)

	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		label := endpointLabel(resp.Request.URL)
		c.metrics.APIDuration.WithLabelValues(label).Observe(resp.Time().Seconds())
		c.logger.Debug("weather service response",
			"endpoint", label,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
			"bytes", len(resp.Body()),
		)
		return nil
	})

	return c
}

// Fetch performs a GET on endpoint with params and decodes the JSON body.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	body, err := c.FetchRaw(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpointLabel(endpoint), err)
	}
	return out, nil
}

// FetchRaw performs a GET on endpoint with params and returns the body of
// the first successful response. Rate-limit responses block until the
// reported window elapses, then the identical request is replayed with no
// bound on attempts. Any other non-2xx response is an
// *domain.ExternalServiceError.
func (c *Client) FetchRaw(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	label := endpointLabel(endpoint)
	ctx, span := c.tracer.Start(ctx, "openmeteo.fetch", trace.WithAttributes(
		attribute.String("openmeteo.endpoint", label),
	))
	defer span.End()

	key := cacheKey(endpoint, params)
	if body, ok := c.cached(ctx, key); ok {
		span.SetAttributes(attribute.Bool("openmeteo.cached", true))
		return body, nil
	}

	target, query := c.authorize(endpoint, params)
	for {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParamsFromValues(query).
			Get(target)
		if err != nil {
			c.metrics.APIRequests.WithLabelValues(label, "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "request failed")
			return nil, fmt.Errorf("%s request: %w", label, err)
		}

		if resp.IsSuccess() {
			c.metrics.APIRequests.WithLabelValues(label, "success").Inc()
			body := resp.Body()
			c.store(ctx, key, body)
			return body, nil
		}

		reason := reasonOf(resp.Body(), resp.Status())
		limit, limited := matchRateLimit(reason)
		if !limited {
			c.metrics.APIRequests.WithLabelValues(label, "error").Inc()
			span.SetStatus(codes.Error, reason)
			return nil, &domain.ExternalServiceError{
				Endpoint:   label,
				StatusCode: resp.StatusCode(),
				Reason:     reason,
			}
		}

		c.metrics.APIRequests.WithLabelValues(label, "rate_limited").Inc()
		c.metrics.RateLimitWaits.WithLabelValues(limit.tier).Inc()
		span.AddEvent("rate limited", trace.WithAttributes(attribute.String("tier", limit.tier)))
		c.logger.Warn("rate limit reached, waiting",
			"endpoint", label,
			"tier", limit.tier,
			"wait", limit.wait,
		)
		if err := c.sleep(ctx, limit.wait); err != nil {
			return nil, err
		}
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("response cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return body, true
}

func (c *Client) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, key, body); err != nil {
		c.logger.Warn("response cache write failed", "error", err)
	}
}

// authorize adds the API key to a copy of params and moves endpoint to the
// customer subdomain. Without a key both are returned unchanged.
func (c *Client) authorize(endpoint string, params url.Values) (string, url.Values) {
	if c.apiKey == "" {
		return endpoint, params
	}
	query := make(url.Values, len(params)+1)
	for k, v := range params {
		query[k] = v
	}
	query.Set("apikey", c.apiKey)

	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, query
	}
	if !strings.HasPrefix(u.Host, "customer-") {
		u.Host = "customer-" + u.Host
	}
	return u.String(), query
}

// cacheKey identifies a request independently of the API key.
func cacheKey(endpoint string, params url.Values) string {
	return endpoint + "?" + params.Encode()
}

// endpointLabel shortens an endpoint URL to its last path segment, e.g.
// "archive".
func endpointLabel(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || strings.Trim(u.Path, "/") == "" {
		return endpoint
	}
	return path.Base(u.Path)
}

// reasonOf extracts the service's "reason" field, falling back to the raw
// body or the status line.
func reasonOf(body []byte, status string) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Reason != "" {
		return payload.Reason
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}

func matchRateLimit(reason string) (rateLimit, bool) {
	for _, l := range rateLimits {
		if strings.Contains(reason, l.marker) {
			return l, true
		}
	}
	return rateLimit{}, false
}
