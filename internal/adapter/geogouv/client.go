// Package geogouv lists the communes of a department from the French
// administrative registry API.
package geogouv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

// DefaultBaseURL is the public registry API.
const DefaultBaseURL = "https://geo.api.gouv.fr"

// Client implements domain.MunicipalityLister.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a registry client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Communes returns the communes of a department that report a population.
func (c *Client) Communes(ctx context.Context, code domain.RegionCode) ([]domain.Municipality, error) {
	u := fmt.Sprintf("%s/departements/%s/communes", c.baseURL, url.PathEscape(string(code)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("communes request for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.ExternalServiceError{
			Endpoint:   "communes",
			StatusCode: resp.StatusCode,
			Reason:     strings.TrimSpace(string(body)),
		}
	}

	var all []domain.Municipality
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("decode communes of %s: %w", code, err)
	}

	out := make([]domain.Municipality, 0, len(all))
	for _, m := range all {
		if m.Population != nil {
			out = append(out, m)
		}
	}
	c.logger.Debug("listed communes", "department", code, "total", len(all), "with_population", len(out))
	return out, nil
}
