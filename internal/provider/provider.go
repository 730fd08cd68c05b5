// Package provider contains one adapter per external news API. Each
// adapter normalizes its provider's raw JSON into canonical articles
// and absorbs its own failures: an unconfigured or failing adapter
// yields an empty result, never an error.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"newsagg/internal/config"
	"newsagg/internal/models"
)

// FetchParams bounds a single fetch call.
type FetchParams struct {
	Limit int
}

// Adapter is the per-provider capability surface.
type Adapter interface {
	Fetch(ctx context.Context, params FetchParams) []models.Article
	IsConfigured() bool
	Source() models.Source
}

// Registry resolves adapters by source through a static lookup table.
type Registry struct {
	adapters map[models.Source]Adapter
}

// NewRegistry builds the closed adapter set from configuration.
func NewRegistry(cfg *config.Config) *Registry {
	timeout := cfg.ProviderTimeout
	return &Registry{
		adapters: map[models.Source]Adapter{
			models.SourceNewsAPI:  NewNewsAPI(cfg.Sources[models.SourceNewsAPI], timeout),
			models.SourceGuardian: NewGuardian(cfg.Sources[models.SourceGuardian], timeout),
			models.SourceNYTimes:  NewNYTimes(cfg.Sources[models.SourceNYTimes], timeout),
		},
	}
}

// Get returns the adapter for a source.
func (r *Registry) Get(source models.Source) (Adapter, bool) {
	adapter, ok := r.adapters[source]
	return adapter, ok
}

// All returns every adapter in stable source order.
func (r *Registry) All() []Adapter {
	adapters := make([]Adapter, 0, len(r.adapters))
	for _, source := range models.Sources() {
		if adapter, ok := r.adapters[source]; ok {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}

// apiClient is the shared HTTP plumbing for all adapters.
type apiClient struct {
	httpClient *http.Client
	source     models.Source
}

func newAPIClient(source models.Source, timeout time.Duration) *apiClient {
	return &apiClient{
		httpClient: &http.Client{Timeout: timeout},
		source:     source,
	}
}

// getJSON performs a GET against endpoint and decodes the response
// body into out. Network errors, timeouts and non-2xx statuses are
// logged with the source and reported as errors for the adapter to
// absorb.
func (c *apiClient) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Request to %s provider failed: %v", c.source, err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the log, then discard.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("Request to %s provider returned status %d: %s", c.source, resp.StatusCode, string(body))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Printf("Failed to decode %s provider response: %v", c.source, err)
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// publishedTimeLayouts covers the timestamp formats the providers
// emit; NYTimes uses a zone offset without a colon.
var publishedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// parsePublishedAt parses a provider timestamp, defaulting to the
// current time when the value is missing or unparseable.
func parsePublishedAt(value string) time.Time {
	if value != "" {
		for _, layout := range publishedTimeLayouts {
			if ts, err := time.Parse(layout, value); err == nil {
				return ts
			}
		}
	}
	return time.Now().UTC()
}
