// Package aggregator fans a fetch request out across the configured
// adapters and concatenates their results. Adapters are isolated from
// each other: one provider failing or being unconfigured never blocks
// the rest.
package aggregator

import (
	"context"
	"log"
	"sync"

	"newsagg/internal/models"
	"newsagg/internal/provider"
)

type Aggregator struct {
	adapters []provider.Adapter
	enabled  map[models.Source]bool
}

// New builds an aggregator over the given adapter set. The enabled
// set is an explicit configuration value, separate from each
// adapter's own key/URL presence check.
func New(adapters []provider.Adapter, enabled []models.Source) *Aggregator {
	enabledSet := make(map[models.Source]bool, len(enabled))
	for _, source := range enabled {
		enabledSet[source] = true
	}
	return &Aggregator{
		adapters: adapters,
		enabled:  enabledSet,
	}
}

// IsEnabled reports whether a source is toggled on in configuration.
func (a *Aggregator) IsEnabled(source models.Source) bool {
	return a.enabled[source]
}

// ActiveAdapters returns the adapters that are both enabled and
// configured.
func (a *Aggregator) ActiveAdapters() []provider.Adapter {
	var active []provider.Adapter
	for _, adapter := range a.adapters {
		if !a.enabled[adapter.Source()] {
			continue
		}
		if !adapter.IsConfigured() {
			log.Printf("Skipping %s: enabled but not configured", adapter.Source())
			continue
		}
		active = append(active, adapter)
	}
	return active
}

// SourceInfos describes every known source with its enabled status.
func (a *Aggregator) SourceInfos() []models.SourceInfo {
	infos := make([]models.SourceInfo, 0, len(models.Sources()))
	for _, source := range models.Sources() {
		infos = append(infos, models.SourceInfo{
			ID:      source,
			Name:    source.Label(),
			Enabled: a.enabled[source],
		})
	}
	return infos
}

// FetchAll fetches from every active adapter and concatenates the
// results. No ordering is guaranteed across sources.
func (a *Aggregator) FetchAll(ctx context.Context, limit int) []models.Article {
	var all []models.Article
	for _, articles := range a.FetchBySource(ctx, limit) {
		all = append(all, articles...)
	}
	return all
}

// FetchBySource fetches from every active adapter concurrently and
// returns the results keyed by source.
func (a *Aggregator) FetchBySource(ctx context.Context, limit int) map[models.Source][]models.Article {
	active := a.ActiveAdapters()

	type result struct {
		source   models.Source
		articles []models.Article
	}

	var wg sync.WaitGroup
	results := make(chan result, len(active))

	for _, adapter := range active {
		wg.Add(1)
		go func(adapter provider.Adapter) {
			defer wg.Done()
			results <- result{
				source:   adapter.Source(),
				articles: adapter.Fetch(ctx, provider.FetchParams{Limit: limit}),
			}
		}(adapter)
	}

	wg.Wait()
	close(results)

	fetched := make(map[models.Source][]models.Article, len(active))
	for r := range results {
		fetched[r.source] = r.articles
	}
	return fetched
}

// FetchOne fetches from a single source. A disabled, unknown or
// unconfigured source yields an empty result.
func (a *Aggregator) FetchOne(ctx context.Context, source models.Source, limit int) []models.Article {
	if !a.enabled[source] {
		return nil
	}
	for _, adapter := range a.adapters {
		if adapter.Source() != source {
			continue
		}
		if !adapter.IsConfigured() {
			log.Printf("Source %s requested but not configured", source)
			return nil
		}
		return adapter.Fetch(ctx, provider.FetchParams{Limit: limit})
	}
	return nil
}
