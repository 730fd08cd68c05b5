// Package ingest owns the ingestion run: fetch from the configured
// providers, merge into the store, report per-source counts. At most
// one run executes across the deployment at a time.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"newsagg/internal/aggregator"
	"newsagg/internal/cache"
	"newsagg/internal/models"
	"newsagg/internal/storage"
)

// ErrRunInProgress is returned when a trigger overlaps a running
// ingestion; the overlapping run is skipped, not queued.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// Options scopes a single run.
type Options struct {
	// Source restricts the run to one provider when set.
	Source *models.Source
	// Limit caps articles fetched per source; 0 means the configured
	// default.
	Limit int
}

type Service struct {
	aggregator   *aggregator.Aggregator
	storage      storage.Storage
	cacheManager *cache.Manager
	defaultLimit int

	mu sync.Mutex
}

func New(agg *aggregator.Aggregator, store storage.Storage, cacheManager *cache.Manager, defaultLimit int) *Service {
	return &Service{
		aggregator:   agg,
		storage:      store,
		cacheManager: cacheManager,
		defaultLimit: defaultLimit,
	}
}

// Run executes one ingestion pass. Adapter failures surface as empty
// per-source results and never fail the run; a store failure aborts
// the run and propagates.
func (s *Service) Run(ctx context.Context, opts Options) (*models.IngestReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	fetched := make(map[models.Source][]models.Article)
	if opts.Source != nil {
		fetched[*opts.Source] = s.aggregator.FetchOne(ctx, *opts.Source, limit)
	} else {
		fetched = s.aggregator.FetchBySource(ctx, limit)
	}

	report := &models.IngestReport{Sources: make(map[models.Source]models.SourceReport)}

	for _, source := range models.Sources() {
		articles, ok := fetched[source]
		if !ok {
			continue
		}

		merged, err := s.storage.UpsertArticles(articles)
		if err != nil {
			return nil, fmt.Errorf("failed to merge %s batch: %w", source, err)
		}

		report.Sources[source] = models.SourceReport{Fetched: len(articles), Merged: merged}
		report.Fetched += len(articles)
		report.Merged += merged
		log.Printf("Ingested %s: fetched %d, merged %d", source, len(articles), merged)
	}

	if report.Merged > 0 {
		s.cacheManager.Flush()
	}

	log.Printf("Ingestion run completed: fetched %d, merged %d", report.Fetched, report.Merged)
	return report, nil
}

// Cleanup removes articles published before now minus days and
// returns the deleted count.
func (s *Service) Cleanup(days int) (int64, error) {
	if days < 1 {
		return 0, fmt.Errorf("retention days must be positive, got %d", days)
	}

	deleted, err := s.storage.DeleteOlderThan(days)
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}

	if deleted > 0 {
		s.cacheManager.Flush()
	}
	return deleted, nil
}
