// Package scheduler drives the periodic ingestion and retention
// cadence. Overlapping triggers are skipped by the ingest run guard,
// never queued.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"newsagg/internal/ingest"
)

type Scheduler struct {
	service         *ingest.Service
	fetchInterval   time.Duration
	cleanupInterval time.Duration
	retentionDays   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	running     bool
	lastFetch   time.Time
	lastCleanup time.Time
}

// Status is the scheduler state exposed over the API.
type Status struct {
	Running     bool       `json:"running"`
	LastFetch   *time.Time `json:"last_fetch,omitempty"`
	LastCleanup *time.Time `json:"last_cleanup,omitempty"`
}

func New(service *ingest.Service, fetchInterval, cleanupInterval time.Duration, retentionDays int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		service:         service,
		fetchInterval:   fetchInterval,
		cleanupInterval: cleanupInterval,
		retentionDays:   retentionDays,
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("Starting scheduler: fetch every %v, cleanup every %v (retention %d days)",
		s.fetchInterval, s.cleanupInterval, s.retentionDays)

	s.wg.Add(1)
	go s.loop()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Println("Stopping scheduler...")
	s.cancel()
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	fetchTicker := time.NewTicker(s.fetchInterval)
	defer fetchTicker.Stop()
	cleanupTicker := time.NewTicker(s.cleanupInterval)
	defer cleanupTicker.Stop()

	// Ingest immediately on start
	s.runIngestion()

	for {
		select {
		case <-fetchTicker.C:
			s.runIngestion()
		case <-cleanupTicker.C:
			s.runCleanup()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runIngestion() {
	_, err := s.service.Run(s.ctx, ingest.Options{})
	if errors.Is(err, ingest.ErrRunInProgress) {
		// The previous run is still going; skip this trigger.
		log.Println("Scheduled ingestion skipped: previous run still in progress")
		return
	}
	if err != nil {
		log.Printf("Scheduled ingestion failed: %v", err)
		return
	}

	s.mu.Lock()
	s.lastFetch = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) runCleanup() {
	deleted, err := s.service.Cleanup(s.retentionDays)
	if err != nil {
		log.Printf("Scheduled cleanup failed: %v", err)
		return
	}
	log.Printf("Scheduled cleanup deleted %d articles", deleted)

	s.mu.Lock()
	s.lastCleanup = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{Running: s.running}
	if !s.lastFetch.IsZero() {
		t := s.lastFetch
		status.LastFetch = &t
	}
	if !s.lastCleanup.IsZero() {
		t := s.lastCleanup
		status.LastCleanup = &t
	}
	return status
}
