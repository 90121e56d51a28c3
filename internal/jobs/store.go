// Package jobs tracks the status of every conversion unit accepted by the
// API. The table lives in memory for the lifetime of the process; jobs are
// mutated only by the worker that owns them and never deleted.
package jobs

import (
	"sync"
	"time"

	"reelforge/internal/errs"
	"reelforge/internal/models"
)

// Store is the shared job-status table. One mutex guards the map and is held
// only across individual field mutations, never across an external call.
type Store struct {
	mu        sync.Mutex
	jobs      map[string]models.Job
	manifests map[string][]models.RowResult
	now       func() time.Time
}

// NewStore creates an empty status table.
func NewStore() *Store {
	return &Store{
		jobs:      make(map[string]models.Job),
		manifests: make(map[string][]models.RowResult),
		now:       time.Now,
	}
}

// Create registers a job in queued state.
func (s *Store) Create(id, filename string) models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := models.Job{
		ID:          id,
		Status:      models.StatusQueued,
		Message:     "Waiting in queue",
		Filename:    filename,
		LastUpdated: s.now(),
	}
	s.jobs[id] = job
	return job
}

// MarkProcessing transitions a job to processing.
func (s *Store) MarkProcessing(id string) {
	s.update(id, func(j *models.Job) {
		j.Status = models.StatusProcessing
		j.Message = "Processing"
	})
}

// MarkCompleted transitions a job to its terminal completed state with a
// download reference.
func (s *Store) MarkCompleted(id, message, downloadURL string) {
	s.update(id, func(j *models.Job) {
		j.Status = models.StatusCompleted
		j.Message = message
		j.DownloadURL = downloadURL
	})
}

// MarkError transitions a job to its terminal error state.
func (s *Store) MarkError(id, message string) {
	s.update(id, func(j *models.Job) {
		j.Status = models.StatusError
		j.Message = message
	})
}

func (s *Store) update(id string, fn func(*models.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(&job)
	job.LastUpdated = s.now()
	s.jobs[id] = job
}

// Get returns a snapshot of one job.
func (s *Store) Get(id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, &errs.ResourceNotFoundError{ID: id}
	}
	return job, nil
}

// Count reports the number of tracked jobs (not necessarily still queued).
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// CountProcessing reports how many jobs are currently in processing state.
func (s *Store) CountProcessing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if j.Status == models.StatusProcessing {
			n++
		}
	}
	return n
}

// PutManifest stores the per-row manifest of a batch job.
func (s *Store) PutManifest(id string, rows []models.RowResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[id] = rows
}

// Manifest returns the per-row manifest of a batch job.
func (s *Store) Manifest(id string) ([]models.RowResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.manifests[id]
	if !ok {
		return nil, &errs.ResourceNotFoundError{ID: id}
	}
	return rows, nil
}
