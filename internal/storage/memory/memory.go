package memory

import (
	"context"
	"fmt"
	"sync"

	"jobboard-ledger/internal/ledger"
	"jobboard-ledger/internal/models"
)

// Store keeps the ledger in process memory. Nothing survives a restart.
type Store struct {
	mu           sync.Mutex
	counters     models.Counters
	jobs         map[uint64]models.JobListing
	applications map[uint64]models.JobApplication
}

func New() *Store {
	return &Store{
		jobs:         make(map[uint64]models.JobListing),
		applications: make(map[uint64]models.JobApplication),
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Counters(ctx context.Context) (models.Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters, nil
}

// WithinTx runs fn against a staging overlay and merges it only on success.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &tx{
		store:        s,
		counters:     s.counters,
		jobs:         make(map[uint64]models.JobListing),
		applications: make(map[uint64]models.JobApplication),
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.counters = tx.counters
	for id, job := range tx.jobs {
		s.jobs[id] = job
	}
	for id, app := range tx.applications {
		s.applications[id] = app
	}

	return nil
}

type tx struct {
	store        *Store
	counters     models.Counters
	jobs         map[uint64]models.JobListing
	applications map[uint64]models.JobApplication
}

func (t *tx) NextJobID(ctx context.Context) (uint64, error) {
	t.counters.JobListings++
	return t.counters.JobListings, nil
}

func (t *tx) NextApplicationID(ctx context.Context) (uint64, error) {
	t.counters.Applications++
	return t.counters.Applications, nil
}

func (t *tx) InsertJob(ctx context.Context, job *models.JobListing) error {
	if _, err := t.GetJob(ctx, job.JobID, false); err == nil {
		return fmt.Errorf("insert job %d: duplicate id", job.JobID)
	}

	t.jobs[job.JobID] = *job
	return nil
}

func (t *tx) GetJob(ctx context.Context, jobID uint64, forUpdate bool) (*models.JobListing, error) {
	job, ok := t.jobs[jobID]
	if !ok {
		job, ok = t.store.jobs[jobID]
	}
	if !ok {
		return nil, fmt.Errorf("job %d: %w", jobID, ledger.ErrNotFound)
	}

	return &job, nil
}

func (t *tx) SetJobActive(ctx context.Context, jobID uint64, active bool) error {
	job, err := t.GetJob(ctx, jobID, true)
	if err != nil {
		return err
	}

	job.IsActive = active
	t.jobs[jobID] = *job
	return nil
}

func (t *tx) InsertApplication(ctx context.Context, app *models.JobApplication) error {
	if _, err := t.GetApplication(ctx, app.ApplicationID); err == nil {
		return fmt.Errorf("insert application %d: duplicate id", app.ApplicationID)
	}

	t.applications[app.ApplicationID] = *app
	return nil
}

func (t *tx) GetApplication(ctx context.Context, applicationID uint64) (*models.JobApplication, error) {
	app, ok := t.applications[applicationID]
	if !ok {
		app, ok = t.store.applications[applicationID]
	}
	if !ok {
		return nil, fmt.Errorf("application %d: %w", applicationID, ledger.ErrNotFound)
	}

	return &app, nil
}

func (t *tx) SetApplicationStatus(ctx context.Context, applicationID uint64, status models.ApplicationStatus) error {
	app, err := t.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}

	app.Status = status
	t.applications[applicationID] = *app
	return nil
}
