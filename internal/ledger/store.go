package ledger

import (
	"context"

	"jobboard-ledger/internal/models"
)

// Store is the durable side of the ledger. Every mutation goes through
// WithinTx: fn's writes commit together when it returns nil and are
// discarded otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Counters(ctx context.Context) (models.Counters, error)
	Close() error
}

// Tx addresses single records by id. Getters return ErrNotFound for ids
// that have no record.
type Tx interface {
	NextJobID(ctx context.Context) (uint64, error)
	NextApplicationID(ctx context.Context) (uint64, error)

	InsertJob(ctx context.Context, job *models.JobListing) error
	GetJob(ctx context.Context, jobID uint64, forUpdate bool) (*models.JobListing, error)
	SetJobActive(ctx context.Context, jobID uint64, active bool) error

	InsertApplication(ctx context.Context, app *models.JobApplication) error
	GetApplication(ctx context.Context, applicationID uint64) (*models.JobApplication, error)
	SetApplicationStatus(ctx context.Context, applicationID uint64, status models.ApplicationStatus) error
}

// Cache holds copies of records for point lookups. A miss is (nil, nil).
//
// Only closed listings are stored: nothing about them changes again.
// Application fills are guarded by a per-application version. Read the
// version before loading the record from the store; SetApplication drops
// the fill if InvalidateApplication bumped it in between.
type Cache interface {
	GetJob(ctx context.Context, jobID uint64) (*models.JobListing, error)
	SetJob(ctx context.Context, job *models.JobListing) error

	GetApplication(ctx context.Context, applicationID uint64) (*models.JobApplication, error)
	ApplicationVersion(ctx context.Context, applicationID uint64) (uint64, error)
	SetApplication(ctx context.Context, app *models.JobApplication, version uint64) error
	InvalidateApplication(ctx context.Context, applicationID uint64) error
}
