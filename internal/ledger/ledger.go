package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jobboard-ledger/internal/models"

	"go.uber.org/zap"
)

// Ledger owns job listings, applications and their id counters.
// Operations are serialized: one writer per ledger.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	cache  Cache
	logger *zap.Logger
}

// New creates a ledger over store. cache may be nil.
func New(store Store, cache Cache, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (l *Ledger) PostJob(ctx context.Context, title, description, employer string, fee models.Amount) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var job *models.JobListing

	err := l.store.WithinTx(ctx, func(tx Tx) error {
		id, err := tx.NextJobID(ctx)
		if err != nil {
			return err
		}

		job = &models.JobListing{
			JobID:          id,
			Title:          title,
			Description:    description,
			Employer:       employer,
			ApplicationFee: fee,
			IsActive:       true,
		}

		return tx.InsertJob(ctx, job)
	})
	if err != nil {
		l.logger.Error("failed to post job",
			zap.String("employer", employer),
			zap.Error(err),
		)
		return 0, fmt.Errorf("post job: %w", err)
	}

	l.logger.Info("job posted",
		zap.Uint64("job_id", job.JobID),
		zap.String("title", title),
		zap.String("employer", employer),
		zap.Uint64("application_fee", uint64(fee)),
	)

	return job.JobID, nil
}

func (l *Ledger) ApplyForJob(ctx context.Context, jobID uint64, applicant string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var appID uint64

	err := l.store.WithinTx(ctx, func(tx Tx) error {
		// lock the listing so a concurrent close cannot slip in between
		job, err := tx.GetJob(ctx, jobID, true)
		if err != nil {
			return err
		}

		if !job.IsActive {
			return fmt.Errorf("job %d is closed: %w", jobID, ErrInvalidState)
		}

		appID, err = tx.NextApplicationID(ctx)
		if err != nil {
			return err
		}

		return tx.InsertApplication(ctx, &models.JobApplication{
			ApplicationID: appID,
			JobID:         jobID,
			Applicant:     applicant,
			Status:        models.StatusPending,
		})
	})
	if err != nil {
		l.logFailure("failed to apply for job", err,
			zap.Uint64("job_id", jobID),
			zap.String("applicant", applicant),
		)
		return 0, fmt.Errorf("apply for job %d: %w", jobID, err)
	}

	l.logger.Info("application received",
		zap.Uint64("application_id", appID),
		zap.Uint64("job_id", jobID),
		zap.String("applicant", applicant),
	)

	return appID, nil
}

// UpdateApplicationStatus overwrites the status. Any value and any
// transition is accepted.
func (l *Ledger) UpdateApplicationStatus(ctx context.Context, applicationID uint64, status models.ApplicationStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.GetApplication(ctx, applicationID); err != nil {
			return err
		}
		return tx.SetApplicationStatus(ctx, applicationID, status)
	})
	if err != nil {
		l.logFailure("failed to update application status", err,
			zap.Uint64("application_id", applicationID),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update application %d status: %w", applicationID, err)
	}

	l.invalidateApplication(ctx, applicationID)

	if !status.IsKnown() {
		l.logger.Warn("application status outside canonical set",
			zap.Uint64("application_id", applicationID),
			zap.String("status", string(status)),
		)
	}

	l.logger.Info("application status updated",
		zap.Uint64("application_id", applicationID),
		zap.String("status", string(status)),
	)

	return nil
}

// CloseJob marks the listing inactive. Closing a closed listing is a no-op.
func (l *Ledger) CloseJob(ctx context.Context, jobID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var alreadyClosed bool

	err := l.store.WithinTx(ctx, func(tx Tx) error {
		job, err := tx.GetJob(ctx, jobID, true)
		if err != nil {
			return err
		}

		if !job.IsActive {
			alreadyClosed = true
			return nil
		}

		return tx.SetJobActive(ctx, jobID, false)
	})
	if err != nil {
		l.logFailure("failed to close job", err, zap.Uint64("job_id", jobID))
		return fmt.Errorf("close job %d: %w", jobID, err)
	}

	if alreadyClosed {
		l.logger.Debug("job already closed", zap.Uint64("job_id", jobID))
		return nil
	}

	l.logger.Info("job closed", zap.Uint64("job_id", jobID))

	return nil
}

func (l *Ledger) ViewJob(ctx context.Context, jobID uint64) (*models.JobListing, error) {
	if l.cache != nil {
		cached, err := l.cache.GetJob(ctx, jobID)
		if err != nil {
			l.logger.Warn("job cache read failed",
				zap.Uint64("job_id", jobID),
				zap.Error(err),
			)
		}
		if cached != nil {
			return cached, nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var job *models.JobListing

	err := l.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		job, err = tx.GetJob(ctx, jobID, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("view job %d: %w", jobID, err)
	}

	// active listings can still be closed, so they are never cached
	if l.cache != nil && !job.IsActive {
		if err := l.cache.SetJob(ctx, job); err != nil {
			l.logger.Warn("job cache write failed",
				zap.Uint64("job_id", jobID),
				zap.Error(err),
			)
		}
	}

	return job, nil
}

func (l *Ledger) ViewApplication(ctx context.Context, applicationID uint64) (*models.JobApplication, error) {
	fill := l.cache != nil

	if fill {
		cached, err := l.cache.GetApplication(ctx, applicationID)
		if err != nil {
			l.logger.Warn("application cache read failed",
				zap.Uint64("application_id", applicationID),
				zap.Error(err),
			)
		}
		if cached != nil {
			return cached, nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// the version must be read before the record
	var version uint64
	if fill {
		var err error
		version, err = l.cache.ApplicationVersion(ctx, applicationID)
		if err != nil {
			l.logger.Warn("application cache version read failed",
				zap.Uint64("application_id", applicationID),
				zap.Error(err),
			)
			fill = false
		}
	}

	var app *models.JobApplication

	err := l.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		app, err = tx.GetApplication(ctx, applicationID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("view application %d: %w", applicationID, err)
	}

	if fill {
		if err := l.cache.SetApplication(ctx, app, version); err != nil {
			l.logger.Warn("application cache write failed",
				zap.Uint64("application_id", applicationID),
				zap.Error(err),
			)
		}
	}

	return app, nil
}

// Counters returns the current id high-water marks.
func (l *Ledger) Counters(ctx context.Context) (models.Counters, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.store.Counters(ctx)
	if err != nil {
		return models.Counters{}, fmt.Errorf("get counters: %w", err)
	}

	return c, nil
}

func (l *Ledger) invalidateApplication(ctx context.Context, applicationID uint64) {
	if l.cache == nil {
		return
	}
	if err := l.cache.InvalidateApplication(ctx, applicationID); err != nil {
		l.logger.Warn("application cache invalidation failed",
			zap.Uint64("application_id", applicationID),
			zap.Error(err),
		)
	}
}

// logFailure keeps precondition failures out of the error log.
func (l *Ledger) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) {
		l.logger.Info(msg, fields...)
		return
	}

	l.logger.Error(msg, fields...)
}
