package sqldb

import (
	"context"
	"fmt"

	"jobboard-ledger/internal/ledger"
	"jobboard-ledger/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

func (t *tx) InsertJob(ctx context.Context, job *models.JobListing) error {
	_, err := t.tx.
		InsertInto("job_listings").
		Columns("job_id", "title", "description", "employer", "application_fee", "is_active").
		Values(job.JobID, job.Title, job.Description, job.Employer, job.ApplicationFee, job.IsActive).
		ExecContext(ctx)

	if err != nil {
		t.store.logger.Error("failed to insert job",
			zap.Uint64("job_id", job.JobID),
			zap.Error(err),
		)
		return fmt.Errorf("insert job: %w", err)
	}

	return nil
}

func (t *tx) GetJob(ctx context.Context, jobID uint64, forUpdate bool) (*models.JobListing, error) {
	query := `
		SELECT job_id, title, description, employer, application_fee, is_active
		FROM job_listings
		WHERE job_id = ?
	`
	// sqlite transactions already hold the database write lock
	if forUpdate && t.store.driver == DriverPostgres {
		query += " FOR UPDATE"
	}

	var job models.JobListing
	err := t.tx.
		SelectBySql(query, jobID).
		LoadOneContext(ctx, &job)

	if err == dbr.ErrNotFound {
		return nil, fmt.Errorf("job %d: %w", jobID, ledger.ErrNotFound)
	}

	if err != nil {
		t.store.logger.Error("failed to get job",
			zap.Uint64("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get job: %w", err)
	}

	return &job, nil
}

func (t *tx) SetJobActive(ctx context.Context, jobID uint64, active bool) error {
	result, err := t.tx.
		Update("job_listings").
		Set("is_active", active).
		Where("job_id = ?", jobID).
		ExecContext(ctx)

	if err != nil {
		t.store.logger.Error("failed to set job active",
			zap.Uint64("job_id", jobID),
			zap.Bool("active", active),
			zap.Error(err),
		)
		return fmt.Errorf("set job active: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("job %d: %w", jobID, ledger.ErrNotFound)
	}

	return nil
}
