package sqldb

import (
	"context"
	"fmt"

	"jobboard-ledger/internal/ledger"
	"jobboard-ledger/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

func (t *tx) InsertApplication(ctx context.Context, app *models.JobApplication) error {
	_, err := t.tx.
		InsertInto("job_applications").
		Columns("application_id", "job_id", "applicant", "status").
		Values(app.ApplicationID, app.JobID, app.Applicant, string(app.Status)).
		ExecContext(ctx)

	if err != nil {
		t.store.logger.Error("failed to insert application",
			zap.Uint64("application_id", app.ApplicationID),
			zap.Uint64("job_id", app.JobID),
			zap.Error(err),
		)
		return fmt.Errorf("insert application: %w", err)
	}

	return nil
}

func (t *tx) GetApplication(ctx context.Context, applicationID uint64) (*models.JobApplication, error) {
	var app models.JobApplication

	err := t.tx.
		Select("application_id", "job_id", "applicant", "status").
		From("job_applications").
		Where("application_id = ?", applicationID).
		LoadOneContext(ctx, &app)

	if err == dbr.ErrNotFound {
		return nil, fmt.Errorf("application %d: %w", applicationID, ledger.ErrNotFound)
	}

	if err != nil {
		t.store.logger.Error("failed to get application",
			zap.Uint64("application_id", applicationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get application: %w", err)
	}

	return &app, nil
}

func (t *tx) SetApplicationStatus(ctx context.Context, applicationID uint64, status models.ApplicationStatus) error {
	result, err := t.tx.
		Update("job_applications").
		Set("status", string(status)).
		Where("application_id = ?", applicationID).
		ExecContext(ctx)

	if err != nil {
		t.store.logger.Error("failed to set application status",
			zap.Uint64("application_id", applicationID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return fmt.Errorf("set application status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("application %d: %w", applicationID, ledger.ErrNotFound)
	}

	return nil
}
