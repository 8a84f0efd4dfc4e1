package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"jobboard-ledger/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errStaleFill = errors.New("application changed since read")

func JobKey(jobID uint64) string {
	return fmt.Sprintf("ledger:job:%d", jobID)
}

func ApplicationKey(applicationID uint64) string {
	return fmt.Sprintf("ledger:application:%d", applicationID)
}

// ApplicationVersionKey counts status changes. It has no TTL: an expired
// counter could repeat a value a pending fill still holds.
func ApplicationVersionKey(applicationID uint64) string {
	return fmt.Sprintf("ledger:application:%d:version", applicationID)
}

func (c *Cache) GetJob(ctx context.Context, jobID uint64) (*models.JobListing, error) {
	var job models.JobListing
	err := c.Get(ctx, JobKey(jobID), &job)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// SetJob caches a closed listing. Active ones are refused since a close
// elsewhere would leave the copy stale.
func (c *Cache) SetJob(ctx context.Context, job *models.JobListing) error {
	if job.IsActive {
		return fmt.Errorf("job %d is active, not cacheable", job.JobID)
	}
	return c.Set(ctx, JobKey(job.JobID), job, c.ttl)
}

func (c *Cache) GetApplication(ctx context.Context, applicationID uint64) (*models.JobApplication, error) {
	var app models.JobApplication
	err := c.Get(ctx, ApplicationKey(applicationID), &app)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *Cache) ApplicationVersion(ctx context.Context, applicationID uint64) (uint64, error) {
	key := ApplicationVersionKey(applicationID)

	version, err := c.client.Get(ctx, key).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		c.logger.Error("failed to get application version",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0, fmt.Errorf("get application version: %w", err)
	}

	return version, nil
}

// SetApplication stores app only if its version still equals version.
// A lost race is not an error: the fill is dropped.
func (c *Cache) SetApplication(ctx context.Context, app *models.JobApplication, version uint64) error {
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	versionKey := ApplicationVersionKey(app.ApplicationID)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Uint64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errStaleFill
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ApplicationKey(app.ApplicationID), data, c.ttl)
			return nil
		})
		return err
	}, versionKey)

	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		c.logger.Debug("stale application fill dropped",
			zap.Uint64("application_id", app.ApplicationID),
			zap.Uint64("version", version),
		)
		return nil
	}

	if err != nil {
		c.logger.Error("failed to set application",
			zap.Uint64("application_id", app.ApplicationID),
			zap.Error(err),
		)
		return fmt.Errorf("set application: %w", err)
	}

	return nil
}

// InvalidateApplication bumps the version and drops the cached copy in one
// transaction.
func (c *Cache) InvalidateApplication(ctx context.Context, applicationID uint64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, ApplicationVersionKey(applicationID))
		pipe.Del(ctx, ApplicationKey(applicationID))
		return nil
	})
	if err != nil {
		c.logger.Error("failed to invalidate application",
			zap.Uint64("application_id", applicationID),
			zap.Error(err),
		)
		return fmt.Errorf("invalidate application: %w", err)
	}

	return nil
}
