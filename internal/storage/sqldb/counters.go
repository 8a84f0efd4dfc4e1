package sqldb

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	jobListingCounter  = "job_listing_count"
	applicationCounter = "application_count"
)

func (t *tx) NextJobID(ctx context.Context) (uint64, error) {
	return t.increment(ctx, jobListingCounter)
}

func (t *tx) NextApplicationID(ctx context.Context) (uint64, error) {
	return t.increment(ctx, applicationCounter)
}

// increment bumps the named counter and returns the new value. The row
// stays locked until the transaction ends.
func (t *tx) increment(ctx context.Context, name string) (uint64, error) {
	query := `
		INSERT INTO ledger_counters (name, value)
		VALUES (?, 1)
		ON CONFLICT (name)
		DO UPDATE SET value = ledger_counters.value + 1
		RETURNING value
	`

	var value uint64
	err := t.tx.
		SelectBySql(query, name).
		LoadOneContext(ctx, &value)
	if err != nil {
		t.store.logger.Error("failed to increment counter",
			zap.String("counter", name),
			zap.Error(err),
		)
		return 0, fmt.Errorf("increment %s: %w", name, err)
	}

	return value, nil
}
