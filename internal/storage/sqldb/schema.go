package sqldb

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_counters (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS job_listings (
	job_id          BIGINT PRIMARY KEY,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL,
	employer        TEXT NOT NULL,
	application_fee %s NOT NULL,
	is_active       BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS job_applications (
	application_id BIGINT PRIMARY KEY,
	job_id         BIGINT NOT NULL REFERENCES job_listings (job_id),
	applicant      TEXT NOT NULL,
	status         TEXT NOT NULL
);
`

func (s *Store) migrate(ctx context.Context) error {
	// sqlite has no exact integer wider than int64
	feeType := "NUMERIC(20, 0)"
	if s.driver == DriverSQLite {
		feeType = "TEXT"
	}

	_, err := s.conn.ExecContext(ctx, fmt.Sprintf(schema, feeType))
	return err
}
