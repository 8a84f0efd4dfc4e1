package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

type JobListing struct {
	JobID          uint64 `db:"job_id" json:"job_id"`
	Title          string `db:"title" json:"title"`
	Description    string `db:"description" json:"description"`
	Employer       string `db:"employer" json:"employer"`
	ApplicationFee Amount `db:"application_fee" json:"application_fee"`
	IsActive       bool   `db:"is_active" json:"is_active"`
}

// Amount is a fee in the platform base unit.
// Stored as decimal text so the whole uint64 range survives SQL drivers.
type Amount uint64

func (a Amount) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(a), 10), nil
}

func (a *Amount) Scan(value interface{}) error {
	var s string

	switch v := value.(type) {
	case nil:
		*a = 0
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount: %d", v)
		}
		*a = Amount(v)
		return nil
	default:
		return fmt.Errorf("unsupported amount type %T", value)
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, err)
	}

	*a = Amount(n)
	return nil
}

// Counters are the id high-water marks; zero when nothing was issued yet.
type Counters struct {
	JobListings  uint64 `json:"job_listing_count"`
	Applications uint64 `json:"application_count"`
}
