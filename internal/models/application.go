package models

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "Pending"
	StatusInterviewed ApplicationStatus = "Interviewed"
	StatusHired       ApplicationStatus = "Hired"
	StatusRejected    ApplicationStatus = "Rejected"
)

type JobApplication struct {
	ApplicationID uint64            `db:"application_id" json:"application_id"`
	JobID         uint64            `db:"job_id" json:"job_id"`
	Applicant     string            `db:"applicant" json:"applicant"`
	Status        ApplicationStatus `db:"status" json:"status"` // free text, see IsKnown
}

func StatusOptions() []ApplicationStatus {
	return []ApplicationStatus{
		StatusPending,
		StatusInterviewed,
		StatusHired,
		StatusRejected,
	}
}

// IsKnown reports whether s is one of the canonical statuses.
// Unknown values are still storable.
func (s ApplicationStatus) IsKnown() bool {
	for _, opt := range StatusOptions() {
		if s == opt {
			return true
		}
	}
	return false
}
