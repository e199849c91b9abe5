package constants

// JobStatus is the canonical status for rows in scan_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusExtracted JobStatus = "EXTRACTED" // all phases completed
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// JobStatusStrings lists every status value in lifecycle order.
func JobStatusStrings() []string {
	return []string{
		string(JobStatusQueued),
		string(JobStatusRunning),
		string(JobStatusExtracted),
		string(JobStatusFailed),
	}
}
