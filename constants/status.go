package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"    // queued for processing
	JobStatusRunning   JobStatus = "RUNNING"   // in progress
	JobStatusDone      JobStatus = "DONE"      // extraction finished, result stored
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
	JobStatusCancelled JobStatus = "CANCELLED" // caller asked to stop; not a failure
)

// JobStatuses holds the allowed values for the status field in extract_job.
var JobStatuses = []string{
	string(JobStatusQueued),
	string(JobStatusRunning),
	string(JobStatusDone),
	string(JobStatusFailed),
	string(JobStatusCancelled),
}
