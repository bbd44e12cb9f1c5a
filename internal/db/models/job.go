package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Field names for job queries
const (
	// JobIDField is the database field name for the external job identifier
	JobIDField = "job_id"
	// JobCreatedAtField is the database field name for the job creation timestamp
	JobCreatedAtField = "created_at"
)

// JobStatus represents the current state of a job in the system
type JobStatus string

// Job status constants
const (
	// JobStatusUnknown represents an unknown or invalid job status
	JobStatusUnknown JobStatus = "unknown"
	// JobStatusCreated indicates the job has been registered but no task has started
	JobStatusCreated JobStatus = "created"
	// JobStatusRunning indicates at least one task is currently being processed
	JobStatusRunning JobStatus = "running"
	// JobStatusAwaitingApproval indicates a task is blocked on an external approval
	JobStatusAwaitingApproval JobStatus = "awaiting-approval"
	// JobStatusCompleted indicates every known task has finished successfully
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a task has failed
	JobStatusFailed JobStatus = "failed"
	// JobStatusAborted indicates the job was aborted by the upstream server
	JobStatusAborted JobStatus = "aborted"
)

// Job represents a pipeline run tracked end-to-end, tied to one webhook destination
type Job struct {
	gorm.Model
	JobID         string          `json:"job_id" gorm:"not null;uniqueIndex"`
	WebhookURL    string          `json:"webhook_url" gorm:"not null;type:text"`
	WebhookSecret string          `json:"-" gorm:"not null;type:text"`
	Status        JobStatus       `json:"status" gorm:"not null;index"`
	Parameters    json.RawMessage `json:"parameters,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
}

// IsTerminal reports whether the job can take no further transitions
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusAborted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// ParseJobStatus converts a string representation of a job status to JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	switch str {
	case string(JobStatusCreated):
		return JobStatusCreated, nil
	case string(JobStatusRunning):
		return JobStatusRunning, nil
	case string(JobStatusAwaitingApproval):
		return JobStatusAwaitingApproval, nil
	case string(JobStatusCompleted):
		return JobStatusCompleted, nil
	case string(JobStatusFailed):
		return JobStatusFailed, nil
	case string(JobStatusAborted):
		return JobStatusAborted, nil
	default:
		return JobStatusUnknown, fmt.Errorf("invalid job status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// Validate ensures that the job data is valid
func (j *Job) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if j.WebhookURL == "" {
		return fmt.Errorf("webhook url cannot be empty")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a new job
func (j *Job) BeforeCreate(_ *gorm.DB) error {
	if j.Status == "" {
		j.Status = JobStatusCreated
	}
	return j.Validate()
}
