package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Field names for task queries
const (
	// TaskStatusField is the field name for task status
	TaskStatusField = "status"
	// TaskIDField is the field name for the pipeline-assigned task identifier
	TaskIDField = "task_id"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Task status constants
const (
	// TaskStatusUnknown represents an unknown or invalid task status
	TaskStatusUnknown TaskStatus = "unknown"
	// TaskStatusPending indicates the task has been discovered but not yet offered for approval
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAwaitingStartApproval indicates the task is blocked on a start approval
	TaskStatusAwaitingStartApproval TaskStatus = "awaiting-start-approval"
	// TaskStatusRunning indicates the pipeline is processing the task
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusAwaitingContinueApproval indicates the task is paused at a checkpoint
	TaskStatusAwaitingContinueApproval TaskStatus = "awaiting-continue-approval"
	// TaskStatusCompleted indicates the task has been successfully completed
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the pipeline reported a task failure
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusAborted indicates the task was aborted together with its job
	TaskStatusAborted TaskStatus = "aborted"
)

// Task represents a sub-unit of work within a job, individually tracked
// through the status lifecycle. TaskID is assigned by the pipeline and is
// unique within a job.
type Task struct {
	gorm.Model
	JobRef    uint            `json:"-" gorm:"not null;uniqueIndex:idx_job_task;index"`
	TaskID    string          `json:"task_id" gorm:"not null;uniqueIndex:idx_job_task"`
	Status    TaskStatus      `json:"status" gorm:"not null;index"`
	Data        json.RawMessage `json:"data,omitempty" gorm:"type:jsonb"`
	Error       string          `json:"error,omitempty" gorm:"type:text"`
	WebhookSent bool            `json:"webhook_sent" gorm:"default:false"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}

// taskTransitions is the set of legal status transitions. A status absent
// from the map is terminal; rerun and abort are handled separately.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:                  {TaskStatusAwaitingStartApproval, TaskStatusRunning},
	TaskStatusAwaitingStartApproval:    {TaskStatusRunning},
	TaskStatusRunning:                  {TaskStatusAwaitingContinueApproval, TaskStatusCompleted, TaskStatusFailed},
	TaskStatusAwaitingContinueApproval: {TaskStatusRunning},
}

// CanTransitionTo reports whether moving from s to next is a legal step of
// the task state machine. Abort of a non-terminal task and rerun of a
// terminal one are always legal and not covered here.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
// short of an explicit rerun
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusAborted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the task status
func (s TaskStatus) String() string {
	return string(s)
}

// ParseTaskStatus converts a string to a TaskStatus type
func ParseTaskStatus(str string) (TaskStatus, error) {
	switch str {
	case string(TaskStatusPending):
		return TaskStatusPending, nil
	case string(TaskStatusAwaitingStartApproval):
		return TaskStatusAwaitingStartApproval, nil
	case string(TaskStatusRunning):
		return TaskStatusRunning, nil
	case string(TaskStatusAwaitingContinueApproval):
		return TaskStatusAwaitingContinueApproval, nil
	case string(TaskStatusCompleted):
		return TaskStatusCompleted, nil
	case string(TaskStatusFailed):
		return TaskStatusFailed, nil
	case string(TaskStatusAborted):
		return TaskStatusAborted, nil
	default:
		return TaskStatusUnknown, fmt.Errorf("invalid task status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for TaskStatus
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseTaskStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// SameData reports whether the stored snapshot matches the given payload.
// Used to detect duplicate at-least-once webhook deliveries.
func (t *Task) SameData(data json.RawMessage) bool {
	return bytes.Equal(compactJSON(t.Data), compactJSON(data))
}

func compactJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Validate ensures that the task data is valid
func (t *Task) Validate() error {
	if t.TaskID == "" {
		return fmt.Errorf("task id cannot be empty")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a new task
func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	return t.Validate()
}
