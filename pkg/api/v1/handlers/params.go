package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/vidlearn/genai-relay/internal/db/models"
)

// JobCreateParams is the request body for creating a job
type JobCreateParams struct {
	WebhookURL    string          `json:"webhookUrl"`
	WebhookSecret string          `json:"webhookSecret"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Validate ensures the job creation parameters are well formed
func (p *JobCreateParams) Validate() error {
	if p.WebhookURL == "" {
		return fmt.Errorf("webhookUrl is required")
	}
	return nil
}

// JobUpdateParams is the request body for updating a job's configuration
type JobUpdateParams struct {
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// TaskParams is the request body for task approval and rerun operations
type TaskParams struct {
	TaskID     string          `json:"taskId"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Validate ensures the task reference is present
func (p *TaskParams) Validate() error {
	if p.TaskID == "" {
		return fmt.Errorf("taskId is required")
	}
	return nil
}

// JobResponse is the common response envelope for job operations
type JobResponse struct {
	JobID  string           `json:"jobId"`
	Status models.JobStatus `json:"status"`
	Task   *models.Task     `json:"task,omitempty"`
}
