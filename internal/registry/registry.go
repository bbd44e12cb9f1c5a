// Package registry owns the authoritative job and task lifecycle state and
// enforces legal transitions. It is the only stateful core of the service;
// the HTTP transport and the outbound notifier are collaborators.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vidlearn/genai-relay/internal/db/models"
	"github.com/vidlearn/genai-relay/internal/db/repos"
	"github.com/vidlearn/genai-relay/internal/events"
	"github.com/vidlearn/genai-relay/internal/logger"
)

// WebhookEvent is an inbound callback from the AI pipeline reporting a task
// state change for a job
type WebhookEvent struct {
	JobID  string            `json:"jobId"`
	TaskID string            `json:"task"`
	Status models.TaskStatus `json:"status"`
	Data   json.RawMessage   `json:"data,omitempty"`
}

// Validate ensures the event carries the required correlation fields
func (e *WebhookEvent) Validate() error {
	if e.JobID == "" {
		return fmt.Errorf("jobId is required")
	}
	if e.TaskID == "" {
		return fmt.Errorf("task is required")
	}
	if e.Status == "" || e.Status == models.TaskStatusUnknown {
		return fmt.Errorf("status is required")
	}
	return nil
}

// Registry tracks job and task lifecycle state
type Registry struct {
	jobRepo  *repos.JobRepository
	taskRepo *repos.TaskRepository
	bus      *events.Bus
	locks    *jobLocks
}

// New creates a new registry backed by the given repositories. Committed
// transitions are published on the bus for the notifier to relay upstream.
func New(jobRepo *repos.JobRepository, taskRepo *repos.TaskRepository, bus *events.Bus) *Registry {
	return &Registry{
		jobRepo:  jobRepo,
		taskRepo: taskRepo,
		bus:      bus,
		locks:    newJobLocks(),
	}
}

// CreateJob registers a new job with a freshly generated identifier
func (r *Registry) CreateJob(ctx context.Context, webhookURL, webhookSecret string, params json.RawMessage) (*models.Job, error) {
	normalized, err := normalizeWebhookURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	job := &models.Job{
		JobID:         uuid.NewString(),
		WebhookURL:    normalized,
		WebhookSecret: webhookSecret,
		Status:        models.JobStatusCreated,
		Parameters:    params,
	}
	if err := r.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	logger.InfoWithFields("Job created", map[string]interface{}{
		"job_id":      job.JobID,
		"webhook_url": job.WebhookURL,
	})
	return job, nil
}

// GetJob retrieves a job by its identifier
func (r *Registry) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	return r.resolveJob(ctx, jobID)
}

// ListJobs returns jobs filtered and paginated by opts
func (r *Registry) ListJobs(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	return r.jobRepo.List(ctx, opts)
}

// ListTasks returns all tasks known for a job
func (r *Registry) ListTasks(ctx context.Context, jobID string) ([]models.Task, error) {
	job, err := r.resolveJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return r.taskRepo.ListByJob(ctx, job.ID)
}

// UpdateJob merges parameters into the job's configuration
func (r *Registry) UpdateJob(ctx context.Context, jobID string, params json.RawMessage) (*models.Job, error) {
	lock := r.locks.forJob(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := r.resolveJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	merged, err := mergeParameters(job.Parameters, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	job.Parameters = merged

	if err := r.jobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	return job, nil
}

// ApproveTaskStart transitions a task from awaiting-start-approval to running
func (r *Registry) ApproveTaskStart(ctx context.Context, jobID, taskID string) (*models.Task, error) {
	return r.approve(ctx, jobID, taskID, models.TaskStatusAwaitingStartApproval)
}

// ApproveTaskContinue transitions a task from awaiting-continue-approval to running
func (r *Registry) ApproveTaskContinue(ctx context.Context, jobID, taskID string) (*models.Task, error) {
	return r.approve(ctx, jobID, taskID, models.TaskStatusAwaitingContinueApproval)
}

// approve moves a task waiting in the given state to running. A task in any
// other state, pending included, has not been offered for this approval and
// is rejected.
func (r *Registry) approve(ctx context.Context, jobID, taskID string, expected models.TaskStatus) (*models.Task, error) {
	lock := r.locks.forJob(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := r.resolveJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	task, err := r.resolveTask(ctx, job, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status != expected {
		return nil, fmt.Errorf("%w: task %s is %s, expected %s", ErrInvalidTransition, taskID, task.Status, expected)
	}

	task.Status = models.TaskStatusRunning
	task.WebhookSent = false
	if err := r.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := r.recomputeJobStatus(ctx, job); err != nil {
		return nil, err
	}

	r.publishTransition(job, task)
	return task, nil
}

// AbortJob transitions the job and all its non-terminal tasks to aborted.
// Aborting an already-aborted job is a no-op success.
func (r *Registry) AbortJob(ctx context.Context, jobID string) (*models.Job, error) {
	lock := r.locks.forJob(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := r.resolveJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status == models.JobStatusAborted {
		return job, nil
	}

	aborted, err := r.taskRepo.AbortNonTerminal(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	job.Status = models.JobStatusAborted
	if err := r.jobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	for i := range aborted {
		task := aborted[i]
		task.Status = models.TaskStatusAborted
		r.publishTransition(job, &task)
	}

	logger.InfoWithFields("Job aborted", map[string]interface{}{
		"job_id":        job.JobID,
		"aborted_tasks": len(aborted),
	})
	return job, nil
}

// RerunTask resets a terminal task to pending so the pipeline can dispatch
// it again. A task that is still in flight cannot be rerun.
func (r *Registry) RerunTask(ctx context.Context, jobID, taskID string) (*models.Task, error) {
	lock := r.locks.forJob(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := r.resolveJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	task, err := r.resolveTask(ctx, job, taskID)
	if err != nil {
		return nil, err
	}

	if !task.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: task %s is %s and cannot be rerun", ErrInvalidTransition, taskID, task.Status)
	}

	task.Status = models.TaskStatusPending
	task.Data = nil
	task.Error = ""
	task.WebhookSent = false
	if err := r.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := r.recomputeJobStatus(ctx, job); err != nil {
		return nil, err
	}

	r.publishTransition(job, task)
	return task, nil
}

// HandleWebhook processes an inbound pipeline callback. A task not yet known
// to the registry is implicitly created in pending state before the event
// status is applied; the pipeline is the source of truth for task discovery.
// Handling is idempotent under at-least-once delivery.
func (r *Registry) HandleWebhook(ctx context.Context, event WebhookEvent) (*models.Task, error) {
	lock := r.locks.forJob(event.JobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := r.resolveJob(ctx, event.JobID)
	if err != nil {
		return nil, err
	}

	task, err := r.taskRepo.GetOrCreate(ctx, job.ID, event.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve task: %w", err)
	}

	// Duplicate delivery: same status and same data is a no-op success
	if event.Status == task.Status {
		if task.SameData(event.Data) {
			logger.Debugf("Duplicate webhook for job %s task %s (%s), ignoring", event.JobID, event.TaskID, event.Status)
			return task, nil
		}
		// Same status with fresh data is a progress update
		task.Data = event.Data
		task.WebhookSent = false
		if err := r.taskRepo.Update(ctx, task); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		r.publishTransition(job, task)
		return task, nil
	}

	if !task.Status.CanTransitionTo(event.Status) {
		return nil, fmt.Errorf("%w: task %s cannot move from %s to %s",
			ErrInvalidTransition, event.TaskID, task.Status, event.Status)
	}

	task.Status = event.Status
	task.Data = event.Data
	task.WebhookSent = false
	if event.Status == models.TaskStatusFailed {
		task.Error = extractError(event.Data)
	}
	if err := r.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := r.recomputeJobStatus(ctx, job); err != nil {
		return nil, err
	}

	r.publishTransition(job, task)
	return task, nil
}

// resolveJob maps a missing row onto ErrNotFound
func (r *Registry) resolveJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := r.jobRepo.GetByJobID(ctx, jobID)
	if errors.Is(err, repos.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *Registry) resolveTask(ctx context.Context, job *models.Job, taskID string) (*models.Task, error) {
	task, err := r.taskRepo.GetByTaskID(ctx, job.ID, taskID)
	if errors.Is(err, repos.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// recomputeJobStatus derives the job status from its tasks. An approval
// pause anywhere surfaces on the job; completion requires every task done.
func (r *Registry) recomputeJobStatus(ctx context.Context, job *models.Job) error {
	tasks, err := r.taskRepo.ListByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	status := deriveJobStatus(tasks)
	if status == job.Status {
		return nil
	}

	job.Status = status
	if err := r.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

func deriveJobStatus(tasks []models.Task) models.JobStatus {
	if len(tasks) == 0 {
		return models.JobStatusCreated
	}

	var running, pending, completed, failed, aborted int
	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusAwaitingStartApproval, models.TaskStatusAwaitingContinueApproval:
			return models.JobStatusAwaitingApproval
		case models.TaskStatusRunning:
			running++
		case models.TaskStatusPending:
			pending++
		case models.TaskStatusCompleted:
			completed++
		case models.TaskStatusFailed:
			failed++
		case models.TaskStatusAborted:
			aborted++
		}
	}

	switch {
	case running > 0:
		return models.JobStatusRunning
	case pending > 0:
		return models.JobStatusCreated
	case failed > 0:
		return models.JobStatusFailed
	case completed == len(tasks):
		return models.JobStatusCompleted
	default:
		return models.JobStatusAborted
	}
}

func (r *Registry) publishTransition(job *models.Job, task *models.Task) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{
		Type:          events.EventTaskTransitioned,
		JobID:         job.JobID,
		TaskRef:       task.ID,
		TaskID:        task.TaskID,
		Status:        task.Status,
		Data:          task.Data,
		WebhookURL:    job.WebhookURL,
		WebhookSecret: job.WebhookSecret,
	})
}

// normalizeWebhookURL validates the destination and defaults a missing
// scheme to http, matching what the pipeline expects
func normalizeWebhookURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("webhook url cannot be empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("malformed webhook url: %v", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("webhook url missing host")
	}
	return u.String(), nil
}

// mergeParameters overlays the incoming top-level keys on the stored ones
func mergeParameters(current, incoming json.RawMessage) (json.RawMessage, error) {
	if len(incoming) == 0 {
		return current, nil
	}

	merged := make(map[string]interface{})
	if len(current) > 0 {
		if err := json.Unmarshal(current, &merged); err != nil {
			return nil, fmt.Errorf("stored parameters are not an object: %v", err)
		}
	}

	update := make(map[string]interface{})
	if err := json.Unmarshal(incoming, &update); err != nil {
		return nil, fmt.Errorf("parameters must be a JSON object: %v", err)
	}
	for key, value := range update {
		merged[key] = value
	}

	return json.Marshal(merged)
}

func extractError(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Error
}
