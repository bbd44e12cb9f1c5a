// Package mock provides a mock implementation of the API client for testing
package mock

import (
	"context"

	"github.com/vidlearn/genai-relay/internal/db/models"
	"github.com/vidlearn/genai-relay/internal/registry"
	"github.com/vidlearn/genai-relay/pkg/api/v1/client"
	"github.com/vidlearn/genai-relay/pkg/api/v1/handlers"
)

// MockClient implements the Client interface for testing
type MockClient struct {
	// Function fields that can be set to mock behavior
	HealthCheckFn         func(ctx context.Context) (map[string]string, error)
	CreateJobFn           func(ctx context.Context, params handlers.JobCreateParams) (handlers.JobResponse, error)
	GetJobFn              func(ctx context.Context, jobID string) (models.Job, error)
	ListJobsFn            func(ctx context.Context, status string) ([]models.Job, error)
	UpdateJobFn           func(ctx context.Context, jobID string, params handlers.JobUpdateParams) (handlers.JobResponse, error)
	AbortJobFn            func(ctx context.Context, jobID string) (handlers.JobResponse, error)
	ListTasksFn           func(ctx context.Context, jobID string) ([]models.Task, error)
	ApproveTaskStartFn    func(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error)
	ApproveTaskContinueFn func(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error)
	RerunTaskFn           func(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error)
	PostWebhookFn         func(ctx context.Context, event registry.WebhookEvent) error

	// Call tracking for verification
	HealthCheckCalls []struct {
		Ctx context.Context
	}
	CreateJobCalls []struct {
		Ctx    context.Context
		Params handlers.JobCreateParams
	}
	GetJobCalls []struct {
		Ctx   context.Context
		JobID string
	}
	ListJobsCalls []struct {
		Ctx    context.Context
		Status string
	}
	UpdateJobCalls []struct {
		Ctx    context.Context
		JobID  string
		Params handlers.JobUpdateParams
	}
	AbortJobCalls []struct {
		Ctx   context.Context
		JobID string
	}
	ListTasksCalls []struct {
		Ctx   context.Context
		JobID string
	}
	ApproveTaskStartCalls []struct {
		Ctx    context.Context
		JobID  string
		TaskID string
	}
	ApproveTaskContinueCalls []struct {
		Ctx    context.Context
		JobID  string
		TaskID string
	}
	RerunTaskCalls []struct {
		Ctx    context.Context
		JobID  string
		TaskID string
	}
	PostWebhookCalls []struct {
		Ctx   context.Context
		Event registry.WebhookEvent
	}
}

// Ensure MockClient implements Client interface
var _ client.Client = (*MockClient)(nil)

// HealthCheck mocks the HealthCheck method
func (m *MockClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	m.HealthCheckCalls = append(m.HealthCheckCalls, struct {
		Ctx context.Context
	}{Ctx: ctx})

	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return map[string]string{"status": "healthy"}, nil
}

// CreateJob mocks the CreateJob method
func (m *MockClient) CreateJob(ctx context.Context, params handlers.JobCreateParams) (handlers.JobResponse, error) {
	m.CreateJobCalls = append(m.CreateJobCalls, struct {
		Ctx    context.Context
		Params handlers.JobCreateParams
	}{Ctx: ctx, Params: params})

	if m.CreateJobFn != nil {
		return m.CreateJobFn(ctx, params)
	}
	return handlers.JobResponse{}, nil
}

// GetJob mocks the GetJob method
func (m *MockClient) GetJob(ctx context.Context, jobID string) (models.Job, error) {
	m.GetJobCalls = append(m.GetJobCalls, struct {
		Ctx   context.Context
		JobID string
	}{Ctx: ctx, JobID: jobID})

	if m.GetJobFn != nil {
		return m.GetJobFn(ctx, jobID)
	}
	return models.Job{}, nil
}

// ListJobs mocks the ListJobs method
func (m *MockClient) ListJobs(ctx context.Context, status string) ([]models.Job, error) {
	m.ListJobsCalls = append(m.ListJobsCalls, struct {
		Ctx    context.Context
		Status string
	}{Ctx: ctx, Status: status})

	if m.ListJobsFn != nil {
		return m.ListJobsFn(ctx, status)
	}
	return nil, nil
}

// UpdateJob mocks the UpdateJob method
func (m *MockClient) UpdateJob(ctx context.Context, jobID string, params handlers.JobUpdateParams) (handlers.JobResponse, error) {
	m.UpdateJobCalls = append(m.UpdateJobCalls, struct {
		Ctx    context.Context
		JobID  string
		Params handlers.JobUpdateParams
	}{Ctx: ctx, JobID: jobID, Params: params})

	if m.UpdateJobFn != nil {
		return m.UpdateJobFn(ctx, jobID, params)
	}
	return handlers.JobResponse{}, nil
}

// AbortJob mocks the AbortJob method
func (m *MockClient) AbortJob(ctx context.Context, jobID string) (handlers.JobResponse, error) {
	m.AbortJobCalls = append(m.AbortJobCalls, struct {
		Ctx   context.Context
		JobID string
	}{Ctx: ctx, JobID: jobID})

	if m.AbortJobFn != nil {
		return m.AbortJobFn(ctx, jobID)
	}
	return handlers.JobResponse{}, nil
}

// ListTasks mocks the ListTasks method
func (m *MockClient) ListTasks(ctx context.Context, jobID string) ([]models.Task, error) {
	m.ListTasksCalls = append(m.ListTasksCalls, struct {
		Ctx   context.Context
		JobID string
	}{Ctx: ctx, JobID: jobID})

	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, jobID)
	}
	return nil, nil
}

// ApproveTaskStart mocks the ApproveTaskStart method
func (m *MockClient) ApproveTaskStart(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error) {
	m.ApproveTaskStartCalls = append(m.ApproveTaskStartCalls, struct {
		Ctx    context.Context
		JobID  string
		TaskID string
	}{Ctx: ctx, JobID: jobID, TaskID: taskID})

	if m.ApproveTaskStartFn != nil {
		return m.ApproveTaskStartFn(ctx, jobID, taskID)
	}
	return handlers.JobResponse{}, nil
}

// ApproveTaskContinue mocks the ApproveTaskContinue method
func (m *MockClient) ApproveTaskContinue(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error) {
	m.ApproveTaskContinueCalls = append(m.ApproveTaskContinueCalls, struct {
		Ctx    context.Context
		JobID  string
		TaskID string
	}{Ctx: ctx, JobID: jobID, TaskID: taskID})

	if m.ApproveTaskContinueFn != nil {
		return m.ApproveTaskContinueFn(ctx, jobID, taskID)
	}
	return handlers.JobResponse{}, nil
}

// RerunTask mocks the RerunTask method
func (m *MockClient) RerunTask(ctx context.Context, jobID, taskID string) (handlers.JobResponse, error) {
	m.RerunTaskCalls = append(m.RerunTaskCalls, struct {
		Ctx    context.Context
		JobID  string
		TaskID string
	}{Ctx: ctx, JobID: jobID, TaskID: taskID})

	if m.RerunTaskFn != nil {
		return m.RerunTaskFn(ctx, jobID, taskID)
	}
	return handlers.JobResponse{}, nil
}

// PostWebhook mocks the PostWebhook method
func (m *MockClient) PostWebhook(ctx context.Context, event registry.WebhookEvent) error {
	m.PostWebhookCalls = append(m.PostWebhookCalls, struct {
		Ctx   context.Context
		Event registry.WebhookEvent
	}{Ctx: ctx, Event: event})

	if m.PostWebhookFn != nil {
		return m.PostWebhookFn(ctx, event)
	}
	return nil
}
